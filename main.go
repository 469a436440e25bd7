// Waketime - a command-line alarm clock
//
// Copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.

package main

import (
	"os"

	"github.com/manav03panchal/waketime/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
