//go:build windows

package storage

import (
	"os"
)

// Windows relies on badger's own directory lock; the file only records
// the holder for error messages.
func tryFlock(f *os.File) error { return nil }

func unflock(f *os.File) error { return nil }

// processAlive reports whether a handle to pid can still be opened.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}
