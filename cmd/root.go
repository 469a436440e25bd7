// Package cmd provides the CLI commands for Waketime.
//
// Waketime - a command-line alarm clock
// Copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/output"
	"github.com/manav03panchal/waketime/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagConfig string
)

// annotationNoStore marks commands that manage the store themselves.
const annotationNoStore = "waketime/no-store"

// ctx is the shared runtime context.
var ctx *runtime.Context

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "waketime",
	Short: "A command-line alarm clock",
	Long: `Waketime keeps your alarms, rings them on schedule and tracks how often
you hit snooze.

Examples:
  waketime new 7am --label Work --days weekdays
  waketime list
  waketime next
  waketime ring work
  waketime stats --since "last week"
  waketime daemon start`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for completion and help commands (but allow __complete for dynamic completions)
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return errors.NewUserError(fmt.Sprintf("Could not load config: %v", err),
				"Check the YAML syntax of "+configPathHint())
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		config.Global = cfg
		if flagDebug {
			logging.Init(logging.Config{Level: slog.LevelDebug, Output: os.Stderr})
		}

		if _, skip := cmd.Annotations[annotationNoStore]; skip {
			return nil
		}

		opts, err := runtimeOptions()
		if err != nil {
			return err
		}

		ctx, err = runtime.New(commandContext(cmd), opts)
		if err != nil {
			return err
		}
		ctx.Formatter.Writer = stdout
		ctx.Debugf("config loaded, storage driver %s", cfg.Storage.Driver)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			err := ctx.Close()
			ctx = nil
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show what rings next
		return runNext(cmd, args)
	},
}

// runtimeOptions turns the global flags into runtime options.
func runtimeOptions() (runtime.Options, error) {
	format, ok := output.ParseFormat(flagFormat)
	if !ok {
		return runtime.Options{}, errors.NewUserErrorWithField("format", flagFormat,
			"Unknown output format", "Use --format cli, json or plain")
	}
	colorMode, ok := output.ParseColorMode(flagColor)
	if !ok {
		return runtime.Options{}, errors.NewUserErrorWithField("color", flagColor,
			"Unknown color mode", "Use --color auto, always or never")
	}

	opts := runtime.DefaultOptions()
	opts.Config = config.Global
	opts.Format = format
	opts.ColorMode = colorMode
	opts.Debug = flagDebug
	return opts, nil
}

// openRuntime opens a runtime context outside the PersistentPreRunE path,
// for commands that only hold the store briefly.
func openRuntime(c context.Context) (*runtime.Context, error) {
	opts, err := runtimeOptions()
	if err != nil {
		return nil, err
	}
	rc, err := runtime.New(c, opts)
	if err != nil {
		return nil, err
	}
	rc.Formatter.Writer = stdout
	return rc, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}

func configPathHint() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.Dir() + "/config.yaml"
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	code := report(err)
	if ctx != nil {
		_ = ctx.Close()
		ctx = nil
	}
	return code
}

// report prints err in the selected output format.
func report(err error) int {
	f := output.NewFormatter()
	f.Writer = os.Stderr
	if format, ok := output.ParseFormat(flagFormat); ok && format == output.FormatJSON {
		f.Format = output.FormatJSON
		f.Writer = stdout
	}
	if mode, ok := output.ParseColorMode(flagColor); ok {
		f.ColorMode = mode
	}
	return runtime.ReportError(f, err)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default $XDG_CONFIG_HOME/waketime/config.yaml)")

	rootCmd.RegisterFlagCompletionFunc("format", fixedCompletions("cli", "json", "plain"))
	rootCmd.RegisterFlagCompletionFunc("color", fixedCompletions("auto", "always", "never"))

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{annotationNoStore: ""},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(stdout)
		cmd.Printf("waketime %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
		cmd.Println("")
		cmd.Println("Licensed under SEGV License v1.0")
	},
}
