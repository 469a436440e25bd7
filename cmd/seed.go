package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/alarms"
	"github.com/manav03panchal/waketime/internal/clock"
)

// Seed command flags.
var (
	seedFlagReplace bool
	seedFlagClear   bool
	seedFlagYes     bool
)

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add sample alarms for a demo",
	Long: `Add five sample alarms with a few weeks of history so list, stats and
the board have something to show.

Examples:
  waketime seed
  waketime seed --replace
  waketime seed --clear --yes`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedFlagReplace, "replace", false, "Delete existing alarms first")
	seedCmd.Flags().BoolVar(&seedFlagClear, "clear", false, "Delete all alarms and add nothing")
	seedCmd.Flags().BoolVarP(&seedFlagYes, "yes", "y", false, "Skip confirmation")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	c := commandContext(cmd)

	if (seedFlagReplace || seedFlagClear) && !seedFlagYes {
		ok, err := confirm("Delete all existing alarms and their history?")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if seedFlagClear {
		n, err := ctx.Alarms.Import(c, nil, true)
		if err != nil {
			return err
		}
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "cleared", "imported": n})
		}
		ctx.CLIFormatter().Success("Deleted all alarms")
		return nil
	}

	samples := alarms.Samples(now())
	n, err := ctx.Alarms.Import(c, samples, seedFlagReplace)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintAlarms(samples, now())
	}
	clock.SortByTime(samples)
	cli := ctx.CLIFormatter().WithClock(now)
	cli.Success(fmt.Sprintf("Added %d sample alarms", n))
	cli.PrintAlarms(samples)
	return nil
}
