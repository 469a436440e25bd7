package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/parser"
	"github.com/manav03panchal/waketime/internal/stats"
)

// Stats and history command flags.
var (
	statsFlagSince   string
	historyFlagSince string
	historyFlagLimit int
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:     "stats [ALARM]",
	Aliases: []string{"st", "report"},
	Short:   "Show snooze statistics",
	Long: `Show how often alarms went off, how often you snoozed and how long
it took to get up.

Examples:
  waketime stats
  waketime stats work
  waketime stats --since "last week"
  waketime stats --since 2024-01-01 --format json`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE:              runStats,
}

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:     "history [ALARM]",
	Aliases: []string{"log", "hist"},
	Short:   "Show past alarm rings",
	Long: `Show trigger events newest first, across all alarms or for one.

Examples:
  waketime history
  waketime history work --limit 5
  waketime history --since yesterday`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE:              runHistory,
}

func init() {
	statsCmd.Flags().StringVar(&statsFlagSince, "since", "", "Only count events since (today, this week, last month, 2024-01-01)")
	historyCmd.Flags().StringVar(&historyFlagSince, "since", "", "Only show events since")
	historyCmd.Flags().IntVarP(&historyFlagLimit, "limit", "n", 20, "Maximum events to show (0 for all)")

	sinceValues := fixedCompletions("today", "yesterday", "this week", "last week", "this month", "last month")
	statsCmd.RegisterFlagCompletionFunc("since", sinceValues)
	historyCmd.RegisterFlagCompletionFunc("since", sinceValues)

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}

// selectAlarms returns every alarm, or the one args names.
func selectAlarms(cmd *cobra.Command, args []string) ([]*model.Alarm, error) {
	c := commandContext(cmd)
	if len(args) == 1 {
		a, err := findAlarm(c, args[0])
		if err != nil {
			return nil, err
		}
		return []*model.Alarm{a}, nil
	}
	return ctx.Alarms.List(c)
}

// window parses a --since value.
func window(since string) (stats.Window, error) {
	if since == "" {
		return stats.Window{}, nil
	}
	t, err := parser.ParseSince(since, now())
	if err != nil {
		return stats.Window{}, inputError(err)
	}
	return stats.Window{Since: t}, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	w, err := window(statsFlagSince)
	if err != nil {
		return err
	}
	list, err := selectAlarms(cmd, args)
	if err != nil {
		return err
	}

	summary := stats.Overall(list, w)
	perAlarm := stats.PerAlarm(list, w)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStats(w, summary, perAlarm)
	}

	cli := ctx.CLIFormatter().WithClock(now)
	cli.PrintSummary(summary)
	if summary.TotalEvents > 0 && len(perAlarm) > 0 {
		cli.Println()
		cli.PrintAlarmStats(perAlarm)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	w, err := window(historyFlagSince)
	if err != nil {
		return err
	}
	list, err := selectAlarms(cmd, args)
	if err != nil {
		return err
	}

	entries := stats.Timeline(list, w)
	if historyFlagLimit > 0 && len(entries) > historyFlagLimit {
		entries = entries[:historyFlagLimit]
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintHistory(entries)
	}
	ctx.CLIFormatter().WithClock(now).PrintHistory(entries)
	return nil
}
