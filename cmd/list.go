package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
)

// List command flags.
var (
	listFlagEnabled bool
	nextFlagCount   int
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "alarms"},
	Short:   "List alarms",
	Long: `List all alarms ordered by time of day.

Examples:
  waketime list
  waketime list --enabled
  waketime list --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// showCmd represents the show command.
var showCmd = &cobra.Command{
	Use:               "show ALARM",
	Aliases:           []string{"get", "info"},
	Short:             "Show one alarm in detail",
	Long:              `Show an alarm by id, id prefix or label.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE:              runShow,
}

// nextCmd represents the next command.
var nextCmd = &cobra.Command{
	Use:     "next",
	Aliases: []string{"upcoming"},
	Short:   "Show when alarms ring next",
	Long: `Show the next rings across all enabled alarms.

Examples:
  waketime next
  waketime next -n 10`,
	Args: cobra.NoArgs,
	RunE: runNext,
}

func init() {
	listCmd.Flags().BoolVar(&listFlagEnabled, "enabled", false, "Only show enabled alarms")
	nextCmd.Flags().IntVarP(&nextFlagCount, "count", "n", 5, "Number of rings to show")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(nextCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	list, err := ctx.Alarms.List(commandContext(cmd))
	if err != nil {
		return err
	}
	if listFlagEnabled {
		enabled := list[:0]
		for _, a := range list {
			if a.Enabled {
				enabled = append(enabled, a)
			}
		}
		list = enabled
	}
	clock.SortByTime(list)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintAlarms(list, now())
	}
	ctx.CLIFormatter().WithClock(now).PrintAlarms(list)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := findAlarm(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintAlarm("ok", a, now())
	}
	ctx.CLIFormatter().WithClock(now).PrintAlarm(a)
	return nil
}

func runNext(cmd *cobra.Command, args []string) error {
	list, err := ctx.Alarms.List(commandContext(cmd))
	if err != nil {
		return err
	}
	n := nextFlagCount
	if n <= 0 {
		n = 5
	}
	occ := clock.Upcoming(list, now(), n)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintUpcoming(occ, now())
	}
	cli := ctx.CLIFormatter().WithClock(now)
	cli.PrintUpcoming(occ)
	if ringing := ringingAlarms(list); len(ringing) > 0 {
		cli.Println()
		for _, a := range ringing {
			cli.Warning(a.Label + " is ringing. Run 'waketime ring --resume " + a.ShortID() + "'")
		}
	}
	return nil
}

// ringingAlarms returns alarms with an unresolved event.
func ringingAlarms(list []*model.Alarm) []*model.Alarm {
	var out []*model.Alarm
	for _, a := range list {
		if _, ok := a.PendingEvent(); ok {
			out = append(out, a)
		}
	}
	return out
}
