package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/alarms"
	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/parser"
)

// New command flags.
var (
	newFlagLabel    string
	newFlagDays     string
	newFlagSound    string
	newFlagSnooze   string
	newFlagDisabled bool
)

// newCmd represents the new command.
var newCmd = &cobra.Command{
	Use:     "new TIME",
	Aliases: []string{"add", "create", "set"},
	Short:   "Create an alarm",
	Long: `Create a recurring alarm. TIME accepts forms like 7am, 6:45 pm, 19:30,
0700 or noon. Days default to every day.

Examples:
  waketime new 7am --label Work --days weekdays
  waketime new 6:45 pm -l "Evening run" -d mon,wed,fri
  waketime new 9:30 --days weekends --sound birdsong --snooze 15
  waketime new 0530 -l "Early flight" -d fri --disabled`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVarP(&newFlagLabel, "label", "l", "Alarm", "Alarm label")
	newCmd.Flags().StringVarP(&newFlagDays, "days", "d", "daily", "Days to ring: weekdays, weekends, daily, mon,wed,fri, mon-fri")
	newCmd.Flags().StringVarP(&newFlagSound, "sound", "s", "", "Alarm sound (see 'waketime sounds')")
	newCmd.Flags().StringVar(&newFlagSnooze, "snooze", "", "Snooze duration in minutes")
	newCmd.Flags().BoolVar(&newFlagDisabled, "disabled", false, "Create the alarm switched off")

	newCmd.RegisterFlagCompletionFunc("days", completeDays)
	newCmd.RegisterFlagCompletionFunc("sound", completeSounds)
	newCmd.RegisterFlagCompletionFunc("snooze", snoozeCompletions)

	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	c := commandContext(cmd)
	cfg := ctx.Config

	at, err := parser.ParseTimeOfDay(strings.Join(args, " "))
	if err != nil {
		return inputError(err)
	}
	schedule, err := parser.ParseDays(newFlagDays)
	if err != nil {
		return inputError(err)
	}

	snooze := cfg.Alarm.DefaultSnooze
	if newFlagSnooze != "" {
		if snooze, err = parser.ParseSnooze(newFlagSnooze); err != nil {
			return inputError(err)
		}
	}

	sound := newFlagSound
	if sound == "" {
		sound = cfg.Alarm.DefaultSound
	}

	ctx.Debugf("creating alarm at %s on %+v", at, schedule)
	a, err := ctx.Alarms.Create(c, alarms.Draft{
		Label:    newFlagLabel,
		Time:     at,
		Schedule: schedule,
		Sound:    sound,
		Snooze:   snooze,
	})
	if err != nil {
		return err
	}

	if newFlagDisabled {
		if a, err = ctx.Alarms.SetEnabled(c, a.ID, false); err != nil {
			return err
		}
	}

	return printSaved("created", "Created", a)
}

// printSaved reports a created or edited alarm.
func printSaved(status, verb string, a *model.Alarm) error {
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintAlarm(status, a, now())
	}
	cli := ctx.CLIFormatter().WithClock(now)
	cli.PrintAlarmSaved(verb, a)
	if !ctx.Config.IsSnoozeOption(a.SnoozeSettings.Duration) {
		cli.Muted(fmt.Sprintf("  Snooze: %d min (usual options: %s)",
			a.SnoozeSettings.Duration, joinInts(ctx.Config.Alarm.SnoozeOptions)))
	}
	return nil
}

// snoozeCompletions offers the configured snooze durations.
func snoozeCompletions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, m := range config.Global.Alarm.SnoozeOptions {
		s := fmt.Sprintf("%d", m)
		if strings.HasPrefix(s, toComplete) {
			out = append(out, s+"\t"+s+" minutes")
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
