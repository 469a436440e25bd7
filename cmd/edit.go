package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/alarms"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/parser"
)

// Edit command flags.
var (
	editFlagTime   string
	editFlagLabel  string
	editFlagDays   string
	editFlagSound  string
	editFlagSnooze string
)

// editCmd represents the edit command.
var editCmd = &cobra.Command{
	Use:     "edit ALARM",
	Aliases: []string{"update", "change"},
	Short:   "Change an alarm",
	Long: `Change the time, label, days, sound or snooze of an alarm. Only the
flags you pass are changed. Changing when an alarm rings re-registers its
triggers.

Examples:
  waketime edit work --time 6:30am
  waketime edit 3f2a --days mon-thu --label "Short week"
  waketime edit gym --snooze 5 --sound energetic`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE:              runEdit,
}

// enableCmd represents the enable command.
var enableCmd = &cobra.Command{
	Use:               "enable ALARM...",
	Aliases:           []string{"on"},
	Short:             "Switch alarms on",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeManyAlarms,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args, true)
	},
}

// disableCmd represents the disable command.
var disableCmd = &cobra.Command{
	Use:               "disable ALARM...",
	Aliases:           []string{"off"},
	Short:             "Switch alarms off",
	Long:              `Switch alarms off. Their triggers are cancelled until they are enabled again.`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeManyAlarms,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args, false)
	},
}

// duplicateCmd represents the duplicate command.
var duplicateCmd = &cobra.Command{
	Use:               "duplicate ALARM",
	Aliases:           []string{"dup", "copy"},
	Short:             "Copy an alarm",
	Long:              `Create a new alarm with the same time, days, sound and snooze. History is not copied.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE:              runDuplicate,
}

func init() {
	editCmd.Flags().StringVarP(&editFlagTime, "time", "t", "", "New time of day")
	editCmd.Flags().StringVarP(&editFlagLabel, "label", "l", "", "New label")
	editCmd.Flags().StringVarP(&editFlagDays, "days", "d", "", "New days")
	editCmd.Flags().StringVarP(&editFlagSound, "sound", "s", "", "New sound")
	editCmd.Flags().StringVar(&editFlagSnooze, "snooze", "", "New snooze duration in minutes")

	editCmd.RegisterFlagCompletionFunc("days", completeDays)
	editCmd.RegisterFlagCompletionFunc("sound", completeSounds)
	editCmd.RegisterFlagCompletionFunc("snooze", snoozeCompletions)

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(duplicateCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	c := commandContext(cmd)

	changes, err := editChanges(cmd)
	if err != nil {
		return err
	}
	if changes.IsEmpty() {
		return errors.NewUserError("Nothing to change",
			"Pass at least one of --time, --label, --days, --sound or --snooze")
	}

	a, err := findAlarm(c, args[0])
	if err != nil {
		return err
	}
	updated, err := ctx.Alarms.Update(c, a.ID, changes)
	if err != nil {
		return err
	}
	return printSaved("updated", "Updated", updated)
}

// editChanges builds the partial edit from the flags that were set.
func editChanges(cmd *cobra.Command) (alarms.Changes, error) {
	var changes alarms.Changes
	flags := cmd.Flags()

	if flags.Changed("time") {
		at, err := parser.ParseTimeOfDay(editFlagTime)
		if err != nil {
			return changes, inputError(err)
		}
		changes.Time = &at
	}
	if flags.Changed("label") {
		label := editFlagLabel
		changes.Label = &label
	}
	if flags.Changed("days") {
		schedule, err := parser.ParseDays(editFlagDays)
		if err != nil {
			return changes, inputError(err)
		}
		changes.Schedule = &schedule
	}
	if flags.Changed("sound") {
		sound := editFlagSound
		changes.Sound = &sound
	}
	if flags.Changed("snooze") {
		minutes, err := parser.ParseSnooze(editFlagSnooze)
		if err != nil {
			return changes, inputError(err)
		}
		changes.Snooze = &minutes
	}
	return changes, nil
}

func runToggle(cmd *cobra.Command, args []string, enabled bool) error {
	c := commandContext(cmd)
	status, verb := "enabled", "Enabled"
	if !enabled {
		status, verb = "disabled", "Disabled"
	}

	for _, ref := range args {
		a, err := findAlarm(c, ref)
		if err != nil {
			return err
		}
		if a.Enabled == enabled {
			if !ctx.IsJSON() {
				ctx.CLIFormatter().Muted(fmt.Sprintf("%s is already %s", a.Label, status))
			}
			continue
		}
		updated, err := ctx.Alarms.SetEnabled(c, a.ID, enabled)
		if err != nil {
			return err
		}
		if err := printSaved(status, verb, updated); err != nil {
			return err
		}
	}
	return nil
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	c := commandContext(cmd)
	a, err := findAlarm(c, args[0])
	if err != nil {
		return err
	}
	dup, err := ctx.Alarms.Duplicate(c, a.ID)
	if err != nil {
		return err
	}
	return printSaved("created", "Created", dup)
}
