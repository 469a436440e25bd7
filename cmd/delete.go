package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteFlagYes bool

// deleteCmd represents the delete command.
var deleteCmd = &cobra.Command{
	Use:     "delete ALARM",
	Aliases: []string{"rm", "remove", "del"},
	Short:   "Delete an alarm and its history",
	Long: `Delete an alarm. Its triggers are cancelled and its history is removed.

Examples:
  waketime delete work
  waketime delete 3f2a --yes`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeAlarms,
	RunE:              runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteFlagYes, "yes", "y", false, "Skip confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	c := commandContext(cmd)
	a, err := findAlarm(c, args[0])
	if err != nil {
		return err
	}

	if !deleteFlagYes {
		ok, err := confirm(fmt.Sprintf("Delete %s (%s) and %d history entries?",
			a.Label, a.Time, len(a.History)))
		if err != nil {
			return err
		}
		if !ok {
			if !ctx.IsJSON() {
				ctx.CLIFormatter().Muted("Cancelled")
			}
			return nil
		}
	}

	if err := ctx.Alarms.Delete(c, a.ID); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status":   "deleted",
			"alarm_id": a.ID,
		})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Deleted %s", a.Label))
	return nil
}
