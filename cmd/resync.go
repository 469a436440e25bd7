package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resyncCmd re-registers every alarm's triggers.
var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Register every alarm's triggers again",
	Long: `Cancel all pending triggers and register them again from the stored
alarms. Run it if "next" and the daemon disagree, e.g. after restoring the
data directory by hand.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := ctx.Alarms.Resync(commandContext(cmd))
		if err != nil {
			return err
		}
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "resynced", "triggers": n})
		}
		ctx.CLIFormatter().Success(fmt.Sprintf("Registered %d triggers", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resyncCmd)
}
