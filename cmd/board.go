package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/tui"
)

// boardCmd represents the board command.
var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"dashboard", "dash", "tui"},
	Short:   "Open the live alarm board",
	Long: `Open an interactive board listing every alarm with its next ring and
whether it is ringing or snoozed right now. The store is opened on each
refresh, so the daemon keeps running alongside.

Keyboard Controls:
  up/down - Select an alarm
  space   - Enable or disable the selected alarm
  r       - Refresh now
  q       - Quit

Examples:
  waketime board
  waketime tui`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: ""},
	RunE:        runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	if _, err := runtimeOptions(); err != nil {
		return err
	}

	return tui.RunBoard(tui.BoardConfig{
		Load:   loadAlarms,
		Toggle: toggleAlarm,
		Now:    now,
	})
}

func loadAlarms(c context.Context) ([]*model.Alarm, error) {
	rc, err := openRuntime(c)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return rc.Alarms.List(c)
}

func toggleAlarm(c context.Context, id string, enabled bool) error {
	rc, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = rc.Alarms.SetEnabled(c, id, enabled)
	return err
}
