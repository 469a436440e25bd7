package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/output"
	"github.com/manav03panchal/waketime/internal/runtime"
)

// setupCLI points the commands at a fresh store and pins terminal checks.
func setupCLI(t *testing.T) {
	t.Helper()
	t.Setenv(runtime.EnvDatabase, filepath.Join(t.TempDir(), "db"))

	origIn, origOut, origNow := stdinIsTerminal, stdoutIsTerminal, now
	stdinIsTerminal = func() bool { return false }
	stdoutIsTerminal = func() bool { return false }

	t.Cleanup(func() {
		stdinIsTerminal, stdoutIsTerminal, now = origIn, origOut, origNow
		stdout = os.Stdout
		config.Global = config.DefaultRuntimeConfig()
	})
}

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	stdout = &buf
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if ctx != nil {
		_ = ctx.Close()
		ctx = nil
	}
	return buf.String(), err
}

func executeJSON(t *testing.T, v interface{}, args ...string) {
	t.Helper()
	out, err := execute(t, append(args, "--format", "json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func createAlarm(t *testing.T, args ...string) *output.AlarmOutput {
	t.Helper()
	var resp output.AlarmResponse
	executeJSON(t, &resp, append([]string{"new"}, args...)...)
	require.NotNil(t, resp.Alarm)
	return resp.Alarm
}

// =============================================================================
// Create and List Tests
// =============================================================================

func TestNewAlarm(t *testing.T) {
	setupCLI(t)

	var resp output.AlarmResponse
	executeJSON(t, &resp, "new", "7am", "--label", "Work", "--days", "weekdays")

	assert.Equal(t, "created", resp.Status)
	assert.Equal(t, "07:00", resp.Alarm.Time)
	assert.Equal(t, "Work", resp.Alarm.Label)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, resp.Alarm.Days)
	assert.True(t, resp.Alarm.Enabled)
	assert.Equal(t, 10, resp.Alarm.SnoozeMinutes)
	assert.Len(t, resp.Alarm.NotificationIDs, 5)
	assert.NotEmpty(t, resp.Alarm.NextAt)
}

func TestNewAlarmDefaults(t *testing.T) {
	setupCLI(t)

	a := createAlarm(t, "6:45", "pm")
	assert.Equal(t, "18:45", a.Time)
	assert.Equal(t, "Alarm", a.Label)
	assert.Len(t, a.Days, 7)
}

func TestNewAlarmDisabled(t *testing.T) {
	setupCLI(t)

	a := createAlarm(t, "0530", "--disabled", "--snooze", "7")
	assert.False(t, a.Enabled)
	assert.Empty(t, a.NotificationIDs)
	assert.Empty(t, a.NextAt)
	assert.Equal(t, 7, a.SnoozeMinutes)
}

func TestNewAlarmRejectsBadInput(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "new", "25:99")
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))

	_, err = execute(t, "new", "7am", "--days", "someday")
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestListAlarms(t *testing.T) {
	setupCLI(t)

	createAlarm(t, "9am", "-l", "Late")
	createAlarm(t, "6am", "-l", "Early")
	createAlarm(t, "7am", "-l", "Off", "--disabled")

	var resp output.AlarmsResponse
	executeJSON(t, &resp, "list")
	require.Len(t, resp.Alarms, 3)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, 2, resp.Enabled)
	assert.Equal(t, "Early", resp.Alarms[0].Label)
	assert.Equal(t, "Late", resp.Alarms[2].Label)

	executeJSON(t, &resp, "list", "--enabled")
	assert.Len(t, resp.Alarms, 2)
}

func TestListEmptyCLI(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "list", "--color", "never")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestShowByLabel(t *testing.T) {
	setupCLI(t)

	created := createAlarm(t, "8am", "-l", "Gym")

	var resp output.AlarmResponse
	executeJSON(t, &resp, "show", "gym")
	assert.Equal(t, created.ID, resp.Alarm.ID)

	executeJSON(t, &resp, "show", created.ID[:8])
	assert.Equal(t, created.ID, resp.Alarm.ID)

	_, err := execute(t, "show", "nothing-like-this")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestNext(t *testing.T) {
	setupCLI(t)

	createAlarm(t, "7am", "-l", "A")
	createAlarm(t, "8am", "-l", "B")
	createAlarm(t, "9am", "-l", "C")
	createAlarm(t, "6am", "-l", "Off", "--disabled")

	var resp output.NextResponse
	executeJSON(t, &resp, "next", "-n", "2")
	require.Len(t, resp.Upcoming, 2)
	for _, o := range resp.Upcoming {
		assert.NotEqual(t, "Off", o.Label)
		assert.Greater(t, o.InSecs, int64(0))
	}
	assert.LessOrEqual(t, resp.Upcoming[0].At, resp.Upcoming[1].At)
}

// =============================================================================
// Edit Tests
// =============================================================================

func TestEditAlarm(t *testing.T) {
	setupCLI(t)

	a := createAlarm(t, "7am", "-l", "Work")

	var resp output.AlarmResponse
	executeJSON(t, &resp, "edit", a.ID, "--label", "Office", "--time", "7:30")
	assert.Equal(t, "updated", resp.Status)
	assert.Equal(t, "Office", resp.Alarm.Label)
	assert.Equal(t, "07:30", resp.Alarm.Time)
	assert.Len(t, resp.Alarm.Days, 7, "days untouched")

	_, err := execute(t, "edit", a.ID)
	require.Error(t, err, "no changes")
}

func TestEnableDisable(t *testing.T) {
	setupCLI(t)

	a := createAlarm(t, "7am", "-l", "Work")

	var resp output.AlarmResponse
	executeJSON(t, &resp, "disable", a.ID)
	assert.Equal(t, "disabled", resp.Status)
	assert.False(t, resp.Alarm.Enabled)
	assert.Empty(t, resp.Alarm.NotificationIDs)

	executeJSON(t, &resp, "enable", "work")
	assert.Equal(t, "enabled", resp.Status)
	assert.True(t, resp.Alarm.Enabled)
	assert.Len(t, resp.Alarm.NotificationIDs, 7)
}

func TestDuplicate(t *testing.T) {
	setupCLI(t)

	a := createAlarm(t, "7am", "-l", "Work", "-d", "weekdays")

	var resp output.AlarmResponse
	executeJSON(t, &resp, "duplicate", a.ID)
	assert.NotEqual(t, a.ID, resp.Alarm.ID)
	assert.Equal(t, "Work (copy)", resp.Alarm.Label)
	assert.Equal(t, a.Days, resp.Alarm.Days)
}

func TestAmbiguousLabel(t *testing.T) {
	setupCLI(t)

	createAlarm(t, "7am", "-l", "Work")
	createAlarm(t, "8am", "-l", "work")

	_, err := execute(t, "show", "WORK")
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
}

// =============================================================================
// Delete Tests
// =============================================================================

func TestDelete(t *testing.T) {
	setupCLI(t)

	a := createAlarm(t, "7am")

	_, err := execute(t, "delete", a.ID)
	require.Error(t, err, "no terminal to confirm on")

	var resp map[string]interface{}
	executeJSON(t, &resp, "delete", a.ID, "--yes")
	assert.Equal(t, "deleted", resp["status"])
	assert.Equal(t, a.ID, resp["alarm_id"])

	var list output.AlarmsResponse
	executeJSON(t, &list, "list")
	assert.Empty(t, list.Alarms)
}

// =============================================================================
// Ring Tests
// =============================================================================

func TestRingSnoozeDismiss(t *testing.T) {
	setupCLI(t)

	a := createAlarm(t, "7am", "-l", "Work")

	var fired output.EventResponse
	executeJSON(t, &fired, "ring", "work")
	assert.Equal(t, "fired", fired.Status)
	assert.Equal(t, "active", fired.Event.Status)
	assert.Equal(t, "test", fired.Event.Source)

	var snoozed output.EventResponse
	executeJSON(t, &snoozed, "snooze", a.ID)
	assert.Equal(t, "snoozed", snoozed.Status)
	assert.Equal(t, fired.Event.ID, snoozed.Event.ID)
	assert.Equal(t, 1, snoozed.Event.SnoozeCount)

	var resumed output.EventResponse
	executeJSON(t, &resumed, "ring")
	assert.Equal(t, "ringing", resumed.Status)
	assert.Equal(t, fired.Event.ID, resumed.Event.ID)

	var dismissed output.EventResponse
	executeJSON(t, &dismissed, "dismiss", "work")
	assert.Equal(t, "dismissed", dismissed.Status)
	assert.Equal(t, 1, dismissed.Event.SnoozeCount)
	assert.NotEmpty(t, dismissed.Event.DismissedAt)

	_, err := execute(t, "ring")
	require.Error(t, err, "nothing left ringing")

	_, err = execute(t, "snooze", a.ID)
	require.Error(t, err, "no pending event")
}

func TestRingResume(t *testing.T) {
	setupCLI(t)

	createAlarm(t, "7am", "-l", "Work")

	_, err := execute(t, "ring", "--resume", "work")
	require.Error(t, err)

	_, err = execute(t, "ring", "work", "--no-screen")
	require.NoError(t, err)

	var resumed output.EventResponse
	executeJSON(t, &resumed, "ring", "--resume", "work")
	assert.Equal(t, "ringing", resumed.Status)
}

// =============================================================================
// History and Stats Tests
// =============================================================================

func pinNow(t *testing.T) time.Time {
	t.Helper()
	y, m, d := time.Now().Date()
	fixed := time.Date(y, m, d-1, 20, 0, 0, 0, time.Local)
	now = func() time.Time { return fixed }
	return fixed
}

func TestSeedHistoryStats(t *testing.T) {
	setupCLI(t)
	pinNow(t)

	var seeded output.AlarmsResponse
	executeJSON(t, &seeded, "seed")
	assert.Equal(t, 5, seeded.TotalCount)
	assert.Equal(t, 4, seeded.Enabled)

	var hist output.HistoryResponse
	executeJSON(t, &hist, "history", "--limit", "0")
	assert.Equal(t, 17, hist.TotalCount)
	for i := 1; i < len(hist.Events); i++ {
		assert.GreaterOrEqual(t, hist.Events[i-1].TriggeredAt, hist.Events[i].TriggeredAt)
	}

	executeJSON(t, &hist, "history", "work standup", "-n", "2")
	assert.Len(t, hist.Events, 2)
	assert.Equal(t, "Work Standup", hist.Events[0].AlarmLabel)

	var st output.StatsResponse
	executeJSON(t, &st, "stats")
	assert.Equal(t, 17, st.Summary.TotalEvents)
	assert.Equal(t, 21, st.Summary.TotalSnoozes)
	assert.Equal(t, 17, st.Summary.Dismissed)
	assert.Len(t, st.Alarms, 5)

	_, err := execute(t, "seed", "--replace")
	require.Error(t, err, "replace needs confirmation")

	executeJSON(t, &seeded, "seed", "--replace", "--yes")
	executeJSON(t, &seeded, "list")
	assert.Equal(t, 5, seeded.TotalCount)
}

func TestStatsSinceRejectsGarbage(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "stats", "--since", "the dawn of time")
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
}

// =============================================================================
// Export and Import Tests
// =============================================================================

func TestExportImport(t *testing.T) {
	setupCLI(t)

	createAlarm(t, "7am", "-l", "Work", "-d", "weekdays")
	createAlarm(t, "9am", "-l", "Weekend", "-d", "weekends")

	dir := t.TempDir()
	file := filepath.Join(dir, "alarms.yaml")
	_, err := execute(t, "export", "-o", file)
	require.NoError(t, err)
	require.FileExists(t, file)

	_, err = execute(t, "delete", "work", "--yes")
	require.NoError(t, err)

	var resp map[string]interface{}
	executeJSON(t, &resp, "import", file, "--replace")
	assert.Equal(t, "imported", resp["status"])
	assert.EqualValues(t, 2, resp["imported"])

	var list output.AlarmsResponse
	executeJSON(t, &list, "list")
	require.Len(t, list.Alarms, 2)
	assert.Equal(t, "Work", list.Alarms[0].Label)
	assert.Len(t, list.Alarms[0].NotificationIDs, 5)
}

func TestExportICalToDirectory(t *testing.T) {
	setupCLI(t)

	createAlarm(t, "7am", "-l", "Work", "-d", "weekdays")

	dir := t.TempDir()
	_, err := execute(t, "export", "work", "--as", "ical", "-o", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "Work.ics"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.Contains(t, string(data), "BYDAY=")
}

func TestImportDryRun(t *testing.T) {
	setupCLI(t)

	createAlarm(t, "7am", "-l", "Work")
	file := filepath.Join(t.TempDir(), "alarms.json")
	_, err := execute(t, "export", "-o", file)
	require.NoError(t, err)

	_, err = execute(t, "delete", "work", "--yes")
	require.NoError(t, err)

	var preview output.AlarmsResponse
	executeJSON(t, &preview, "import", file, "--dry-run")
	assert.Len(t, preview.Alarms, 1)

	var list output.AlarmsResponse
	executeJSON(t, &list, "list")
	assert.Empty(t, list.Alarms)
}

// =============================================================================
// Misc Command Tests
// =============================================================================

func TestVersion(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "waketime dev")
}

func TestSounds(t *testing.T) {
	setupCLI(t)

	var resp struct {
		Default string `json:"default"`
		Sounds  []struct {
			ID string `json:"id"`
		} `json:"sounds"`
	}
	executeJSON(t, &resp, "sounds")
	assert.NotEmpty(t, resp.Default)
	assert.NotEmpty(t, resp.Sounds)
}

func TestConfigShow(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "escalation_timeout: 2m0s")
	assert.Contains(t, out, "driver: badger")
}

func TestBadFormatFlag(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "list", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
}

func TestReportJSON(t *testing.T) {
	setupCLI(t)

	var buf bytes.Buffer
	stdout = &buf
	flagFormat = "json"
	t.Cleanup(func() { flagFormat = "cli" })

	code := report(errors.NewUserError("Nothing is ringing", "Name an alarm"))
	assert.Equal(t, 2, code)

	var resp output.ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "Nothing is ringing", resp.Message)
}
