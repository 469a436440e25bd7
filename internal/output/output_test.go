package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Formatter Tests
// =============================================================================

func TestFormatterWrites(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf}

	f.Print("ring")
	f.Println(" now")
	f.Printf("%d snoozes", 3)
	assert.Equal(t, "ring now\n3 snoozes", buf.String())

	buf.Reset()
	require.NoError(t, f.PrintJSON(map[string]int{"snooze_count": 2}))
	assert.Contains(t, buf.String(), `"snooze_count": 2`)
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestFormatterDefaults(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.False(t, f.IsJSON())
	assert.True(t, (&Formatter{Format: FormatJSON}).IsJSON())
}

func TestFormatterIsColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, (&Formatter{Writer: &buf, ColorMode: ColorAlways}).IsColorEnabled())
	assert.False(t, (&Formatter{Writer: &buf, ColorMode: ColorNever}).IsColorEnabled())
	// a buffer is never a terminal
	assert.False(t, (&Formatter{Writer: &buf, ColorMode: ColorAuto}).IsColorEnabled())
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		in     string
		format Format
		ok     bool
	}{
		{"", FormatCLI, true},
		{"json", FormatJSON, true},
		{"plain", FormatPlain, true},
		{"xml", "", false},
	}
	for _, tt := range tests {
		f, ok := ParseFormat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.format, f, tt.in)
	}

	m, ok := ParseColorMode("never")
	assert.True(t, ok)
	assert.Equal(t, ColorNever, m)
	m, ok = ParseColorMode("")
	assert.True(t, ok)
	assert.Equal(t, ColorAuto, m)
	_, ok = ParseColorMode("sometimes")
	assert.False(t, ok)
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                                "0s",
		45 * time.Second:                 "45s",
		9 * time.Minute:                  "9m",
		90 * time.Second:                 "1m 30s",
		time.Hour:                        "1h",
		90 * time.Minute:                 "1h 30m",
		8*time.Hour + 30*time.Minute + 5: "8h 30m",
		1500 * time.Millisecond:          "1s",
	}
	for d, want := range tests {
		assert.Equal(t, want, FormatDuration(d), d.String())
	}
}

func TestFormatTimestamps(t *testing.T) {
	tm := time.Date(2024, 1, 15, 14, 30, 45, 0, time.Local)
	assert.Equal(t, "2024-01-15 14:30:45", FormatTime(tm))
	assert.Equal(t, "2024-01-15", FormatDate(tm))
}

// =============================================================================
// CLIFormatter Tests
// =============================================================================

func TestCLIFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	cli := NewCLIFormatter(&Formatter{Writer: &buf, ColorMode: ColorNever})

	cli.Title("Alarms")
	cli.Success("Alarm created")
	cli.Warning("Daemon not running")
	cli.Error("Store busy")
	cli.Muted("hint")
	out := buf.String()

	assert.Contains(t, out, "Alarms")
	assert.Contains(t, out, "✓ Alarm created")
	assert.Contains(t, out, "⚠ Daemon not running")
	assert.Contains(t, out, "✗ Store busy")
	assert.Contains(t, out, "hint")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(0, 10))
	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10))
	assert.Equal(t, "██████████", ProgressBar(100, 10))
	for _, pct := range []float64{150, -10, 75} {
		assert.Len(t, []rune(ProgressBar(pct, 20)), 20)
	}
}

func TestCLIFormatterPrintTable(t *testing.T) {
	var buf bytes.Buffer
	cli := NewCLIFormatter(&Formatter{Writer: &buf, ColorMode: ColorNever})

	cli.PrintTable([]string{"LABEL", "TIME"}, []TableRow{
		{Columns: []string{"Work", "7:00 AM"}},
		{Columns: []string{"Gym", "6:30 AM"}},
	})
	out := buf.String()
	for _, s := range []string{"LABEL", "TIME", "Work", "6:30 AM", "─"} {
		assert.Contains(t, out, s)
	}

	buf.Reset()
	cli.PrintTable([]string{"LABEL"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// Alarm Rendering Tests
// =============================================================================

// Sunday evening.
var fixedNow = time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC)

func testAlarm() *model.Alarm {
	a := model.NewAlarm("Work",
		model.TimeOfDay{Hour: 7, Minute: 0},
		model.ScheduleOf(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		9)
	a.CreatedAt = fixedNow.Add(-48 * time.Hour)
	return a
}

func withHistory(a *model.Alarm) *model.Alarm {
	day := func(n int) time.Time { return time.Date(2024, 1, n, 7, 0, 0, 0, time.UTC) }
	dismissed := func(t time.Time) *time.Time { return &t }

	a.History = []model.TriggerEvent{
		{
			ID:               "ev-2",
			TriggeredAt:      day(5),
			SnoozeTimestamps: []time.Time{day(5).Add(time.Minute), day(5).Add(10 * time.Minute), day(5).Add(19 * time.Minute)},
			SnoozeCount:      3,
			Status:           model.StatusDismissed,
			DismissedAt:      dismissed(day(5).Add(30 * time.Minute)),
		},
		{
			ID:               "ev-1",
			TriggeredAt:      day(4),
			SnoozeTimestamps: []time.Time{},
			Status:           model.StatusDismissed,
			DismissedAt:      dismissed(day(4).Add(2 * time.Minute)),
		},
	}
	return a
}

func newTestCLI(buf *bytes.Buffer) *CLIFormatter {
	f := &Formatter{Writer: buf, ColorMode: ColorNever}
	return NewCLIFormatter(f).WithClock(func() time.Time { return fixedNow })
}

func TestCLIFormatterPrintAlarmSaved(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	cli.PrintAlarmSaved("Created", testAlarm())
	out := buf.String()

	assert.Contains(t, out, "Created alarm 7:00 AM Work")
	assert.Contains(t, out, "Repeats: M-F")
	assert.Contains(t, out, "in 11h 0m")
}

func TestCLIFormatterPrintAlarmSavedDisabled(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	a := testAlarm()
	a.Enabled = false
	cli.PrintAlarmSaved("Updated", a)

	assert.Contains(t, buf.String(), "Disabled")
	assert.NotContains(t, buf.String(), "Next:")
}

func TestCLIFormatterPrintAlarm(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	a := withHistory(testAlarm())
	cli.PrintAlarm(a)
	out := buf.String()

	assert.Contains(t, out, a.ID)
	assert.Contains(t, out, "Gentle Chime")
	assert.Contains(t, out, "Snooze:   9 min")
	assert.Contains(t, out, "Triggered 2 times")
	assert.NotContains(t, out, "Ringing")
}

func TestCLIFormatterPrintAlarmRinging(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	a := testAlarm()
	a.History = []model.TriggerEvent{model.NewTriggerEvent(fixedNow.Add(-5*time.Minute), model.SourceScheduled)}
	cli.PrintAlarm(a)

	assert.Contains(t, buf.String(), "⚠ Ringing since Today 7:55 PM (active, 0 snoozes)")
}

func TestCLIFormatterPrintAlarms(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		newTestCLI(&buf).PrintAlarms(nil)
		assert.Contains(t, buf.String(), "No alarms yet.")
	})

	t.Run("rows", func(t *testing.T) {
		var buf bytes.Buffer
		cli := newTestCLI(&buf)

		off := testAlarm()
		off.Label = "Gym"
		off.Enabled = false
		cli.PrintAlarms([]*model.Alarm{testAlarm(), off})
		out := buf.String()

		assert.Contains(t, out, "LABEL")
		assert.Contains(t, out, "Work")
		assert.Contains(t, out, "Gym")
		assert.Contains(t, out, "M-F")
		assert.Contains(t, out, "in 11h 0m")
		assert.Contains(t, out, "off")
	})
}

func TestCLIFormatterPrintUpcoming(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	occ := clock.Upcoming([]*model.Alarm{testAlarm()}, fixedNow, 3)
	require.Len(t, occ, 1)
	cli.PrintUpcoming(occ)

	assert.Contains(t, buf.String(), "Jan 8 7:00 AM")
	assert.Contains(t, buf.String(), "in 11h 0m")

	buf.Reset()
	cli.PrintUpcoming(nil)
	assert.Contains(t, buf.String(), "No upcoming alarms.")
}

func TestCLIFormatterPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	cli.PrintHistory(stats.Timeline([]*model.Alarm{withHistory(testAlarm())}, stats.Window{}))
	out := buf.String()

	assert.Contains(t, out, "Jan 5 7:00 AM")
	assert.Contains(t, out, "dismissed")
	assert.Contains(t, out, "30m")
	assert.Contains(t, out, "2m")
}

func TestCLIFormatterPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	cli.PrintSummary(stats.Overall([]*model.Alarm{withHistory(testAlarm())}, stats.Window{}))
	out := buf.String()

	assert.Contains(t, out, "Alarms triggered:   2")
	assert.Contains(t, out, "Total snoozes:      3")
	assert.Contains(t, out, "Average snoozes:    1.5")
	assert.Contains(t, out, "Perfect wake-ups:   1")
	assert.Contains(t, out, "Time to dismiss:    16.0 min avg")
	assert.Contains(t, out, "Most snoozed:       Work (3)")
	assert.Contains(t, out, "██████████░░░░░░░░░░ 1")

	buf.Reset()
	cli.PrintSummary(stats.Summary{})
	assert.Contains(t, buf.String(), "No alarms have gone off yet.")
}

func TestCLIFormatterPrintSounds(t *testing.T) {
	var buf bytes.Buffer
	cli := newTestCLI(&buf)

	cli.PrintSounds(model.Sounds())
	assert.Contains(t, buf.String(), "* gentle-chime")
	assert.Contains(t, buf.String(), "  beep")
}

// =============================================================================
// JSONFormatter Tests
// =============================================================================

func TestNewAlarmOutput(t *testing.T) {
	a := withHistory(testAlarm())
	out := NewAlarmOutput(a, fixedNow)

	assert.Equal(t, a.ID, out.ID)
	assert.Equal(t, "07:00", out.Time)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, out.Days)
	assert.Equal(t, "M-F", out.Repeats)
	assert.Equal(t, model.DefaultSound, out.Sound)
	assert.Equal(t, 9, out.SnoozeMinutes)
	assert.Equal(t, "2024-01-08T07:00:00Z", out.NextAt)
	assert.Equal(t, 2, out.Events)

	a.Enabled = false
	assert.Empty(t, NewAlarmOutput(a, fixedNow).NextAt)
}

func TestJSONFormatterPrintAlarms(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	off := testAlarm()
	off.Enabled = false
	require.NoError(t, j.PrintAlarms([]*model.Alarm{testAlarm(), off}, fixedNow))

	var resp AlarmsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, 1, resp.Enabled)
	assert.Len(t, resp.Alarms, 2)
}

func TestJSONFormatterPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	a := withHistory(testAlarm())
	require.NoError(t, j.PrintEvent("dismissed", a, a.History[0]))

	var resp EventResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "dismissed", resp.Status)
	assert.Equal(t, a.ID, resp.AlarmID)
	assert.Equal(t, "ev-2", resp.Event.ID)
	assert.Equal(t, 3, resp.Event.SnoozeCount)
	assert.Len(t, resp.Event.SnoozeTimestamps, 3)
	assert.Equal(t, int64(1800), resp.Event.SecondsToDismiss)
	assert.Equal(t, "many", resp.Event.Level)
}

func TestJSONFormatterPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintHistory(stats.Timeline([]*model.Alarm{withHistory(testAlarm())}, stats.Window{})))

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, "ev-2", resp.Events[0].ID)
	assert.Equal(t, "none", resp.Events[1].Level)
}

func TestJSONFormatterPrintUpcoming(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	occ := clock.Upcoming([]*model.Alarm{testAlarm()}, fixedNow, 0)
	require.NoError(t, j.PrintUpcoming(occ, fixedNow))

	var resp NextResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Upcoming, 1)
	assert.Equal(t, int64(11*3600), resp.Upcoming[0].InSecs)
}

func TestJSONFormatterPrintStats(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	alarms := []*model.Alarm{withHistory(testAlarm())}
	w := stats.Window{Since: fixedNow.AddDate(0, 0, -7)}
	require.NoError(t, j.PrintStats(w, stats.Overall(alarms, w), stats.PerAlarm(alarms, w)))

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "2023-12-31T20:00:00Z", resp.Since)
	assert.Equal(t, 2, resp.Summary.TotalEvents)
	require.Len(t, resp.Alarms, 1)
	assert.Equal(t, 0, resp.Alarms[0].Streak)
}

func TestJSONFormatterPrintError(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSONFormatter(&Formatter{Writer: &buf})

	require.NoError(t, j.PrintError("error", "not_found", "alarm not found: abc", "Run 'waketime list'"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
	assert.Equal(t, "Run 'waketime list'", resp.Suggestion)
}
