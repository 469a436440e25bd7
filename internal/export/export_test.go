package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
)

// Sunday 2024-01-07 20:00 UTC
var fixedNow = time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC)

func sampleAlarms() []*model.Alarm {
	dismissed := time.Date(2024, 1, 5, 7, 30, 0, 0, time.UTC)
	work := &model.Alarm{
		ID:              "alarm-work",
		Label:           "Work",
		Time:            model.TimeOfDay{Hour: 7},
		Schedule:        model.ScheduleOf(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		Sound:           "beep",
		Enabled:         true,
		SnoozeSettings:  model.SnoozeSettings{Duration: 9},
		NotificationIDs: []string{"n1", "n2"},
		CreatedAt:       time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		History: []model.TriggerEvent{
			{
				ID:               "ev-1",
				TriggeredAt:      time.Date(2024, 1, 5, 7, 0, 0, 0, time.UTC),
				SnoozeCount:      1,
				SnoozeTimestamps: []time.Time{time.Date(2024, 1, 5, 7, 1, 0, 0, time.UTC)},
				DismissedAt:      &dismissed,
				Status:           model.StatusDismissed,
				Source:           model.SourceScheduled,
			},
		},
	}
	gym := &model.Alarm{
		ID:              "alarm-gym",
		Label:           "Gym",
		Time:            model.TimeOfDay{Hour: 18, Minute: 30},
		Schedule:        model.ScheduleOf(time.Saturday),
		Enabled:         false,
		SnoozeSettings:  model.SnoozeSettings{Duration: 5},
		NotificationIDs: []string{},
		CreatedAt:       time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		History:         []model.TriggerEvent{},
	}
	return []*model.Alarm{work, gym}
}

// =============================================================================
// Format Tests
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"", FormatJSON},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{".yml", FormatYAML},
		{"yaml", FormatYAML},
		{"ics", FormatICal},
		{"ical", FormatICal},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("/tmp/alarms.yaml")
	assert.True(t, ok)
	assert.Equal(t, FormatYAML, f)

	f, ok = FormatFromPath("alarms.ics")
	assert.True(t, ok)
	assert.Equal(t, FormatICal, f)

	_, ok = FormatFromPath("alarms")
	assert.False(t, ok)
	_, ok = FormatFromPath("alarms.txt")
	assert.False(t, ok)
}

// =============================================================================
// Document Tests
// =============================================================================

func TestNewDocumentStripsRegistrations(t *testing.T) {
	alarms := sampleAlarms()
	doc := NewDocument(alarms, fixedNow)

	assert.Equal(t, Version, doc.Version)
	require.Len(t, doc.Alarms, 2)
	assert.Empty(t, doc.Alarms[0].NotificationIDs)
	// the source alarms are untouched
	assert.Equal(t, []string{"n1", "n2"}, alarms[0].NotificationIDs)
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, NewDocument(sampleAlarms(), fixedNow), format))

			got, err := Read(&buf, format)
			require.NoError(t, err)
			require.Len(t, got, 2)

			work := got[0]
			assert.Equal(t, "alarm-work", work.ID)
			assert.Equal(t, "Work", work.Label)
			assert.Equal(t, model.TimeOfDay{Hour: 7}, work.Time)
			assert.True(t, work.Schedule.On(time.Friday))
			assert.False(t, work.Schedule.On(time.Sunday))
			assert.Equal(t, 9, work.SnoozeSettings.Duration)
			assert.Empty(t, work.NotificationIDs)
			require.Len(t, work.History, 1)
			assert.Equal(t, model.StatusDismissed, work.History[0].Status)
			require.NotNil(t, work.History[0].DismissedAt)
			assert.True(t, work.History[0].DismissedAt.Equal(time.Date(2024, 1, 5, 7, 30, 0, 0, time.UTC)))

			assert.False(t, got[1].Enabled)
			assert.NotNil(t, got[1].History)
		})
	}
}

func TestReadBareList(t *testing.T) {
	input := `[{"id":"a1","label":"Nap","time":{"hour":13,"minute":15},"schedule":{"sunday":true},"enabled":true,"snooze_settings":{"duration":5},"notification_ids":["stale"]}]`

	got, err := Read(strings.NewReader(input), FormatJSON)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nap", got[0].Label)
	assert.Equal(t, 15, got[0].Time.Minute)
	assert.Empty(t, got[0].NotificationIDs)
	assert.NotNil(t, got[0].History)

	yamlList := "- id: a2\n  label: Late\n  time:\n    hour: 23\n    minute: 0\n  enabled: true\n"
	got, err = Read(strings.NewReader(yamlList), FormatYAML)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 23, got[0].Time.Hour)
}

func TestReadEmptyAndInvalid(t *testing.T) {
	got, err := Read(strings.NewReader("  \n"), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Read(strings.NewReader("{not json"), FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))

	_, err = Read(strings.NewReader("BEGIN:VCALENDAR"), FormatICal)
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))
}

// =============================================================================
// iCalendar Tests
// =============================================================================

func TestRecurrenceRule(t *testing.T) {
	a := sampleAlarms()[0]

	rule, ok := RecurrenceRule(a, fixedNow)
	require.True(t, ok)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR", rule.RRuleString())
	assert.Equal(t, time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC), rule.Dtstart)

	never := a.Clone()
	never.Schedule = model.Schedule{}
	_, ok = RecurrenceRule(never, fixedNow)
	assert.False(t, ok)
}

func TestRecurrenceRuleMatchesNextOccurrence(t *testing.T) {
	a := sampleAlarms()[0]
	rule, ok := RecurrenceRule(a, fixedNow)
	require.True(t, ok)

	r, err := rrule.NewRRule(*rule)
	require.NoError(t, err)

	// walk two weeks of rings and compare with the scheduler's own math
	at := fixedNow
	for i := 0; i < 10; i++ {
		want, ok := clock.NextOccurrence(a.Time, a.Schedule, at)
		require.True(t, ok)
		got := r.After(at, false)
		assert.True(t, want.Equal(got), "ring %d: want %s got %s", i, want, got)
		at = want
	}
}

func TestWriteICal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteICal(&buf, sampleAlarms(), fixedNow))

	text := buf.String()
	assert.Contains(t, text, "BEGIN:VCALENDAR")
	assert.Contains(t, text, "PRODID:"+ProductID)
	assert.Contains(t, text, "RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR")
	assert.Contains(t, text, "DTSTART:20240108T070000")
	assert.Contains(t, text, "BEGIN:VALARM")
	// disabled alarms are not exported
	assert.NotContains(t, text, "Gym")

	cal, err := ical.NewDecoder(strings.NewReader(text)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	summary, err := events[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Work", summary)

	rr := events[0].Props.Get(ical.PropRecurrenceRule)
	require.NotNil(t, rr)
	opt, err := rrule.StrToROption(rr.Value)
	require.NoError(t, err)
	assert.Equal(t, rrule.WEEKLY, opt.Freq)
	assert.Len(t, opt.Byweekday, 5)
}

func TestWriteViaFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewDocument(sampleAlarms(), fixedNow), FormatICal))
	assert.Contains(t, buf.String(), "END:VCALENDAR")
}
