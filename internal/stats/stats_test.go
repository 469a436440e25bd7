package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waketime/internal/model"
)

var base = time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)

// event builds an event triggered daysAgo before base with the given
// snoozes, dismissed after dismissAfter (zero leaves it ringing).
func event(daysAgo, snoozes int, dismissAfter time.Duration) model.TriggerEvent {
	at := base.AddDate(0, 0, -daysAgo)
	e := model.NewTriggerEvent(at, model.SourceScheduled)
	for i := 0; i < snoozes; i++ {
		e.Apply(model.SnoozePatch(e, at.Add(time.Duration(i+1)*time.Minute)))
	}
	if dismissAfter > 0 {
		e.Apply(model.DismissPatch(at.Add(dismissAfter)))
	}
	return e
}

func alarm(label string, hour int, events ...model.TriggerEvent) *model.Alarm {
	a := model.NewAlarm(label, model.TimeOfDay{Hour: hour}, model.ScheduleOf(time.Monday), 10)
	a.History = events
	return a
}

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel(t *testing.T) {
	tests := []struct {
		snoozes int
		want    SnoozeLevel
	}{
		{0, LevelNone},
		{1, LevelSome},
		{2, LevelSome},
		{3, LevelMany},
		{10, LevelMany},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.snoozes), "snoozes=%d", tt.snoozes)
	}
}

// =============================================================================
// Summary Tests
// =============================================================================

func TestOverall(t *testing.T) {
	work := alarm("Work", 7,
		event(0, 0, 2*time.Minute),
		event(1, 3, 10*time.Minute),
	)
	gym := alarm("Gym", 6,
		event(0, 1, 4*time.Minute),
		event(2, 0, 0),
	)

	s := Overall([]*model.Alarm{work, gym}, Window{})
	assert.Equal(t, 4, s.TotalEvents)
	assert.Equal(t, 4, s.TotalSnoozes)
	assert.Equal(t, 1.0, s.AvgSnoozes)
	assert.Equal(t, 3, s.Dismissed)
	assert.Equal(t, 5.3, s.AvgMinutesToDismiss)
	assert.Equal(t, 1, s.PerfectWakeUps)
	assert.Equal(t, map[SnoozeLevel]int{LevelNone: 2, LevelSome: 1, LevelMany: 1}, s.Levels)
	require.NotNil(t, s.Worst)
	assert.Equal(t, "Work", s.Worst.Label)
	assert.Equal(t, 3, s.Worst.Snoozes)
}

func TestOverallEmptyAndNoSnoozes(t *testing.T) {
	s := Overall(nil, Window{})
	assert.Zero(t, s.TotalEvents)
	assert.Zero(t, s.AvgSnoozes)
	assert.Nil(t, s.Worst)

	s = Overall([]*model.Alarm{alarm("Calm", 8, event(0, 0, time.Minute))}, Window{})
	assert.Nil(t, s.Worst, "no worst alarm when nobody snoozed")
}

func TestAvgSnoozesRounding(t *testing.T) {
	a := alarm("A", 7, event(0, 1, time.Minute), event(1, 0, time.Minute), event(2, 0, time.Minute))
	s := Overall([]*model.Alarm{a}, Window{})
	assert.Equal(t, 0.3, s.AvgSnoozes)
}

func TestWindow(t *testing.T) {
	a := alarm("Work", 7, event(0, 2, time.Minute), event(10, 5, time.Minute))
	w := Window{Since: base.AddDate(0, 0, -7)}

	s := Overall([]*model.Alarm{a}, w)
	assert.Equal(t, 1, s.TotalEvents)
	assert.Equal(t, 2, s.TotalSnoozes)

	assert.True(t, w.Includes(event(7, 0, 0)), "boundary is inclusive")
	assert.False(t, w.Includes(event(8, 0, 0)))
	assert.True(t, Window{}.Includes(event(400, 0, 0)))
}

// =============================================================================
// Per-Alarm Tests
// =============================================================================

func TestForAlarm(t *testing.T) {
	a := alarm("Work", 7,
		event(0, 0, time.Minute),
		event(1, 0, time.Minute),
		event(2, 1, time.Minute),
		event(3, 0, time.Minute),
	)
	st := ForAlarm(a, Window{})
	assert.Equal(t, a.ID, st.AlarmID)
	assert.Equal(t, "7:00 AM", st.Time)
	assert.Equal(t, 4, st.TotalEvents)
	assert.Equal(t, 2, st.Streak)
	require.NotNil(t, st.LastTriggered)
	assert.True(t, st.LastTriggered.Equal(base))

	empty := ForAlarm(alarm("New", 9), Window{})
	assert.Nil(t, empty.LastTriggered)
	assert.Zero(t, empty.Streak)
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name   string
		events []model.TriggerEvent
		want   int
	}{
		{"empty", nil, 0},
		{"all perfect", []model.TriggerEvent{event(0, 0, time.Minute), event(1, 0, time.Minute)}, 2},
		{"newest snoozed", []model.TriggerEvent{event(0, 1, time.Minute), event(1, 0, time.Minute)}, 0},
		{"ringing skipped", []model.TriggerEvent{event(0, 0, 0), event(1, 0, time.Minute)}, 1},
		{"unordered input", []model.TriggerEvent{event(2, 2, time.Minute), event(0, 0, time.Minute), event(1, 0, time.Minute)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.events))
		})
	}
}

func TestPerAlarmOrder(t *testing.T) {
	late := alarm("Late", 9)
	early := alarm("Early", 5)
	out := PerAlarm([]*model.Alarm{late, early}, Window{})
	require.Len(t, out, 2)
	assert.Equal(t, "Early", out[0].Label)
	assert.Equal(t, "Late", out[1].Label)
}

// =============================================================================
// Timeline Tests
// =============================================================================

func TestTimeline(t *testing.T) {
	work := alarm("Work", 7, event(0, 0, time.Minute), event(4, 3, time.Minute))
	gym := alarm("Gym", 6, event(2, 1, time.Minute))

	tl := Timeline([]*model.Alarm{work, gym}, Window{})
	require.Len(t, tl, 3)
	assert.Equal(t, "Work", tl[0].AlarmLabel)
	assert.Equal(t, "Gym", tl[1].AlarmLabel)
	assert.Equal(t, LevelSome, tl[1].Level)
	assert.Equal(t, "Work", tl[2].AlarmLabel)
	assert.Equal(t, LevelMany, tl[2].Level)
}
