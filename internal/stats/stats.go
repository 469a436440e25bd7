// Package stats derives snooze statistics from alarm histories.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
)

// SnoozeLevel buckets an event by how many times it was snoozed.
type SnoozeLevel string

// Snooze levels.
const (
	LevelNone SnoozeLevel = "none" // 0
	LevelSome SnoozeLevel = "some" // 1-2
	LevelMany SnoozeLevel = "many" // 3+
)

// Level returns the bucket for a snooze count.
func Level(snoozes int) SnoozeLevel {
	switch {
	case snoozes <= 0:
		return LevelNone
	case snoozes <= 2:
		return LevelSome
	default:
		return LevelMany
	}
}

// Worst names the alarm with the most snoozes.
type Worst struct {
	AlarmID string `json:"alarm_id"`
	Label   string `json:"label"`
	Snoozes int    `json:"snoozes"`
}

// Summary aggregates a set of trigger events.
type Summary struct {
	TotalEvents         int                 `json:"total_events"`
	TotalSnoozes        int                 `json:"total_snoozes"`
	AvgSnoozes          float64             `json:"avg_snoozes"`
	Dismissed           int                 `json:"dismissed"`
	AvgMinutesToDismiss float64             `json:"avg_minutes_to_dismiss"`
	PerfectWakeUps      int                 `json:"perfect_wake_ups"`
	Levels              map[SnoozeLevel]int `json:"levels"`
	Worst               *Worst              `json:"worst_alarm,omitempty"`
}

// AlarmStats is a Summary for one alarm.
type AlarmStats struct {
	Summary
	AlarmID       string     `json:"alarm_id"`
	Label         string     `json:"label"`
	Time          string     `json:"time"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
	Streak        int        `json:"streak"`
}

// Entry is one event in the cross-alarm timeline.
type Entry struct {
	AlarmID    string             `json:"alarm_id"`
	AlarmLabel string             `json:"alarm_label"`
	AlarmTime  model.TimeOfDay    `json:"alarm_time"`
	Event      model.TriggerEvent `json:"event"`
	Level      SnoozeLevel        `json:"level"`
}

// Window restricts statistics to events triggered at or after Since.
// The zero Window includes everything.
type Window struct {
	Since time.Time
}

// Includes reports whether an event falls inside the window.
func (w Window) Includes(e model.TriggerEvent) bool {
	return w.Since.IsZero() || !e.TriggeredAt.Before(w.Since)
}

func (w Window) events(a *model.Alarm) []model.TriggerEvent {
	out := make([]model.TriggerEvent, 0, len(a.History))
	for _, e := range a.History {
		if w.Includes(e) {
			out = append(out, e)
		}
	}
	return out
}

// Overall summarizes every event of every alarm in the window.
func Overall(alarms []*model.Alarm, w Window) Summary {
	timeline := Timeline(alarms, w)
	events := make([]model.TriggerEvent, 0, len(timeline))
	for _, entry := range timeline {
		events = append(events, entry.Event)
	}
	s := summarize(events)

	// ties go to the alarm whose events appear first, newest first
	var worst *Worst
	perAlarm := map[string]*Worst{}
	var order []string
	for _, entry := range timeline {
		wa, ok := perAlarm[entry.AlarmID]
		if !ok {
			wa = &Worst{AlarmID: entry.AlarmID, Label: entry.AlarmLabel}
			perAlarm[entry.AlarmID] = wa
			order = append(order, entry.AlarmID)
		}
		wa.Snoozes += entry.Event.SnoozeCount
	}
	for _, id := range order {
		if wa := perAlarm[id]; wa.Snoozes > 0 && (worst == nil || wa.Snoozes > worst.Snoozes) {
			worst = wa
		}
	}
	s.Worst = worst
	return s
}

// ForAlarm summarizes one alarm.
func ForAlarm(a *model.Alarm, w Window) AlarmStats {
	events := w.events(a)
	st := AlarmStats{
		Summary: summarize(events),
		AlarmID: a.ID,
		Label:   a.Label,
		Time:    clock.FormatTimeOfDay(a.Time),
		Streak:  Streak(events),
	}
	if len(events) > 0 {
		last := events[0].TriggeredAt
		for _, e := range events[1:] {
			if e.TriggeredAt.After(last) {
				last = e.TriggeredAt
			}
		}
		st.LastTriggered = &last
	}
	return st
}

// PerAlarm summarizes each alarm, ordered by time of day.
func PerAlarm(alarms []*model.Alarm, w Window) []AlarmStats {
	sorted := append([]*model.Alarm(nil), alarms...)
	clock.SortByTime(sorted)
	out := make([]AlarmStats, 0, len(sorted))
	for _, a := range sorted {
		out = append(out, ForAlarm(a, w))
	}
	return out
}

// Timeline lists the events of all alarms newest first.
func Timeline(alarms []*model.Alarm, w Window) []Entry {
	var out []Entry
	for _, a := range alarms {
		for _, e := range w.events(a) {
			out = append(out, Entry{
				AlarmID:    a.ID,
				AlarmLabel: a.Label,
				AlarmTime:  a.Time,
				Event:      e,
				Level:      Level(e.SnoozeCount),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Event.TriggeredAt.After(out[j].Event.TriggeredAt)
	})
	return out
}

// Streak counts consecutive dismissed events without a snooze, starting
// from the newest. Events still ringing are skipped.
func Streak(events []model.TriggerEvent) int {
	sorted := append([]model.TriggerEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TriggeredAt.After(sorted[j].TriggeredAt)
	})

	streak := 0
	for _, e := range sorted {
		if !e.IsResolved() {
			if streak == 0 {
				continue
			}
			break
		}
		if e.SnoozeCount > 0 {
			break
		}
		streak++
	}
	return streak
}

func summarize(events []model.TriggerEvent) Summary {
	s := Summary{
		TotalEvents: len(events),
		Levels:      map[SnoozeLevel]int{LevelNone: 0, LevelSome: 0, LevelMany: 0},
	}
	var dismissTotal time.Duration
	for _, e := range events {
		s.TotalSnoozes += e.SnoozeCount
		s.Levels[Level(e.SnoozeCount)]++
		if d, ok := e.TimeToDismiss(); ok {
			s.Dismissed++
			dismissTotal += d
			if e.SnoozeCount == 0 {
				s.PerfectWakeUps++
			}
		}
	}
	if s.TotalEvents > 0 {
		s.AvgSnoozes = round1(float64(s.TotalSnoozes) / float64(s.TotalEvents))
	}
	if s.Dismissed > 0 {
		s.AvgMinutesToDismiss = round1(dismissTotal.Minutes() / float64(s.Dismissed))
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
