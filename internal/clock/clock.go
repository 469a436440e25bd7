// Package clock holds the pure time and schedule helpers used across waketime:
// 12-hour formatting, weekday arithmetic and next-occurrence computation.
package clock

import (
	"fmt"
	"sort"
	"time"

	"github.com/manav03panchal/waketime/internal/model"
)

// lookahead is the number of calendar days after today scanned for the next
// occurrence. Eight candidates (today plus seven) always reach today's weekday
// again when today's slot has already passed.
const lookahead = 7

// FormatTime renders a 12-hour clock time such as "7:05 AM" or "12:00 PM".
func FormatTime(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, period)
}

// FormatTimeOfDay is FormatTime for a model.TimeOfDay.
func FormatTimeOfDay(t model.TimeOfDay) string {
	return FormatTime(t.Hour, t.Minute)
}

// CompareTimes orders two times of day, returning -1, 0 or 1.
func CompareTimes(a, b model.TimeOfDay) int {
	switch {
	case a.Hour < b.Hour:
		return -1
	case a.Hour > b.Hour:
		return 1
	case a.Minute < b.Minute:
		return -1
	case a.Minute > b.Minute:
		return 1
	}
	return 0
}

// NextOccurrence returns the first instant strictly after now at which an alarm
// with the given time and schedule would ring, evaluated in now's location.
// It returns false when the schedule has no enabled day.
func NextOccurrence(at model.TimeOfDay, schedule model.Schedule, now time.Time) (time.Time, bool) {
	if !schedule.Any() {
		return time.Time{}, false
	}
	for i := 0; i <= lookahead; i++ {
		candidate := time.Date(now.Year(), now.Month(), now.Day()+i, at.Hour, at.Minute, 0, 0, now.Location())
		if !schedule.On(candidate.Weekday()) {
			continue
		}
		if candidate.After(now) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// PreviousOccurrence returns the latest scheduled instant at or before now
// within the past week.
func PreviousOccurrence(at model.TimeOfDay, schedule model.Schedule, now time.Time) (time.Time, bool) {
	if !schedule.Any() {
		return time.Time{}, false
	}
	for i := 0; i <= lookahead; i++ {
		candidate := time.Date(now.Year(), now.Month(), now.Day()-i, at.Hour, at.Minute, 0, 0, now.Location())
		if schedule.On(candidate.Weekday()) && !candidate.After(now) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// Occurrence is one upcoming ring of an alarm.
type Occurrence struct {
	AlarmID string    `json:"alarm_id"`
	Label   string    `json:"label"`
	At      time.Time `json:"at"`
}

// Upcoming returns the next ring of every enabled alarm, soonest first,
// limited to n entries when n > 0.
func Upcoming(alarms []*model.Alarm, now time.Time, n int) []Occurrence {
	var out []Occurrence
	for _, a := range alarms {
		if !a.Enabled {
			continue
		}
		if at, ok := NextOccurrence(a.Time, a.Schedule, now); ok {
			out = append(out, Occurrence{AlarmID: a.ID, Label: a.Label, At: at})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SortByTime orders alarms by time of day, then label.
func SortByTime(alarms []*model.Alarm) {
	sort.SliceStable(alarms, func(i, j int) bool {
		if c := CompareTimes(alarms[i].Time, alarms[j].Time); c != 0 {
			return c < 0
		}
		return alarms[i].Label < alarms[j].Label
	})
}

// FormatTriggerDate renders an event time relative to now:
// "Today 7:00 AM", "Yesterday 9:05 AM" or "Jan 15 7:00 AM".
func FormatTriggerDate(t, now time.Time) string {
	t = t.In(now.Location())
	hm := FormatTime(t.Hour(), t.Minute())

	today := startOfDay(now)
	day := startOfDay(t)
	switch {
	case day.Equal(today):
		return "Today " + hm
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday " + hm
	}
	return fmt.Sprintf("%s %d %s", t.Format("Jan"), t.Day(), hm)
}

// Until renders the time left before t in a compact form ("in 8h 12m").
func Until(now, t time.Time) string {
	d := t.Sub(now)
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Minute)
	days := int(d / (24 * time.Hour))
	hours := int(d%(24*time.Hour)) / int(time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("in %dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("in %dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("in %dm", minutes)
	}
	return "in <1m"
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
