package clock

import (
	"sort"
	"strings"
	"time"

	"github.com/manav03panchal/waketime/internal/model"
)

var dayAbbrev = map[time.Weekday]string{
	time.Monday:    "M",
	time.Tuesday:   "T",
	time.Wednesday: "W",
	time.Thursday:  "Th",
	time.Friday:    "F",
	time.Saturday:  "Sa",
	time.Sunday:    "Su",
}

// DayAbbrev returns the short display form of a weekday.
func DayAbbrev(d time.Weekday) string {
	return dayAbbrev[d]
}

// Schedule presets.
const (
	PresetWeekdays = "weekdays"
	PresetWeekends = "weekends"
	PresetDaily    = "daily"
	PresetNever    = "never"
)

var presets = map[string]model.Schedule{
	PresetWeekdays: model.ScheduleOf(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
	PresetWeekends: model.ScheduleOf(time.Saturday, time.Sunday),
	PresetDaily:    model.ScheduleOf(model.WeekOrder...),
	PresetNever:    {},
}

// Preset returns a named schedule preset.
func Preset(name string) (model.Schedule, bool) {
	s, ok := presets[strings.ToLower(name)]
	return s, ok
}

// PresetNames lists the preset names alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetName returns the display name of the preset a schedule matches,
// or "" for a custom schedule. The empty schedule is not reported as a preset.
func PresetName(s model.Schedule) string {
	switch s {
	case presets[PresetWeekdays]:
		return "Weekdays"
	case presets[PresetWeekends]:
		return "Weekends"
	case presets[PresetDaily]:
		return "Daily"
	}
	return ""
}

// FormatSchedule renders a schedule for lists: "Never", "Daily", "M-F",
// "Weekends", or the enabled day abbreviations ("M W F").
func FormatSchedule(s model.Schedule) string {
	days := s.Days()
	switch {
	case len(days) == 0:
		return "Never"
	case len(days) == 7:
		return "Daily"
	case s == presets[PresetWeekdays]:
		return "M-F"
	case s == presets[PresetWeekends]:
		return "Weekends"
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = dayAbbrev[d]
	}
	return strings.Join(parts, " ")
}
