package model

import "time"

// WeekOrder lists weekdays Monday first, the order schedules are displayed in.
var WeekOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Schedule is the weekly activation mask of an alarm. Every weekday is
// always present.
type Schedule struct {
	Monday    bool `json:"monday" yaml:"monday"`
	Tuesday   bool `json:"tuesday" yaml:"tuesday"`
	Wednesday bool `json:"wednesday" yaml:"wednesday"`
	Thursday  bool `json:"thursday" yaml:"thursday"`
	Friday    bool `json:"friday" yaml:"friday"`
	Saturday  bool `json:"saturday" yaml:"saturday"`
	Sunday    bool `json:"sunday" yaml:"sunday"`
}

// ScheduleOf builds a schedule with the given days enabled.
func ScheduleOf(days ...time.Weekday) Schedule {
	var s Schedule
	for _, d := range days {
		s.Set(d, true)
	}
	return s
}

// On reports whether the schedule is active on the given weekday.
func (s Schedule) On(d time.Weekday) bool {
	switch d {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	case time.Sunday:
		return s.Sunday
	}
	return false
}

// Set enables or disables a weekday.
func (s *Schedule) Set(d time.Weekday, on bool) {
	switch d {
	case time.Monday:
		s.Monday = on
	case time.Tuesday:
		s.Tuesday = on
	case time.Wednesday:
		s.Wednesday = on
	case time.Thursday:
		s.Thursday = on
	case time.Friday:
		s.Friday = on
	case time.Saturday:
		s.Saturday = on
	case time.Sunday:
		s.Sunday = on
	}
}

// Days returns the enabled weekdays, Monday first.
func (s Schedule) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, d := range WeekOrder {
		if s.On(d) {
			days = append(days, d)
		}
	}
	return days
}

// Count returns the number of enabled weekdays.
func (s Schedule) Count() int {
	return len(s.Days())
}

// Any reports whether at least one weekday is enabled.
func (s Schedule) Any() bool {
	return s.Count() > 0
}
