package parser

import (
	"strings"
	"time"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
)

var dayNames = map[string]time.Weekday{
	"m": time.Monday, "mo": time.Monday, "mon": time.Monday, "monday": time.Monday,
	"t": time.Tuesday, "tu": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"w": time.Wednesday, "we": time.Wednesday, "wed": time.Wednesday, "wednesday": time.Wednesday,
	"th": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"f": time.Friday, "fr": time.Friday, "fri": time.Friday, "friday": time.Friday,
	"sa": time.Saturday, "sat": time.Saturday, "saturday": time.Saturday,
	"su": time.Sunday, "sun": time.Sunday, "sunday": time.Sunday,
}

// ParseDay parses a single day name or abbreviation.
func ParseDay(s string) (time.Weekday, bool) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// ParseDays parses a day set: a preset ("weekdays", "weekends", "daily"),
// a comma or space separated list ("mon,wed,fri"), ranges ("mon-fri",
// "fri-mon" wraps through the weekend) or any mix of those.
// The result always has at least one day.
func ParseDays(input string) (model.Schedule, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return model.Schedule{}, NewDaysError(input)
	}
	if preset, ok := clock.Preset(s); ok {
		if !preset.Any() {
			return model.Schedule{}, NewDaysError(input)
		}
		return preset, nil
	}

	var schedule model.Schedule
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '+' })
	for _, tok := range tokens {
		if preset, ok := clock.Preset(tok); ok {
			for _, d := range preset.Days() {
				schedule.Set(d, true)
			}
			continue
		}
		if from, to, found := strings.Cut(tok, "-"); found {
			start, ok1 := ParseDay(from)
			end, ok2 := ParseDay(to)
			if !ok1 || !ok2 {
				return model.Schedule{}, NewDaysError(input)
			}
			for _, d := range dayRange(start, end) {
				schedule.Set(d, true)
			}
			continue
		}
		d, ok := ParseDay(tok)
		if !ok {
			return model.Schedule{}, NewDaysError(input)
		}
		schedule.Set(d, true)
	}

	if !schedule.Any() {
		return model.Schedule{}, NewDaysError(input)
	}
	return schedule, nil
}

// dayRange walks model.WeekOrder from start to end inclusive, wrapping
// past Sunday.
func dayRange(start, end time.Weekday) []time.Weekday {
	idx := func(d time.Weekday) int { return (int(d) + 6) % 7 }
	var days []time.Weekday
	for i := idx(start); ; i = (i + 1) % 7 {
		days = append(days, model.WeekOrder[i])
		if i == idx(end) {
			break
		}
	}
	return days
}
