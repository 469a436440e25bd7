// Package parser turns the loose strings typed on the command line into
// alarm times, day sets and snooze durations.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/manav03panchal/waketime/internal/model"
)

var (
	// clockRegex matches "7", "7:30", "07:30", "7am", "7.30 pm".
	clockRegex = regexp.MustCompile(`(?i)^(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)

	// militaryRegex matches "0700" and "1930".
	militaryRegex = regexp.MustCompile(`^(\d{2})(\d{2})$`)
)

var namedTimes = map[string]model.TimeOfDay{
	"midnight": {Hour: 0, Minute: 0},
	"noon":     {Hour: 12, Minute: 0},
	"midday":   {Hour: 12, Minute: 0},
}

// ParseTimeOfDay parses a wall-clock time such as "7am", "6:45 pm",
// "19:30" or "0700". Anything the fixed forms miss is handed to
// go-dateparser and only its hour and minute are kept.
func ParseTimeOfDay(input string) (model.TimeOfDay, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return model.TimeOfDay{}, NewTimeError(input)
	}
	if t, ok := namedTimes[s]; ok {
		return t, nil
	}

	if m := militaryRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return checkedTime(input, h, mm)
	}

	if m := clockRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm := 0
		if m[2] != "" {
			mm, _ = strconv.Atoi(m[2])
		}
		if suffix := strings.ReplaceAll(m[3], ".", ""); suffix != "" {
			if h < 1 || h > 12 {
				return model.TimeOfDay{}, NewTimeError(input)
			}
			h %= 12
			if suffix == "pm" {
				h += 12
			}
		}
		return checkedTime(input, h, mm)
	}

	cfg := &dateparser.Configuration{CurrentTime: time.Now()}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return model.TimeOfDay{}, NewTimeError(input)
	}
	return model.TimeOfDay{Hour: result.Time.Hour(), Minute: result.Time.Minute()}, nil
}

func checkedTime(input string, h, m int) (model.TimeOfDay, error) {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return model.TimeOfDay{}, NewTimeError(input)
	}
	return model.TimeOfDay{Hour: h, Minute: m}, nil
}
