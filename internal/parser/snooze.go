package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// durationPattern matches "10", "10m", "15 minutes", "1h", "1.5h", "1h 30m".
var durationPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(h|hr|hrs|hour|hours|m|min|mins|minute|minutes)?\s*(?:(\d+)\s*(m|min|mins|minute|minutes))?$`)

// ParseDuration parses a human-readable duration. A bare number is minutes.
func ParseDuration(input string) (time.Duration, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, NewSnoozeError(input)
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, NewSnoozeError(input)
		}
		return d, nil
	}

	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, NewSnoozeError(input)
	}

	var total time.Duration
	value, _ := strconv.ParseFloat(matches[1], 64)
	total += unitToDuration(value, strings.ToLower(matches[2]))
	if matches[3] != "" {
		value, _ := strconv.ParseFloat(matches[3], 64)
		total += unitToDuration(value, strings.ToLower(matches[4]))
	}

	if total <= 0 {
		return 0, NewSnoozeError(input)
	}
	return total, nil
}

// ParseSnooze parses a snooze duration into whole minutes.
func ParseSnooze(input string) (int, error) {
	d, err := ParseDuration(input)
	if err != nil {
		return 0, err
	}
	minutes := d.Minutes()
	if minutes < 1 || minutes != math.Trunc(minutes) {
		return 0, NewSnoozeError(input)
	}
	return int(minutes), nil
}

func unitToDuration(value float64, unit string) time.Duration {
	switch unit {
	case "h", "hr", "hrs", "hour", "hours":
		return time.Duration(value * float64(time.Hour))
	default:
		return time.Duration(value * float64(time.Minute))
	}
}
