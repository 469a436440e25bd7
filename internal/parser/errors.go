package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/waketime/internal/errors"
)

// ParseError represents an input parsing error with helpful examples.
type ParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
	Sentinel   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

// Is matches the validation sentinels so callers can test with errors.Is.
func (e *ParseError) Is(target error) bool {
	return target == errors.ErrValidation || (e.Sentinel != nil && target == e.Sentinel)
}

// FormatWithExamples returns the error message with example suggestions.
func (e *ParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// ToUserError converts a ParseError to a UserError for consistent handling.
func (e *ParseError) ToUserError() *errors.UserError {
	suggestion := e.Suggestion
	if suggestion == "" && len(e.Examples) > 0 {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}
	ue := errors.NewUserErrorWithField(e.Field, e.Input, e.Message, suggestion)
	ue.Err = e.Sentinel
	return ue
}

// TimeExamples lists accepted alarm times.
var TimeExamples = []string{
	"7am",
	"6:45 pm",
	"19:30",
	"0700",
	"noon",
}

// DaysExamples lists accepted day sets.
var DaysExamples = []string{
	"weekdays",
	"weekends",
	"daily",
	"mon,wed,fri",
	"mon-fri",
	"sat sun",
}

// SnoozeExamples lists accepted snooze durations.
var SnoozeExamples = []string{
	"10",
	"5m",
	"15 minutes",
	"1h",
}

// SinceExamples lists accepted history windows.
var SinceExamples = []string{
	"today",
	"this week",
	"last month",
	"7 days ago",
	"2024-01-01",
}

// NewTimeError creates a time-of-day parse error with standard examples.
func NewTimeError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "time",
		Message:    "could not parse time",
		Examples:   TimeExamples,
		Suggestion: "Use a clock time like '7am', '6:45 pm' or '19:30'.",
		Sentinel:   errors.ErrInvalidTime,
	}
}

// NewDaysError creates a day set parse error with standard examples.
func NewDaysError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "days",
		Message:    "select at least one valid day",
		Examples:   DaysExamples,
		Suggestion: "Use a preset like 'weekdays' or a list like 'mon,wed,fri'.",
		Sentinel:   errors.ErrInvalidDays,
	}
}

// NewSnoozeError creates a snooze duration parse error with standard examples.
func NewSnoozeError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "snooze",
		Message:    "snooze must be a positive whole number of minutes",
		Examples:   SnoozeExamples,
		Suggestion: "A bare number is read as minutes.",
		Sentinel:   errors.ErrInvalidDuration,
	}
}

// NewSinceError creates a history window parse error with standard examples.
func NewSinceError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "since",
		Message:    "could not parse date",
		Examples:   SinceExamples,
		Suggestion: "Use period names like 'today', 'this week', or 'last month'.",
	}
}
