package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	// User input errors
	ErrAlarmNotFound:     "Use 'waketime list' to see your alarms and their ids.",
	ErrEventNotFound:     "Use 'waketime history <alarm>' to see recent trigger events.",
	ErrAmbiguousID:       "Type more characters of the alarm id.",
	ErrEventDismissed:    "This alarm was already dismissed. Use 'waketime ring <alarm>' to test it again.",
	ErrNoPendingEvent:    "Nothing is ringing for this alarm right now.",
	ErrEventNotRinging:   "The alarm was already snoozed or dismissed.",
	ErrInvalidTime:       "Try formats like '7am', '6:45 pm', '19:30' or '0700'.",
	ErrInvalidDays:       "Use weekdays, weekends, daily, or a list like 'mon,wed,fri' or 'mon-fri'.",
	ErrInvalidDuration:   "Snooze durations are whole minutes, like 5, 10 or '15m'.",
	ErrInvalidURL:        "Provide a valid URL starting with https:// (or http:// for localhost).",
	ErrPermissionRefused: "Set notifications.enabled: true in your config to allow alarms to ring.",

	// System errors
	ErrDiskFull:           "Free up disk space and try again.",
	ErrNetworkUnavailable: "Check your internet connection. Webhook deliveries will retry automatically.",
	ErrStoreBusy:          "The daemon is probably mid-delivery. Try again, or use the sqlite storage driver to share the store.",
	ErrTimeout:            "The operation took too long. Try again.",
	ErrPermissionDenied:   "Check file permissions in your data directory (~/.local/share/waketime/).",
	ErrScheduling:         "Your alarm was not changed. Run 'waketime daemon status' and try again.",
}

// GetSuggestion returns a suggestion for an error, if available.
// It walks the error chain to find matching suggestions.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// A suggestion attached to the error itself wins
	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}

	return ""
}

// GetCategorySuggestion is the fallback when no sentinel has a suggestion.
func GetCategorySuggestion(err error) string {
	switch Classify(err) {
	case CategoryUser:
		return "Check your input and try again. Use --help for usage information."
	case CategorySystem:
		return "Check free disk space and permissions on the data directory, then try again."
	case CategoryRecoverable:
		return "This usually clears up on its own. Try again in a moment."
	}
	return ""
}

// CommandExamples provides example commands for common errors.
var CommandExamples = map[error][]string{
	ErrInvalidTime: {
		"waketime new \"Morning Workout\" --at 7am --days weekdays",
		"waketime edit 3f2a --at 6:45pm",
	},
	ErrInvalidDays: {
		"waketime new \"Gym\" --at 6:30 --days mon,wed,fri",
		"waketime edit 3f2a --days weekends",
	},
	ErrInvalidDuration: {
		"waketime new \"Standup\" --at 9am --snooze 5",
		"waketime edit 3f2a --snooze 15m",
	},
}

// GetExamples returns example commands for an error.
func GetExamples(err error) []string {
	for knownErr, examples := range CommandExamples {
		if errors.Is(err, knownErr) {
			return examples
		}
	}
	return nil
}
