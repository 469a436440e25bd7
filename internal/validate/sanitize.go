package validate

import (
	"strings"
	"unicode"
)

// SanitizeLabel trims a label, drops control characters and collapses
// internal runs of whitespace.
func SanitizeLabel(label string) string {
	// tabs and newlines become separators, everything else is dropped
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, label)
	return strings.Join(strings.Fields(cleaned), " ")
}

// TruncateString cuts s to maxLen runes, ending in "..." when there is
// room for it.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

const maxFilenameLen = 200

// SafeFilename turns an alarm label into an export file name usable on
// every platform.
func SafeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == 0:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, " .")
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	return s
}
