// Package tui provides the terminal screens: the ring screen that resolves
// a firing alarm and the live alarm board.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorActive    = lipgloss.Color("#3B82F6") // Blue
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

// Base styles.
var (
	// StyleTitle is used for section titles.
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// StyleSubtitle is used for secondary information.
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleClock renders the alarm time on the ring screen.
	StyleClock = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	// StyleLabel renders alarm labels.
	StyleLabel = lipgloss.NewStyle().
			Bold(true)

	StyleRinging = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// StyleHelp is used for the help bar at the bottom.
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Box styles.
var (
	// StyleRingBox frames the ring screen while the alarm is sounding.
	StyleRingBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(1, 4)

	// StyleDoneBox frames the ring screen once the event is resolved.
	StyleDoneBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(1, 4)

	StyleBoardBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// TableStyles returns the board table styles.
func TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(ColorPrimary).
		Bold(false)
	return s
}

// HelpBar renders key/description pairs.
func HelpBar(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, StyleHelpKey.Render(pairs[i])+" "+StyleHelpDesc.Render(pairs[i+1]))
	}
	return StyleHelp.Render(strings.Join(parts, "  "))
}

// SnoozeDots draws one dot per snooze, capped at max.
func SnoozeDots(count, max int) string {
	if count <= 0 {
		return ""
	}
	extra := ""
	if count > max {
		extra = "+"
		count = max
	}
	return StyleWarning.Render(strings.Repeat("●", count) + extra)
}
