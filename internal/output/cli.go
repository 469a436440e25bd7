package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/stats"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Yellow
	colorError     = lipgloss.Color("#EF4444") // Red
	colorSuccess   = lipgloss.Color("#10B981") // Green

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleTime = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorSecondary)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
	now func() time.Time
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f, now: time.Now}
}

// WithClock replaces the time source used for relative dates.
func (c *CLIFormatter) WithClock(now func() time.Time) *CLIFormatter {
	c.now = now
	return c
}

func (c *CLIFormatter) render(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// TimeText formats an alarm time.
func (c *CLIFormatter) TimeText(t model.TimeOfDay) string {
	return c.render(styleTime, clock.FormatTimeOfDay(t))
}

// Label formats an alarm label.
func (c *CLIFormatter) Label(label string) string {
	return c.render(styleLabel, label)
}

func (c *CLIFormatter) enabledText(on bool) string {
	if on {
		return c.render(styleSuccess, "on")
	}
	return c.render(styleMuted, "off")
}

// PrintAlarmSaved prints the result of a create or edit.
func (c *CLIFormatter) PrintAlarmSaved(verb string, a *model.Alarm) {
	c.Printf("%s alarm %s %s\n", verb, c.TimeText(a.Time), c.Label(a.Label))
	c.Printf("  Repeats: %s\n", clock.FormatSchedule(a.Schedule))
	if a.Enabled {
		if at, ok := clock.NextOccurrence(a.Time, a.Schedule, c.now()); ok {
			c.Printf("  Next: %s (%s)\n", clock.FormatTriggerDate(at, c.now()), clock.Until(c.now(), at))
		}
	} else {
		c.Muted("  Disabled")
	}
}

// PrintAlarm prints one alarm in detail.
func (c *CLIFormatter) PrintAlarm(a *model.Alarm) {
	c.Printf("%s  %s\n", c.TimeText(a.Time), c.render(styleBold, a.Label))
	c.Printf("  ID:       %s\n", a.ID)
	c.Printf("  Repeats:  %s\n", clock.FormatSchedule(a.Schedule))
	c.Printf("  Enabled:  %s\n", c.enabledText(a.Enabled))
	sound := a.SoundOrDefault()
	if s, ok := model.LookupSound(sound); ok {
		sound = s.Name
	}
	c.Printf("  Sound:    %s\n", sound)
	c.Printf("  Snooze:   %d min\n", a.SnoozeSettings.Duration)
	c.Printf("  Created:  %s\n", FormatDate(a.CreatedAt))
	if a.Enabled {
		if at, ok := clock.NextOccurrence(a.Time, a.Schedule, c.now()); ok {
			c.Printf("  Next:     %s (%s)\n", clock.FormatTriggerDate(at, c.now()), clock.Until(c.now(), at))
		}
	}
	if e, ok := a.PendingEvent(); ok {
		c.Warning(fmt.Sprintf("Ringing since %s (%s, %d snoozes)",
			clock.FormatTriggerDate(e.TriggeredAt, c.now()), e.Status, e.SnoozeCount))
	}

	s := stats.ForAlarm(a, stats.Window{})
	if s.TotalEvents > 0 {
		c.Println()
		c.Printf("  Triggered %d times, %.1f snoozes on average, streak %d\n",
			s.TotalEvents, s.AvgSnoozes, s.Streak)
	}
}

// PrintAlarms prints the alarm list.
func (c *CLIFormatter) PrintAlarms(alarms []*model.Alarm) {
	if len(alarms) == 0 {
		c.Muted("No alarms yet.")
		c.Muted("Use 'waketime new 7:00am --label Work' to create one.")
		return
	}

	rows := make([]TableRow, 0, len(alarms))
	for _, a := range alarms {
		next := "-"
		if a.Enabled {
			if at, ok := clock.NextOccurrence(a.Time, a.Schedule, c.now()); ok {
				next = clock.Until(c.now(), at)
			}
		}
		state := "off"
		if a.Enabled {
			state = "on"
		}
		rows = append(rows, TableRow{Columns: []string{
			a.ShortID(),
			clock.FormatTimeOfDay(a.Time),
			a.Label,
			clock.FormatSchedule(a.Schedule),
			state,
			next,
		}})
	}
	c.PrintTable([]string{"ID", "TIME", "LABEL", "REPEATS", "ON", "NEXT"}, rows)
}

// PrintUpcoming prints the next rings across all alarms.
func (c *CLIFormatter) PrintUpcoming(occ []clock.Occurrence) {
	if len(occ) == 0 {
		c.Muted("No upcoming alarms.")
		return
	}
	now := c.now()
	for _, o := range occ {
		c.Printf("%-22s %s  %s\n",
			clock.FormatTriggerDate(o.At, now),
			c.Label(o.Label),
			c.render(styleMuted, clock.Until(now, o.At)))
	}
}

// PrintHistory prints trigger events, newest first.
func (c *CLIFormatter) PrintHistory(entries []stats.Entry) {
	if len(entries) == 0 {
		c.Muted("No alarm history.")
		return
	}
	now := c.now()
	rows := make([]TableRow, 0, len(entries))
	for _, e := range entries {
		dismissed := "-"
		if d, ok := e.Event.TimeToDismiss(); ok {
			dismissed = FormatDuration(d)
		}
		rows = append(rows, TableRow{Columns: []string{
			clock.FormatTriggerDate(e.Event.TriggeredAt, now),
			e.AlarmLabel,
			string(e.Event.Status),
			fmt.Sprintf("%d", e.Event.SnoozeCount),
			dismissed,
		}})
	}
	c.PrintTable([]string{"WHEN", "ALARM", "STATUS", "SNOOZES", "TO DISMISS"}, rows)
}

// PrintSummary prints overall snooze statistics.
func (c *CLIFormatter) PrintSummary(s stats.Summary) {
	if s.TotalEvents == 0 {
		c.Muted("No alarms have gone off yet.")
		return
	}
	c.Title("Wake-up stats")
	c.Printf("  Alarms triggered:   %d\n", s.TotalEvents)
	c.Printf("  Total snoozes:      %d\n", s.TotalSnoozes)
	c.Printf("  Average snoozes:    %.1f\n", s.AvgSnoozes)
	c.Printf("  Perfect wake-ups:   %d\n", s.PerfectWakeUps)
	if s.Dismissed > 0 {
		c.Printf("  Time to dismiss:    %.1f min avg\n", s.AvgMinutesToDismiss)
	}
	if s.Worst != nil && s.Worst.Snoozes > 0 {
		c.Printf("  Most snoozed:       %s (%d)\n", c.Label(s.Worst.Label), s.Worst.Snoozes)
	}

	c.Println()
	for _, lvl := range []stats.SnoozeLevel{stats.LevelNone, stats.LevelSome, stats.LevelMany} {
		n := s.Levels[lvl]
		pct := float64(n) * 100 / float64(s.TotalEvents)
		c.Printf("  %-5s %s %d\n", lvl, ProgressBar(pct, 20), n)
	}
}

// PrintAlarmStats prints per-alarm statistics.
func (c *CLIFormatter) PrintAlarmStats(list []stats.AlarmStats) {
	rows := make([]TableRow, 0, len(list))
	for _, s := range list {
		last := "never"
		if s.LastTriggered != nil {
			last = clock.FormatTriggerDate(*s.LastTriggered, c.now())
		}
		rows = append(rows, TableRow{Columns: []string{
			s.Time,
			s.Label,
			fmt.Sprintf("%d", s.TotalEvents),
			fmt.Sprintf("%.1f", s.AvgSnoozes),
			fmt.Sprintf("%d", s.Streak),
			last,
		}})
	}
	c.PrintTable([]string{"TIME", "ALARM", "RUNS", "AVG SNOOZE", "STREAK", "LAST"}, rows)
}

// PrintSounds prints the sound catalog.
func (c *CLIFormatter) PrintSounds(sounds []model.Sound) {
	for _, s := range sounds {
		marker := " "
		if s.ID == model.DefaultSound {
			marker = "*"
		}
		c.Printf("%s %-14s %s\n", marker, s.ID, c.render(styleMuted, s.Description))
	}
}

// ProgressBar creates a simple progress bar.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return bar
}

// Table helpers for CLI output.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]) + "  ")
	}
	c.Println(strings.TrimRight(c.render(styleBold, headerLine.String()), " "))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(pad(col, widths[i]) + "  ")
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
