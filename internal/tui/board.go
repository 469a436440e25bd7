package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/model"
)

// tickMsg is sent when the clock ticks.
type tickMsg time.Time

// loadedMsg carries a fresh alarm list.
type loadedMsg struct {
	alarms []*model.Alarm
	err    error
}

// Loader fetches the alarm collection. The board calls it on every
// refresh so the store is only held while reading.
type Loader func(ctx context.Context) ([]*model.Alarm, error)

// Toggler enables or disables an alarm.
type Toggler func(ctx context.Context, id string, enabled bool) error

// BoardConfig holds configuration for the board.
type BoardConfig struct {
	Load            Loader
	Toggle          Toggler
	RefreshInterval time.Duration
	Now             func() time.Time
}

// BoardModel is the live alarm board.
type BoardModel struct {
	load    Loader
	toggle  Toggler
	now     func() time.Time
	refresh time.Duration

	alarms []*model.Alarm
	table  table.Model

	width      int
	height     int
	err        error
	message    string
	messageExp time.Time
}

// NewBoardModel creates a new board model.
func NewBoardModel(cfg BoardConfig) *BoardModel {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 9},
			{Title: "Label", Width: 22},
			{Title: "Repeats", Width: 14},
			{Title: "On", Width: 4},
			{Title: "Next", Width: 22},
			{Title: "Status", Width: 16},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	return &BoardModel{
		load:    cfg.Load,
		toggle:  cfg.Toggle,
		now:     cfg.Now,
		refresh: cfg.RefreshInterval,
		table:   t,
	}
}

// Init initializes the model.
func (m *BoardModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.loadCmd())
}

// Update handles messages and updates the model.
func (m *BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, tea.Batch(m.tickCmd(), m.loadCmd())

	case loadedMsg:
		m.setAlarms(msg.alarms, msg.err)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "r":
		m.setMessage("Refreshed", time.Second)
		return m, m.loadCmd()

	case "e", " ":
		a := m.Selected()
		if a == nil || m.toggle == nil {
			return m, nil
		}
		enable := !a.Enabled
		if err := m.toggle(context.Background(), a.ID, enable); err != nil {
			m.err = err
			return m, nil
		}
		state := "disabled"
		if enable {
			state = "enabled"
		}
		m.setMessage(fmt.Sprintf("%s %s", a.Label, state), 2*time.Second)
		return m, m.loadCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// setAlarms replaces the board contents, keeping the cursor in range.
func (m *BoardModel) setAlarms(alarms []*model.Alarm, err error) {
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	clock.SortByTime(alarms)
	m.alarms = alarms
	m.table.SetRows(m.rows())
	if c := m.table.Cursor(); c >= len(alarms) && len(alarms) > 0 {
		m.table.SetCursor(len(alarms) - 1)
	}
}

// Alarms returns the alarms on the board in display order.
func (m *BoardModel) Alarms() []*model.Alarm {
	return m.alarms
}

// Selected returns the alarm under the cursor.
func (m *BoardModel) Selected() *model.Alarm {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.alarms) {
		return nil
	}
	return m.alarms[i]
}

func (m *BoardModel) rows() []table.Row {
	now := m.now()
	rows := make([]table.Row, 0, len(m.alarms))
	for _, a := range m.alarms {
		rows = append(rows, table.Row{
			clock.FormatTimeOfDay(a.Time),
			a.Label,
			clock.FormatSchedule(a.Schedule),
			onOff(a.Enabled),
			nextText(a, now),
			statusText(a),
		})
	}
	return rows
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func nextText(a *model.Alarm, now time.Time) string {
	if !a.Enabled {
		return "-"
	}
	at, ok := clock.NextOccurrence(a.Time, a.Schedule, now)
	if !ok {
		return "-"
	}
	return clock.Until(now, at)
}

func statusText(a *model.Alarm) string {
	if ev, ok := a.PendingEvent(); ok {
		if ev.Status == model.StatusSnoozed {
			return fmt.Sprintf("snoozed x%d", ev.SnoozeCount)
		}
		return "RINGING"
	}
	if ev, ok := a.LastEvent(); ok {
		return fmt.Sprintf("last %s", ev.TriggeredAt.Format("Jan 2"))
	}
	return ""
}

// View renders the board.
func (m *BoardModel) View() string {
	var sections []string

	title := StyleTitle.Render("waketime")
	now := StyleSubtitle.Render(m.now().Format("Mon Jan 2, 15:04:05"))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", now))

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	if len(m.alarms) == 0 {
		sections = append(sections, StyleBoardBox.Render(StyleSubtitle.Render("No alarms yet. Create one with 'waketime new 7am'.")))
	} else {
		sections = append(sections, StyleBoardBox.Render(m.table.View()))
		if next := clock.Upcoming(m.alarms, m.now(), 1); len(next) > 0 {
			sections = append(sections, StyleSubtitle.Render(fmt.Sprintf("Next: %s %s",
				next[0].Label, clock.Until(m.now(), next[0].At))))
		}
	}

	sections = append(sections, HelpBar("↑/↓", "move", "e", "toggle", "r", "refresh", "q", "quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *BoardModel) setMessage(msg string, d time.Duration) {
	m.message = msg
	m.messageExp = m.now().Add(d)
}

func (m *BoardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *BoardModel) loadCmd() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		if load == nil {
			return loadedMsg{}
		}
		alarms, err := load(context.Background())
		return loadedMsg{alarms: alarms, err: err}
	}
}

// RunBoard starts the live board.
func RunBoard(cfg BoardConfig) error {
	p := tea.NewProgram(NewBoardModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
