package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/lifecycle"
	"github.com/manav03panchal/waketime/internal/model"
)

// Resolver is the part of the lifecycle engine the ring screen drives.
type Resolver interface {
	Snooze(ctx context.Context, alarmID, eventID string) (*model.TriggerEvent, error)
	AutoSnooze(ctx context.Context, alarmID, eventID string) (*model.TriggerEvent, error)
	Dismiss(ctx context.Context, alarmID, eventID string) (*model.TriggerEvent, error)
	Resolve(ctx context.Context, alarmID, eventID string) (*lifecycle.Resolution, error)
}

// RingOutcome is how the ring screen ended.
type RingOutcome struct {
	Event *model.TriggerEvent
	// Auto is set when the screen snoozed on the user's behalf.
	Auto bool
	// Left is set when the user closed the screen without resolving.
	Left bool
}

// RingConfig configures the ring screen.
type RingConfig struct {
	Resolution *lifecycle.Resolution
	Engine     Resolver
	// Timeout is how long the alarm rings unattended before it snoozes
	// itself. Zero disables the countdown.
	Timeout time.Duration
	Now     func() time.Time
}

type secondMsg time.Time

// RingModel is the trigger-resolution screen.
type RingModel struct {
	res      *lifecycle.Resolution
	engine   Resolver
	timeout  time.Duration
	now      func() time.Time
	deadline time.Time

	outcome RingOutcome
	done    bool
	err     error
	width   int
}

// NewRingModel creates the ring screen for a resolved event.
func NewRingModel(cfg RingConfig) *RingModel {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	m := &RingModel{
		res:     cfg.Resolution,
		engine:  cfg.Engine,
		timeout: cfg.Timeout,
		now:     now,
	}
	if m.timeout > 0 {
		m.deadline = now().Add(m.timeout)
	}
	return m
}

// Outcome returns how the screen ended.
func (m *RingModel) Outcome() RingOutcome {
	return m.outcome
}

// Err returns the last engine error.
func (m *RingModel) Err() error {
	return m.err
}

// Init starts the countdown.
func (m *RingModel) Init() tea.Cmd {
	if m.timeout <= 0 {
		return nil
	}
	return secondTick()
}

// Update handles messages and updates the model.
func (m *RingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case secondMsg:
		if m.done || m.timeout <= 0 {
			return m, nil
		}
		if !m.now().Before(m.deadline) {
			return m, m.autoSnooze()
		}
		return m, secondTick()
	}
	return m, nil
}

func (m *RingModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, tea.Quit
	}
	switch msg.String() {
	case "s", " ":
		ev, err := m.engine.Snooze(context.Background(), m.res.Alarm.ID, m.res.Event.ID)
		return m, m.finish(ev, err, false)

	case "d", "enter":
		ev, err := m.engine.Dismiss(context.Background(), m.res.Alarm.ID, m.res.Event.ID)
		return m, m.finish(ev, err, false)

	case "q", "esc", "ctrl+c":
		m.outcome = RingOutcome{Left: true}
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// autoSnooze snoozes on the user's behalf. When the event was resolved
// elsewhere meanwhile the screen shows that resolution instead.
func (m *RingModel) autoSnooze() tea.Cmd {
	ctx := context.Background()
	ev, err := m.engine.AutoSnooze(ctx, m.res.Alarm.ID, m.res.Event.ID)
	if stderrors.Is(err, errors.ErrEventNotRinging) || stderrors.Is(err, errors.ErrEventDismissed) {
		if current, rerr := m.engine.Resolve(ctx, m.res.Alarm.ID, m.res.Event.ID); rerr == nil {
			resolved := current.Event
			return m.finish(&resolved, nil, false)
		}
	}
	return m.finish(ev, err, true)
}

func (m *RingModel) finish(ev *model.TriggerEvent, err error, auto bool) tea.Cmd {
	if err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	m.outcome = RingOutcome{Event: ev, Auto: auto}
	m.done = true
	return tea.Quit
}

// View renders the ring screen.
func (m *RingModel) View() string {
	a := m.res.Alarm
	ev := m.res.Event
	if m.outcome.Event != nil {
		ev = *m.outcome.Event
	}

	var b strings.Builder
	b.WriteString(StyleClock.Render(clock.FormatTimeOfDay(a.Time)))
	b.WriteString("  ")
	b.WriteString(StyleLabel.Render(a.Label))
	b.WriteString("\n\n")

	switch {
	case m.done && m.outcome.Left:
		b.WriteString(StyleRinging.Render("Still ringing"))
	case m.done && ev.Status == model.StatusDismissed:
		b.WriteString(StyleSuccess.Render("Dismissed"))
		if ev.DismissedAt != nil {
			b.WriteString(StyleSubtitle.Render(fmt.Sprintf(" after %s", roundDuration(ev.DismissedAt.Sub(ev.TriggeredAt)))))
		}
	case m.done:
		verb := "Snoozed"
		if m.outcome.Auto {
			verb = "Auto-snoozed"
		}
		until := m.now().Add(a.SnoozeSettings.Interval())
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%s until %s", verb, clock.FormatTime(until.Hour(), until.Minute()))))
	default:
		b.WriteString(StyleRinging.Render("⏰ RINGING"))
		b.WriteString(StyleSubtitle.Render("  since " + clock.FormatTriggerDate(ev.TriggeredAt, m.now())))
	}

	if ev.SnoozeCount > 0 {
		b.WriteString("\n")
		b.WriteString(SnoozeDots(ev.SnoozeCount, 10))
		b.WriteString(StyleSubtitle.Render(fmt.Sprintf(" %d snoozed", ev.SnoozeCount)))
	}

	if !m.done && m.timeout > 0 {
		left := m.deadline.Sub(m.now())
		if left < 0 {
			left = 0
		}
		b.WriteString("\n")
		b.WriteString(StyleSubtitle.Render(fmt.Sprintf("Auto-snooze in %s", roundDuration(left))))
	}

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	box := StyleRingBox
	if m.done {
		box = StyleDoneBox
	}
	view := box.Render(b.String())
	if !m.done {
		snooze := fmt.Sprintf("snooze %dm", a.SnoozeSettings.Duration)
		view = lipgloss.JoinVertical(lipgloss.Left, view, HelpBar("s", snooze, "d", "dismiss", "q", "leave ringing"))
	}
	return view + "\n"
}

func secondTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return secondMsg(t)
	})
}

func roundDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// RunRing shows the ring screen until the event is resolved or left.
func RunRing(cfg RingConfig) (RingOutcome, error) {
	m := NewRingModel(cfg)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return RingOutcome{}, err
	}
	return m.Outcome(), m.Err()
}
