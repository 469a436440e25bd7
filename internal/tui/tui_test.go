package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/lifecycle"
	"github.com/manav03panchal/waketime/internal/model"
)

// Monday 2024-01-08 07:00 UTC
var fixedNow = time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// fakeResolver records calls and applies transitions to its own event.
type fakeResolver struct {
	event  model.TriggerEvent
	calls  []string
	failOn string
}

func (f *fakeResolver) transition(name string, status model.EventStatus) (*model.TriggerEvent, error) {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return nil, errors.New(name + " failed")
	}
	f.event.Status = status
	if status == model.StatusSnoozed {
		f.event.SnoozeCount++
	}
	if status == model.StatusDismissed {
		at := fixedNow.Add(90 * time.Second)
		f.event.DismissedAt = &at
	}
	ev := f.event
	return &ev, nil
}

func (f *fakeResolver) Snooze(context.Context, string, string) (*model.TriggerEvent, error) {
	return f.transition("snooze", model.StatusSnoozed)
}

func (f *fakeResolver) AutoSnooze(context.Context, string, string) (*model.TriggerEvent, error) {
	if f.event.Status != model.StatusActive {
		f.calls = append(f.calls, "auto")
		return nil, &werrors.UserError{Message: "not ringing", Err: werrors.ErrEventNotRinging}
	}
	return f.transition("auto", model.StatusSnoozed)
}

func (f *fakeResolver) Dismiss(context.Context, string, string) (*model.TriggerEvent, error) {
	return f.transition("dismiss", model.StatusDismissed)
}

func (f *fakeResolver) Resolve(_ context.Context, alarmID, _ string) (*lifecycle.Resolution, error) {
	return &lifecycle.Resolution{Alarm: &model.Alarm{ID: alarmID}, Event: f.event}, nil
}

func newRing(t *testing.T, timeout time.Duration) (*RingModel, *fakeResolver, *time.Time) {
	t.Helper()
	event := model.TriggerEvent{ID: "ev-1", TriggeredAt: fixedNow, Status: model.StatusActive}
	alarm := &model.Alarm{
		ID:             "a1",
		Label:          "Work",
		Time:           model.TimeOfDay{Hour: 7},
		Enabled:        true,
		SnoozeSettings: model.SnoozeSettings{Duration: 9},
		History:        []model.TriggerEvent{event},
	}
	f := &fakeResolver{event: event}
	now := fixedNow
	m := NewRingModel(RingConfig{
		Resolution: &lifecycle.Resolution{Alarm: alarm, Event: event},
		Engine:     f,
		Timeout:    timeout,
		Now:        func() time.Time { return now },
	})
	return m, f, &now
}

// =============================================================================
// Styles Tests
// =============================================================================

func TestHelpBar(t *testing.T) {
	bar := HelpBar("s", "snooze", "d", "dismiss", "odd")
	assert.Contains(t, bar, "snooze")
	assert.Contains(t, bar, "dismiss")
	assert.NotContains(t, bar, "odd")
}

func TestSnoozeDots(t *testing.T) {
	assert.Empty(t, SnoozeDots(0, 5))
	assert.Equal(t, 3, strings.Count(SnoozeDots(3, 5), "●"))
	capped := SnoozeDots(8, 5)
	assert.Equal(t, 5, strings.Count(capped, "●"))
	assert.Contains(t, capped, "+")
}

// =============================================================================
// Ring Screen Tests
// =============================================================================

func TestRingSnooze(t *testing.T) {
	m, f, _ := newRing(t, 2*time.Minute)
	assert.Contains(t, m.View(), "RINGING")
	assert.Contains(t, m.View(), "snooze 9m")

	_, cmd := m.Update(key("s"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, []string{"snooze"}, f.calls)

	out := m.Outcome()
	require.NotNil(t, out.Event)
	assert.Equal(t, model.StatusSnoozed, out.Event.Status)
	assert.False(t, out.Auto)
	assert.Contains(t, m.View(), "Snoozed until 7:09 AM")
}

func TestRingDismiss(t *testing.T) {
	m, f, _ := newRing(t, 0)

	_, cmd := m.Update(key("enter"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, []string{"dismiss"}, f.calls)
	assert.Equal(t, model.StatusDismissed, m.Outcome().Event.Status)
	assert.Contains(t, m.View(), "Dismissed")
	assert.Contains(t, m.View(), "1m 30s")
}

func TestRingLeave(t *testing.T) {
	m, f, _ := newRing(t, time.Minute)

	_, cmd := m.Update(key("esc"))
	assert.True(t, isQuit(cmd))
	assert.Empty(t, f.calls)
	assert.True(t, m.Outcome().Left)
	assert.Nil(t, m.Outcome().Event)
}

func TestRingEngineError(t *testing.T) {
	m, f, _ := newRing(t, 0)
	f.failOn = "dismiss"

	_, cmd := m.Update(key("d"))
	assert.Nil(t, cmd)
	require.Error(t, m.Err())
	assert.Contains(t, m.View(), "dismiss failed")

	// a retry that succeeds clears the error
	f.failOn = ""
	_, cmd = m.Update(key("d"))
	assert.True(t, isQuit(cmd))
	assert.NoError(t, m.Err())
}

func TestRingAutoSnooze(t *testing.T) {
	m, f, now := newRing(t, 2*time.Minute)
	assert.NotNil(t, m.Init())

	*now = fixedNow.Add(time.Minute)
	_, cmd := m.Update(secondMsg(*now))
	assert.NotNil(t, cmd)
	assert.False(t, isQuit(cmd))
	assert.Contains(t, m.View(), "Auto-snooze in 1m 00s")

	*now = fixedNow.Add(2 * time.Minute)
	_, cmd = m.Update(secondMsg(*now))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, []string{"auto"}, f.calls)
	assert.True(t, m.Outcome().Auto)
	assert.Contains(t, m.View(), "Auto-snoozed")
}

func TestRingAutoSnoozeSkipsResolvedEvent(t *testing.T) {
	m, f, now := newRing(t, time.Minute)
	// snoozed from another surface meanwhile
	f.event.Status = model.StatusSnoozed
	f.event.SnoozeCount = 1

	*now = fixedNow.Add(time.Minute)
	_, cmd := m.Update(secondMsg(*now))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, []string{"auto"}, f.calls)
	assert.NoError(t, m.Err())
	assert.False(t, m.Outcome().Auto)
	require.NotNil(t, m.Outcome().Event)
	assert.Equal(t, 1, m.Outcome().Event.SnoozeCount)
	assert.Contains(t, m.View(), "Snoozed until")
}

func TestRingWithoutTimeout(t *testing.T) {
	m, _, _ := newRing(t, 0)
	assert.Nil(t, m.Init())
	assert.NotContains(t, m.View(), "Auto-snooze")
}

// =============================================================================
// Board Tests
// =============================================================================

func boardAlarms() []*model.Alarm {
	return []*model.Alarm{
		{
			ID: "late", Label: "Late", Time: model.TimeOfDay{Hour: 9, Minute: 30},
			Schedule: model.ScheduleOf(time.Monday), Enabled: true,
		},
		{
			ID: "early", Label: "Early", Time: model.TimeOfDay{Hour: 6},
			Schedule: model.ScheduleOf(time.Tuesday), Enabled: false,
			History: []model.TriggerEvent{
				{ID: "e1", TriggeredAt: fixedNow.Add(-24 * time.Hour), Status: model.StatusSnoozed, SnoozeCount: 2},
			},
		},
	}
}

func newBoard(load Loader, toggle Toggler) *BoardModel {
	return NewBoardModel(BoardConfig{
		Load:   load,
		Toggle: toggle,
		Now:    func() time.Time { return fixedNow },
	})
}

func TestBoardLoad(t *testing.T) {
	m := newBoard(func(context.Context) ([]*model.Alarm, error) {
		return boardAlarms(), nil
	}, nil)

	msg := m.loadCmd()()
	m.Update(msg)

	require.Len(t, m.Alarms(), 2)
	assert.Equal(t, "early", m.Alarms()[0].ID)
	assert.Equal(t, "early", m.Selected().ID)

	view := m.View()
	assert.Contains(t, view, "Early")
	assert.Contains(t, view, "snoozed x2")
	assert.Contains(t, view, "Next: Late in 2h 30m")
}

func TestBoardEmpty(t *testing.T) {
	m := newBoard(func(context.Context) ([]*model.Alarm, error) {
		return nil, nil
	}, nil)
	m.Update(m.loadCmd()())

	assert.Nil(t, m.Selected())
	assert.Contains(t, m.View(), "No alarms yet")
}

func TestBoardLoadError(t *testing.T) {
	m := newBoard(func(context.Context) ([]*model.Alarm, error) {
		return nil, errors.New("store is busy")
	}, nil)
	m.Update(m.loadCmd()())
	assert.Contains(t, m.View(), "store is busy")
}

func TestBoardToggle(t *testing.T) {
	alarms := boardAlarms()
	var toggled []string
	m := newBoard(func(context.Context) ([]*model.Alarm, error) {
		return alarms, nil
	}, func(_ context.Context, id string, enabled bool) error {
		toggled = append(toggled, id)
		for _, a := range alarms {
			if a.ID == id {
				a.Enabled = enabled
			}
		}
		return nil
	})
	m.Update(m.loadCmd()())

	m.Update(key("down"))
	require.Equal(t, "late", m.Selected().ID)

	_, cmd := m.Update(key("e"))
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"late"}, toggled)
	assert.Contains(t, m.View(), "Late disabled")

	m.Update(cmd())
	assert.False(t, m.Selected().Enabled)
}

func TestBoardQuit(t *testing.T) {
	m := newBoard(nil, nil)
	_, cmd := m.Update(key("q"))
	assert.True(t, isQuit(cmd))
}
