package model

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of a trigger event.
type EventStatus string

// Event statuses.
const (
	StatusActive    EventStatus = "active"
	StatusSnoozed   EventStatus = "snoozed"
	StatusDismissed EventStatus = "dismissed"
)

// TriggerSource records what caused an event to be created.
type TriggerSource string

// Trigger sources.
const (
	SourceScheduled TriggerSource = "scheduled"
	SourceTest      TriggerSource = "test"
	SourceCatchUp   TriggerSource = "catch_up"
)

// TriggerEvent is one instance of an alarm going off.
type TriggerEvent struct {
	ID               string        `json:"id" yaml:"id"`
	TriggeredAt      time.Time     `json:"triggered_at" yaml:"triggered_at"`
	SnoozeCount      int           `json:"snooze_count" yaml:"snooze_count"`
	SnoozeTimestamps []time.Time   `json:"snooze_timestamps" yaml:"snooze_timestamps"`
	DismissedAt      *time.Time    `json:"dismissed_at" yaml:"dismissed_at"`
	Status           EventStatus   `json:"status" yaml:"status"`
	Source           TriggerSource `json:"source,omitempty" yaml:"source,omitempty"`
}

// NewTriggerEvent creates an active event that sounded at now.
func NewTriggerEvent(now time.Time, source TriggerSource) TriggerEvent {
	return TriggerEvent{
		ID:               uuid.New().String(),
		TriggeredAt:      now,
		SnoozeTimestamps: []time.Time{},
		Status:           StatusActive,
		Source:           source,
	}
}

// IsResolved reports whether the event reached its terminal state.
func (e TriggerEvent) IsResolved() bool {
	return e.Status == StatusDismissed
}

// LastSnooze returns the most recent snooze timestamp.
func (e TriggerEvent) LastSnooze() (time.Time, bool) {
	if len(e.SnoozeTimestamps) == 0 {
		return time.Time{}, false
	}
	return e.SnoozeTimestamps[len(e.SnoozeTimestamps)-1], true
}

// TimeToDismiss returns how long the event took to resolve.
func (e TriggerEvent) TimeToDismiss() (time.Duration, bool) {
	if e.DismissedAt == nil {
		return 0, false
	}
	return e.DismissedAt.Sub(e.TriggeredAt), true
}

// Clone returns a deep copy.
func (e TriggerEvent) Clone() TriggerEvent {
	c := e
	if e.SnoozeTimestamps != nil {
		c.SnoozeTimestamps = append([]time.Time{}, e.SnoozeTimestamps...)
	}
	if e.DismissedAt != nil {
		at := *e.DismissedAt
		c.DismissedAt = &at
	}
	return c
}

// Normalize restores the event invariants: the snooze count follows the
// timestamps and a dismissal time exists only on dismissed events.
func (e *TriggerEvent) Normalize() {
	if e.SnoozeTimestamps == nil {
		e.SnoozeTimestamps = []time.Time{}
	}
	e.SnoozeCount = len(e.SnoozeTimestamps)
	if e.Status != StatusDismissed {
		e.DismissedAt = nil
	}
}

// EventPatch is a partial update of a trigger event. Nil fields are left unchanged.
type EventPatch struct {
	Status           *EventStatus
	SnoozeTimestamps []time.Time
	DismissedAt      *time.Time
}

// Apply merges the patch into the event and normalizes it.
func (e *TriggerEvent) Apply(p EventPatch) {
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.SnoozeTimestamps != nil {
		e.SnoozeTimestamps = append([]time.Time{}, p.SnoozeTimestamps...)
	}
	if p.DismissedAt != nil {
		at := *p.DismissedAt
		e.DismissedAt = &at
	}
	e.Normalize()
}

// SnoozePatch builds the patch that records a snooze at now.
func SnoozePatch(e TriggerEvent, now time.Time) EventPatch {
	status := StatusSnoozed
	stamps := append(append([]time.Time{}, e.SnoozeTimestamps...), now)
	return EventPatch{Status: &status, SnoozeTimestamps: stamps}
}

// DismissPatch builds the patch that dismisses an event at now.
func DismissPatch(now time.Time) EventPatch {
	status := StatusDismissed
	return EventPatch{Status: &status, DismissedAt: &now}
}

// ActivatePatch builds the patch for a snooze follow-up fire.
func ActivatePatch() EventPatch {
	status := StatusActive
	return EventPatch{Status: &status}
}
