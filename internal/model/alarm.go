package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a local wall-clock time.
type TimeOfDay struct {
	Hour   int `json:"hour" yaml:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" yaml:"minute" validate:"min=0,max=59"`
}

// String renders the time on a 24-hour clock.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On returns the instant of this time of day on the calendar day of d, in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

// SnoozeSettings controls how long a snooze postpones the alarm.
type SnoozeSettings struct {
	Duration int `json:"duration" yaml:"duration" validate:"gt=0"` // minutes
}

// Interval returns the snooze duration.
func (s SnoozeSettings) Interval() time.Duration {
	return time.Duration(s.Duration) * time.Minute
}

// Alarm is a recurring wake-up definition.
type Alarm struct {
	ID              string         `json:"id" yaml:"id" validate:"required"`
	Time            TimeOfDay      `json:"time" yaml:"time"`
	Label           string         `json:"label" yaml:"label" validate:"required,max=50"`
	Schedule        Schedule       `json:"schedule" yaml:"schedule" validate:"anyday"`
	Sound           string         `json:"sound,omitempty" yaml:"sound,omitempty" validate:"omitempty,sound"`
	Enabled         bool           `json:"enabled" yaml:"enabled"`
	SnoozeSettings  SnoozeSettings `json:"snooze_settings" yaml:"snooze_settings"`
	NotificationIDs []string       `json:"notification_ids" yaml:"notification_ids"`
	CreatedAt       time.Time      `json:"created_at" yaml:"created_at"`
	History         []TriggerEvent `json:"history" yaml:"history"`
}

// SetKey sets the database key for this alarm.
func (a *Alarm) SetKey(key string) {
	a.ID = strings.TrimPrefix(key, PrefixAlarm+":")
}

// GetKey returns the database key for this alarm.
func (a *Alarm) GetKey() string {
	return GenerateAlarmKey(a.ID)
}

// ShortID returns the first 8 characters of the id for display.
func (a *Alarm) ShortID() string {
	if len(a.ID) > 8 {
		return a.ID[:8]
	}
	return a.ID
}

// HasEvent reports whether the history holds the given event id.
func (a *Alarm) HasEvent(eventID string) bool {
	return a.EventIndex(eventID) >= 0
}

// EventIndex returns the history index of an event, or -1.
func (a *Alarm) EventIndex(eventID string) int {
	for i := range a.History {
		if a.History[i].ID == eventID {
			return i
		}
	}
	return -1
}

// Event returns a copy of the event with the given id.
func (a *Alarm) Event(eventID string) (TriggerEvent, bool) {
	if i := a.EventIndex(eventID); i >= 0 {
		return a.History[i].Clone(), true
	}
	return TriggerEvent{}, false
}

// PendingEvent returns the newest event that is not dismissed.
func (a *Alarm) PendingEvent() (TriggerEvent, bool) {
	for _, e := range a.History {
		if !e.IsResolved() {
			return e.Clone(), true
		}
	}
	return TriggerEvent{}, false
}

// LastEvent returns the newest event.
func (a *Alarm) LastEvent() (TriggerEvent, bool) {
	if len(a.History) == 0 {
		return TriggerEvent{}, false
	}
	return a.History[0].Clone(), true
}

// Clone returns a deep copy.
func (a *Alarm) Clone() *Alarm {
	c := *a
	c.NotificationIDs = append([]string(nil), a.NotificationIDs...)
	if a.History != nil {
		c.History = make([]TriggerEvent, len(a.History))
		for i := range a.History {
			c.History[i] = a.History[i].Clone()
		}
	}
	return &c
}

// SoundOrDefault returns the alarm's sound id, falling back to DefaultSound.
func (a *Alarm) SoundOrDefault() string {
	if a.Sound == "" {
		return DefaultSound
	}
	return a.Sound
}

// GenerateAlarmKey generates a database key for an alarm.
func GenerateAlarmKey(id string) string {
	return fmt.Sprintf("%s:%s", PrefixAlarm, id)
}

// NewAlarm creates an enabled alarm with a fresh id and empty history.
func NewAlarm(label string, at TimeOfDay, schedule Schedule, snoozeMinutes int) *Alarm {
	return &Alarm{
		ID:              uuid.New().String(),
		Time:            at,
		Label:           strings.TrimSpace(label),
		Schedule:        schedule,
		Enabled:         true,
		SnoozeSettings:  SnoozeSettings{Duration: snoozeMinutes},
		NotificationIDs: []string{},
		CreatedAt:       time.Now(),
		History:         []TriggerEvent{},
	}
}
