package model

import (
	"fmt"
	"strings"
	"time"
)

// TriggerKind distinguishes weekly repeating registrations from one-shots.
type TriggerKind string

// Trigger kinds.
const (
	TriggerRecurring TriggerKind = "recurring"
	TriggerOnce      TriggerKind = "once"
)

// DeliveryAction tells the lifecycle engine what a delivered trigger means.
type DeliveryAction string

// Delivery actions.
const (
	ActionFire     DeliveryAction = "fire"     // start a new event
	ActionRefire   DeliveryAction = "refire"   // snooze follow-up of an existing event
	ActionEscalate DeliveryAction = "escalate" // unattended timeout check
)

// Payload is carried by every registration and handed back on delivery.
type Payload struct {
	AlarmID   string         `json:"alarm_id"`
	EventID   string         `json:"event_id,omitempty"`
	Sound     string         `json:"sound,omitempty"`
	IsSnoozed bool           `json:"is_snoozed"`
	Action    DeliveryAction `json:"action"`
}

// Title returns the notification title for the payload.
func (p Payload) Title() string {
	if p.IsSnoozed {
		return "Alarm (Snoozed)"
	}
	return "Alarm"
}

// Registration is a scheduled local trigger.
type Registration struct {
	ID          string       `json:"id"`
	Kind        TriggerKind  `json:"kind"`
	Hour        int          `json:"hour,omitempty"`
	Minute      int          `json:"minute,omitempty"`
	Weekday     time.Weekday `json:"weekday,omitempty"`
	FireAt      time.Time    `json:"fire_at,omitempty"`
	Payload     Payload      `json:"payload"`
	CreatedAt   time.Time    `json:"created_at"`
	LastFiredAt time.Time    `json:"last_fired_at,omitempty"`
}

// SetKey sets the database key for this registration.
func (r *Registration) SetKey(key string) {
	r.ID = strings.TrimPrefix(key, PrefixTrigger+":")
}

// GetKey returns the database key for this registration.
func (r *Registration) GetKey() string {
	return GenerateTriggerKey(r.ID)
}

// IsRecurring returns true for weekly registrations.
func (r *Registration) IsRecurring() bool {
	return r.Kind == TriggerRecurring
}

// CronSpec returns the five-field cron expression of a recurring registration.
func (r *Registration) CronSpec() string {
	return fmt.Sprintf("%d %d * * %d", r.Minute, r.Hour, int(r.Weekday))
}

// GenerateTriggerKey generates a database key for a registration.
func GenerateTriggerKey(id string) string {
	return fmt.Sprintf("%s:%s", PrefixTrigger, id)
}

// DeliveryState is the singleton bookkeeping record of the delivery loop.
type DeliveryState struct {
	Key          string    `json:"key"`
	LastCheck    time.Time `json:"last_check"`
	LastDelivery time.Time `json:"last_delivery,omitempty"`
	Delivered    int64     `json:"delivered"`
	Dropped      int64     `json:"dropped"`
}

// SetKey sets the database key.
func (s *DeliveryState) SetKey(key string) {
	s.Key = key
}

// GetKey returns the database key.
func (s *DeliveryState) GetKey() string {
	return s.Key
}

// NewDeliveryState creates an empty delivery state.
func NewDeliveryState() *DeliveryState {
	return &DeliveryState{Key: KeyDeliveryState}
}
