// Package model defines alarms, trigger events, registrations and the
// notifications built from them.
package model

// Model is anything persisted under its own store key.
type Model interface {
	SetKey(key string)
	GetKey() string
}

// Store key prefixes. Alarms and registrations are "prefix:id"; delivery
// state is a single record.
const (
	PrefixAlarm      = "alarm"
	PrefixTrigger    = "trigger"
	KeyDeliveryState = "state:delivery"
)
