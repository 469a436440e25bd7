package model

import (
	"time"
)

// NotificationType names a lifecycle transition webhooks can subscribe to.
type NotificationType string

const (
	NotifyFired       NotificationType = "alarm.fired"
	NotifySnoozed     NotificationType = "alarm.snoozed"
	NotifyAutoSnoozed NotificationType = "alarm.auto_snoozed"
	NotifyDismissed   NotificationType = "alarm.dismissed"
	NotifyTest        NotificationType = "test"
)

// Embed colors, Discord-compatible.
const (
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorInfo    = 0x5865F2
	ColorError   = 0xED4245
	ColorPrimary = 0x3498DB
)

var notificationKinds = map[NotificationType]struct {
	label string
	color int
}{
	NotifyFired:       {"Alarm Ringing", ColorPrimary},
	NotifySnoozed:     {"Snoozed", ColorWarning},
	NotifyAutoSnoozed: {"Auto-Snoozed", ColorError},
	NotifyDismissed:   {"Dismissed", ColorSuccess},
	NotifyTest:        {"Test Notification", ColorInfo},
}

// AllNotificationTypes lists the lifecycle notifications webhooks can
// subscribe to. The test type is always delivered.
func AllNotificationTypes() []NotificationType {
	return []NotificationType{NotifyFired, NotifySnoozed, NotifyAutoSnoozed, NotifyDismissed}
}

// DefaultColorForType is the embed color for t, info for unknown types.
func DefaultColorForType(t NotificationType) int {
	if k, ok := notificationKinds[t]; ok {
		return k.color
	}
	return ColorInfo
}

// Notification is one webhook message. Fields become embed fields or
// Slack section fields depending on the target.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Color     int               `json:"color,omitempty"`
}

func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    map[string]string{},
		Timestamp: time.Now(),
	}
}

func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = map[string]string{}
	}
	n.Fields[key] = value
	return n
}

func (n *Notification) WithColor(color int) *Notification {
	n.Color = color
	return n
}

// WithTimestamp pins the notification to the transition time rather than
// the time it was built.
func (n *Notification) WithTimestamp(at time.Time) *Notification {
	n.Timestamp = at
	return n
}

// TypeLabel is the human-readable name shown in footers.
func (n *Notification) TypeLabel() string {
	if k, ok := notificationKinds[n.Type]; ok {
		return k.label
	}
	return "Notification"
}
