package notify

import (
	"bytes"
	"encoding/json"
	"text/template"
	"time"

	"github.com/manav03panchal/waketime/internal/model"
)

// GenericFormatter posts a flat JSON event, or renders Template when the
// webhook config supplies one. Template fields: Type, Label, Title,
// Message, Fields, Timestamp, Color.
type GenericFormatter struct {
	Template string
}

// NewGenericFormatter creates a generic formatter with an optional template.
func NewGenericFormatter(tmpl string) *GenericFormatter {
	return &GenericFormatter{Template: tmpl}
}

type genericEvent struct {
	Type      string            `json:"type"`
	Label     string            `json:"label"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp string            `json:"timestamp"`
	Color     int               `json:"color,omitempty"`

	at time.Time
}

func newGenericEvent(n *model.Notification) genericEvent {
	return genericEvent{
		Type:      string(n.Type),
		Label:     n.TypeLabel(),
		Title:     n.Title,
		Message:   n.Message,
		Fields:    n.Fields,
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		Color:     colorOf(n),
		at:        n.Timestamp,
	}
}

func (f *GenericFormatter) Format(n *model.Notification) ([]byte, error) {
	ev := newGenericEvent(n)
	if f.Template == "" {
		return json.Marshal(ev)
	}

	tmpl, err := template.New("webhook").Option("missingkey=zero").Parse(f.Template)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"Type":      ev.Type,
		"Label":     ev.Label,
		"Title":     ev.Title,
		"Message":   ev.Message,
		"Fields":    ev.Fields,
		"Timestamp": ev.at,
		"Color":     ev.Color,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *GenericFormatter) ContentType() string { return "application/json" }
