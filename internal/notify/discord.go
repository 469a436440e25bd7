package notify

import (
	"encoding/json"
	"time"

	"github.com/manav03panchal/waketime/internal/model"
)

// DiscordFormatter formats notifications for Discord webhooks.
type DiscordFormatter struct{}

type discordPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

// Format converts a notification to a single Discord embed. A ringing
// alarm also sets the message content so it pings on mobile.
func (f *DiscordFormatter) Format(n *model.Notification) ([]byte, error) {
	keys := sortedKeys(n.Fields)
	fields := make([]discordEmbedField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, discordEmbedField{Name: k, Value: n.Fields[k], Inline: true})
	}

	p := discordPayload{
		Username: "waketime",
		Embeds: []discordEmbed{{
			Title:       n.Title,
			Description: n.Message,
			Color:       colorOf(n),
			Fields:      fields,
			Footer:      &discordEmbedFooter{Text: "waketime | " + n.TypeLabel()},
			Timestamp:   n.Timestamp.UTC().Format(time.RFC3339),
		}},
	}
	if n.Type == model.NotifyFired {
		p.Content = "⏰ " + n.Message
	}
	return json.Marshal(p)
}

func (f *DiscordFormatter) ContentType() string { return "application/json" }
