// Package notify posts alarm lifecycle notifications to webhooks.
package notify

import (
	"sort"

	"github.com/manav03panchal/waketime/internal/model"
)

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the appropriate formatter for a webhook type.
func GetFormatter(webhookType string) Formatter {
	switch webhookType {
	case model.WebhookTypeDiscord:
		return &DiscordFormatter{}
	case model.WebhookTypeSlack:
		return &SlackFormatter{}
	default:
		return &GenericFormatter{}
	}
}

// FormatterFor returns the formatter a webhook is posted with.
func FormatterFor(w *model.Webhook) Formatter {
	t := w.EffectiveType()
	if t == model.WebhookTypeGeneric && w.Template != "" {
		return NewGenericFormatter(w.Template)
	}
	return GetFormatter(t)
}

// sortedKeys keeps embed fields in a stable order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func colorOf(n *model.Notification) int {
	if n.Color != 0 {
		return n.Color
	}
	return model.DefaultColorForType(n.Type)
}
