package model

import (
	"strings"
)

// Webhook type constants.
const (
	WebhookTypeDiscord = "discord"
	WebhookTypeSlack   = "slack"
	WebhookTypeGeneric = "generic"
)

// Webhook is a notification target declared in the config file.
type Webhook struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name" validate:"required,max=50"`
	Type     string   `json:"type" yaml:"type" mapstructure:"type" validate:"omitempty,oneof=discord slack generic"`
	URL      string   `json:"url" yaml:"url" mapstructure:"url" validate:"required,url"`
	Events   []string `json:"events,omitempty" yaml:"events,omitempty" mapstructure:"events"`
	Template string   `json:"template,omitempty" yaml:"template,omitempty" mapstructure:"template"`
	Disabled bool     `json:"disabled,omitempty" yaml:"disabled,omitempty" mapstructure:"disabled"`
}

// IsEnabled returns true if the webhook is enabled.
func (w *Webhook) IsEnabled() bool {
	return !w.Disabled
}

// EffectiveType returns the configured type or one detected from the URL.
func (w *Webhook) EffectiveType() string {
	if w.Type != "" {
		return w.Type
	}
	return DetectWebhookType(w.URL)
}

// Wants reports whether the webhook subscribes to a notification type.
// An empty event list subscribes to everything; "*" and "alarm.*" are
// wildcards.
func (w *Webhook) Wants(t NotificationType) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == "*" || e == string(t) {
			return true
		}
		if prefix, ok := strings.CutSuffix(e, "*"); ok && strings.HasPrefix(string(t), prefix) {
			return true
		}
	}
	return false
}

var webhookHosts = []struct {
	marker string
	kind   string
}{
	{"discord.com/api/webhooks", WebhookTypeDiscord},
	{"discordapp.com/api/webhooks", WebhookTypeDiscord},
	{"hooks.slack.com", WebhookTypeSlack},
}

// DetectWebhookType guesses the payload flavor from well-known hosts.
func DetectWebhookType(url string) string {
	lower := strings.ToLower(url)
	for _, h := range webhookHosts {
		if strings.Contains(lower, h.marker) {
			return h.kind
		}
	}
	return WebhookTypeGeneric
}
