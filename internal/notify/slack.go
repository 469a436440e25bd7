package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/manav03panchal/waketime/internal/model"
)

// SlackFormatter formats notifications for Slack incoming webhooks.
type SlackFormatter struct{}

type slackPayload struct {
	Text        string        `json:"text,omitempty"`
	Blocks      []slackBlock  `json:"blocks,omitempty"`
	Attachments []slackAttach `json:"attachments,omitempty"`
}

type slackBlock struct {
	Type     string           `json:"type"`
	Text     *slackBlockText  `json:"text,omitempty"`
	Fields   []slackBlockText `json:"fields,omitempty"`
	Elements []slackBlockText `json:"elements,omitempty"`
}

type slackBlockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// slackAttach carries the color bar.
type slackAttach struct {
	Color    string `json:"color,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// Format converts a notification to Slack block kit: a header, the
// message, one section of fields and a context footer. The attachment only
// carries the color bar.
func (f *SlackFormatter) Format(n *model.Notification) ([]byte, error) {
	msg := slackEscape(n.Message)
	blocks := []slackBlock{
		{Type: "header", Text: &slackBlockText{Type: "plain_text", Text: n.Title}},
		{Type: "section", Text: &slackBlockText{Type: "mrkdwn", Text: msg}},
	}

	if keys := sortedKeys(n.Fields); len(keys) > 0 {
		fields := make([]slackBlockText, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, slackBlockText{
				Type: "mrkdwn",
				Text: "*" + slackEscape(k) + "*\n" + slackEscape(n.Fields[k]),
			})
		}
		blocks = append(blocks, slackBlock{Type: "section", Fields: fields})
	}

	footer := fmt.Sprintf("waketime | %s | %s", n.TypeLabel(), n.Timestamp.Format("Mon Jan 2, 3:04 PM"))
	blocks = append(blocks, slackBlock{
		Type:     "context",
		Elements: []slackBlockText{{Type: "mrkdwn", Text: footer}},
	})

	return json.Marshal(slackPayload{
		Text:        fmt.Sprintf("*%s*: %s", n.Title, msg),
		Blocks:      blocks,
		Attachments: []slackAttach{{Color: colorToHex(colorOf(n)), Fallback: n.Title}},
	})
}

func (f *SlackFormatter) ContentType() string { return "application/json" }

func colorToHex(color int) string {
	return fmt.Sprintf("#%06X", color)
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// slackEscape escapes the characters Slack mrkdwn treats as control.
func slackEscape(s string) string {
	return slackEscaper.Replace(s)
}
