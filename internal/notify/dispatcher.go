package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/model"
)

// emitTimeout bounds a background delivery, retries included.
const emitTimeout = 2 * time.Minute

// Dispatcher sends notifications to the configured webhooks.
type Dispatcher struct {
	webhooks   []model.Webhook
	httpClient *HTTPClient
	pending    sync.WaitGroup
}

// NewDispatcher creates a dispatcher for the given webhooks.
func NewDispatcher(webhooks []model.Webhook, client *HTTPClient) *Dispatcher {
	return &Dispatcher{
		webhooks:   append([]model.Webhook(nil), webhooks...),
		httpClient: client,
	}
}

// DispatchResult contains the result of dispatching to a single webhook.
type DispatchResult struct {
	WebhookName string
	Success     bool
	StatusCode  int
	Attempts    int
	Duration    time.Duration
	Error       error
}

// targets returns the enabled webhooks subscribed to t.
func (d *Dispatcher) targets(t model.NotificationType) []*model.Webhook {
	var out []*model.Webhook
	for i := range d.webhooks {
		w := &d.webhooks[i]
		if w.IsEnabled() && (t == model.NotifyTest || w.Wants(t)) {
			out = append(out, w)
		}
	}
	return out
}

// SendNotification sends n to every subscribed webhook concurrently and
// waits for the results.
func (d *Dispatcher) SendNotification(ctx context.Context, n *model.Notification) []DispatchResult {
	hooks := d.targets(n.Type)
	if len(hooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make([]DispatchResult, len(hooks))
	for i, hook := range hooks {
		wg.Add(1)
		go func(idx int, wh *model.Webhook) {
			defer wg.Done()
			results[idx] = d.sendToWebhook(ctx, n, wh)
		}(i, hook)
	}
	wg.Wait()
	return results
}

// Emit sends n in the background. Failures are logged; they never reach
// the caller.
func (d *Dispatcher) Emit(ctx context.Context, n *model.Notification) {
	if len(d.targets(n.Type)) == 0 {
		return
	}
	requestID := logging.RequestID(ctx)

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		bg, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if requestID != "" {
			bg = logging.WithRequestID(bg, requestID)
		}

		for _, r := range d.SendNotification(bg, n) {
			if r.Success {
				logging.DebugLog("webhook delivered",
					logging.KeyWebhook, r.WebhookName,
					logging.KeyStatus, r.StatusCode,
					logging.KeyDuration, r.Duration.Milliseconds(),
				)
				continue
			}
			logging.WarnContext(bg, "webhook failed",
				logging.KeyWebhook, r.WebhookName,
				logging.KeyStatus, r.StatusCode,
				"attempts", r.Attempts,
				logging.KeyError, r.Error,
			)
		}
	}()
}

// Wait blocks until background deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) sendToWebhook(ctx context.Context, n *model.Notification, webhook *model.Webhook) DispatchResult {
	result := DispatchResult{WebhookName: webhook.Name}

	formatter := FormatterFor(webhook)
	payload, err := formatter.Format(n)
	if err != nil {
		result.Error = fmt.Errorf("failed to format notification: %w", err)
		return result
	}

	sent := d.httpClient.Send(ctx, webhook.URL, formatter.ContentType(), payload)
	result.StatusCode = sent.StatusCode
	result.Attempts = sent.Attempts
	result.Duration = sent.Duration
	result.Error = sent.Error
	result.Success = sent.Error == nil
	return result
}

// SendToSingle sends a notification to a single webhook by name.
func (d *Dispatcher) SendToSingle(ctx context.Context, n *model.Notification, webhookName string) DispatchResult {
	for i := range d.webhooks {
		if d.webhooks[i].Name == webhookName {
			return d.sendToWebhook(ctx, n, &d.webhooks[i])
		}
	}
	return DispatchResult{
		WebhookName: webhookName,
		Error:       fmt.Errorf("webhook %q is not configured", webhookName),
	}
}

// TestWebhook sends a test notification to a specific webhook.
func (d *Dispatcher) TestWebhook(ctx context.Context, webhookName string) DispatchResult {
	n := model.NewNotification(
		model.NotifyTest,
		"waketime test",
		"This is a test notification from waketime. If you see this, your webhook is configured correctly!",
	).WithField("Webhook", webhookName).WithField("Time", time.Now().Format("3:04 PM"))

	return d.SendToSingle(ctx, n, webhookName)
}

// Webhooks returns the configured webhooks.
func (d *Dispatcher) Webhooks() []model.Webhook {
	return append([]model.Webhook(nil), d.webhooks...)
}

// CountEnabledWebhooks returns the number of enabled webhooks.
func (d *Dispatcher) CountEnabledWebhooks() int {
	n := 0
	for i := range d.webhooks {
		if d.webhooks[i].IsEnabled() {
			n++
		}
	}
	return n
}

// HasEnabledWebhooks returns true if any webhook is enabled.
func (d *Dispatcher) HasEnabledWebhooks() bool {
	return d.CountEnabledWebhooks() > 0
}
