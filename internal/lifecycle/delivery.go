package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/model"
)

// HandleDelivery routes a delivered registration by its action. Deliveries
// for missing or disabled alarms, unknown events and dismissed events are
// dropped with a log line and report no error.
func (e *Engine) HandleDelivery(ctx context.Context, p model.Payload, source model.TriggerSource) error {
	log := logging.FromContext(logging.WithAlarm(ctx, p.AlarmID)).With(
		logging.KeyEventID, p.EventID,
		logging.KeyAction, string(p.Action),
	)

	alarm, err := e.repo.Get(ctx, p.AlarmID)
	if errors.IsNotFound(err) {
		log.Info("delivery dropped", logging.KeyReason, "alarm missing")
		return nil
	}
	if err != nil {
		return err
	}
	if !alarm.Enabled {
		log.Info("delivery dropped", logging.KeyReason, "alarm disabled")
		return nil
	}

	switch p.Action {
	case model.ActionFire, "":
		_, err = e.Fire(ctx, alarm.ID, source)
		return err
	case model.ActionRefire:
		_, err = e.Refire(ctx, alarm.ID, p.EventID)
	case model.ActionEscalate:
		_, err = e.AutoSnooze(ctx, alarm.ID, p.EventID)
	default:
		log.Warn("delivery dropped", logging.KeyReason, "unknown action")
		return nil
	}

	switch {
	case errors.IsNotFound(err):
		log.Info("delivery dropped", logging.KeyReason, "event missing")
		return nil
	case isDismissed(err):
		log.Info("delivery dropped", logging.KeyReason, "event dismissed")
		e.cancelFollowUps(ctx, alarm.ID, p.EventID)
		return nil
	case isNotRinging(err):
		log.Info("delivery dropped", logging.KeyReason, "event not ringing")
		return nil
	}
	return err
}

// Deliver adapts the engine to the scheduler's delivery callback.
func (e *Engine) Deliver(ctx context.Context, p model.Payload, source model.TriggerSource) error {
	return e.HandleDelivery(ctx, p, source)
}

func isDismissed(err error) bool {
	ue, ok := errors.AsUserError(err)
	return ok && ue.Err == errors.ErrEventDismissed
}

func isNotRinging(err error) bool {
	ue, ok := errors.AsUserError(err)
	return ok && ue.Err == errors.ErrEventNotRinging
}

// BuildNotification describes a transition for webhook delivery.
func BuildNotification(kind model.NotificationType, alarm *model.Alarm, event model.TriggerEvent, now time.Time) *model.Notification {
	at := clock.FormatTimeOfDay(alarm.Time)
	var msg string
	switch kind {
	case model.NotifyFired:
		if event.SnoozeCount > 0 {
			msg = fmt.Sprintf("%s is ringing again (%s)", alarm.Label, at)
		} else {
			msg = fmt.Sprintf("%s is ringing (%s)", alarm.Label, at)
		}
	case model.NotifySnoozed:
		msg = fmt.Sprintf("%s snoozed for %d min", alarm.Label, alarm.SnoozeSettings.Duration)
	case model.NotifyAutoSnoozed:
		msg = fmt.Sprintf("%s went unanswered and was snoozed for %d min", alarm.Label, alarm.SnoozeSettings.Duration)
	case model.NotifyDismissed:
		msg = fmt.Sprintf("%s dismissed", alarm.Label)
		if d, ok := event.TimeToDismiss(); ok {
			msg = fmt.Sprintf("%s dismissed after %s", alarm.Label, d.Round(time.Second))
		}
	default:
		msg = alarm.Label
	}

	n := model.NewNotification(kind, "Alarm: "+alarm.Label, msg).
		WithColor(model.DefaultColorForType(kind)).
		WithTimestamp(now).
		WithField("Alarm", alarm.Label).
		WithField("Time", at).
		WithField("Snoozes", strconv.Itoa(event.SnoozeCount))
	if event.Source != "" {
		n.WithField("Source", string(event.Source))
	}
	return n
}
