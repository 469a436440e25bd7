// Package lifecycle runs the trigger event state machine:
// active -> snoozed -> active (re-fire) ... -> dismissed.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/scheduler"
	"github.com/manav03panchal/waketime/internal/storage"
)

// DefaultEscalationTimeout is how long an active event may go unattended
// before it is snoozed automatically.
const DefaultEscalationTimeout = 2 * time.Minute

// Emitter receives lifecycle notifications. Implementations must not block.
type Emitter interface {
	Emit(ctx context.Context, n *model.Notification)
}

// Engine applies lifecycle transitions to stored alarms and keeps the
// matching one-shot registrations in step.
type Engine struct {
	repo       *storage.AlarmRepo
	registrar  *scheduler.Registrar
	escalation time.Duration
	emitter    Emitter
	now        func() time.Time
}

// NewEngine creates an engine.
func NewEngine(repo *storage.AlarmRepo, registrar *scheduler.Registrar) *Engine {
	return &Engine{
		repo:       repo,
		registrar:  registrar,
		escalation: DefaultEscalationTimeout,
		now:        time.Now,
	}
}

// WithEscalationTimeout overrides the unattended timeout.
func (e *Engine) WithEscalationTimeout(d time.Duration) *Engine {
	if d > 0 {
		e.escalation = d
	}
	return e
}

// WithEmitter sets where lifecycle notifications go.
func (e *Engine) WithEmitter(em Emitter) *Engine {
	e.emitter = em
	return e
}

// WithClock replaces the engine's clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Fire records a new active event for the alarm and arms its escalation.
// Older unresolved events of the alarm stop receiving follow-ups.
func (e *Engine) Fire(ctx context.Context, alarmID string, source model.TriggerSource) (*model.TriggerEvent, error) {
	alarm, err := e.repo.Get(ctx, alarmID)
	if err != nil {
		return nil, err
	}

	event := model.NewTriggerEvent(e.now(), source)
	for _, old := range alarm.History {
		if !old.IsResolved() {
			e.cancelFollowUps(ctx, alarm.ID, old.ID)
		}
	}
	if err := e.repo.AppendHistoryEvent(ctx, alarm.ID, event); err != nil {
		return nil, err
	}

	e.armEscalation(ctx, alarm, event.ID)
	logging.Info("alarm fired",
		logging.KeyAlarmID, alarm.ID,
		logging.KeyEventID, event.ID,
		logging.KeySource, string(source),
	)
	e.emit(ctx, model.NotifyFired, alarm, event)
	return &event, nil
}

// Snooze records a user snooze and schedules the re-fire.
func (e *Engine) Snooze(ctx context.Context, alarmID, eventID string) (*model.TriggerEvent, error) {
	return e.snooze(ctx, alarmID, eventID, model.NotifySnoozed)
}

// AutoSnooze snoozes an unattended event on the user's behalf. It fails
// with ErrEventNotRinging unless the event is still active, so a snooze or
// dismiss that lands first always wins.
func (e *Engine) AutoSnooze(ctx context.Context, alarmID, eventID string) (*model.TriggerEvent, error) {
	return e.snooze(ctx, alarmID, eventID, model.NotifyAutoSnoozed)
}

func (e *Engine) snooze(ctx context.Context, alarmID, eventID string, kind model.NotificationType) (*model.TriggerEvent, error) {
	now := e.now()
	var event model.TriggerEvent
	alarm, err := e.repo.Mutate(ctx, alarmID, func(a *model.Alarm) error {
		i := a.EventIndex(eventID)
		if i < 0 {
			return errors.EventNotFound(eventID)
		}
		if a.History[i].IsResolved() {
			return eventDismissed(eventID)
		}
		if kind == model.NotifyAutoSnoozed && a.History[i].Status != model.StatusActive {
			return eventNotRinging(eventID)
		}
		a.History[i].Apply(model.SnoozePatch(a.History[i], now))
		event = a.History[i].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.cancelFollowUps(ctx, alarm.ID, event.ID)
	if _, err := e.registrar.RescheduleSnooze(ctx, alarm, event.ID, alarm.SnoozeSettings.Duration); err != nil {
		// the event stays snoozed with nothing to re-fire it; ring --resume picks it up
		logging.Warn("snooze re-fire not scheduled",
			logging.KeyAlarmID, alarm.ID,
			logging.KeyEventID, event.ID,
			logging.KeyError, err,
			logging.KeyReason, "event stuck snoozed",
		)
		return &event, err
	}

	logging.Info("alarm snoozed",
		logging.KeyAlarmID, alarm.ID,
		logging.KeyEventID, event.ID,
		logging.KeyCount, event.SnoozeCount,
		"auto", kind == model.NotifyAutoSnoozed,
	)
	e.emit(ctx, kind, alarm, event)
	return &event, nil
}

// Dismiss resolves an event. Dismissing a dismissed event changes nothing
// and keeps the original dismissal time.
func (e *Engine) Dismiss(ctx context.Context, alarmID, eventID string) (*model.TriggerEvent, error) {
	now := e.now()
	var event model.TriggerEvent
	already := false
	alarm, err := e.repo.Mutate(ctx, alarmID, func(a *model.Alarm) error {
		i := a.EventIndex(eventID)
		if i < 0 {
			return errors.EventNotFound(eventID)
		}
		if a.History[i].IsResolved() {
			already = true
		} else {
			a.History[i].Apply(model.DismissPatch(now))
		}
		event = a.History[i].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// stale follow-ups are swept even on a repeated dismiss
	e.cancelFollowUps(ctx, alarm.ID, event.ID)
	if already {
		return &event, nil
	}

	logging.Info("alarm dismissed",
		logging.KeyAlarmID, alarm.ID,
		logging.KeyEventID, event.ID,
		logging.KeyCount, event.SnoozeCount,
	)
	e.emit(ctx, model.NotifyDismissed, alarm, event)
	return &event, nil
}

// Refire brings a snoozed event back to active when its snooze elapses.
func (e *Engine) Refire(ctx context.Context, alarmID, eventID string) (*model.TriggerEvent, error) {
	var event model.TriggerEvent
	alarm, err := e.repo.Mutate(ctx, alarmID, func(a *model.Alarm) error {
		i := a.EventIndex(eventID)
		if i < 0 {
			return errors.EventNotFound(eventID)
		}
		if a.History[i].IsResolved() {
			return eventDismissed(eventID)
		}
		a.History[i].Apply(model.ActivatePatch())
		event = a.History[i].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.armEscalation(ctx, alarm, event.ID)
	logging.Info("alarm re-fired",
		logging.KeyAlarmID, alarm.ID,
		logging.KeyEventID, event.ID,
		logging.KeyCount, event.SnoozeCount,
	)
	e.emit(ctx, model.NotifyFired, alarm, event)
	return &event, nil
}

// Pending returns the newest unresolved event of an alarm.
func (e *Engine) Pending(ctx context.Context, alarmID string) (*model.Alarm, *model.TriggerEvent, error) {
	alarm, err := e.repo.Get(ctx, alarmID)
	if err != nil {
		return nil, nil, err
	}
	event, ok := alarm.PendingEvent()
	if !ok {
		return alarm, nil, &errors.UserError{
			Message:    fmt.Sprintf("alarm %q has nothing ringing", alarm.Label),
			Suggestion: "Use 'waketime ring " + alarm.ShortID() + "' to test-fire it",
			Err:        errors.ErrNoPendingEvent,
		}
	}
	return alarm, &event, nil
}

// Resolution is what the trigger-resolution screen needs.
type Resolution struct {
	Alarm   *model.Alarm
	Event   model.TriggerEvent
	Resumed bool
}

// Title returns the ring screen headline.
func (r Resolution) Title() string {
	return fmt.Sprintf("%s  %s", clock.FormatTime(r.Alarm.Time.Hour, r.Alarm.Time.Minute), r.Alarm.Label)
}

// Resolve routes a tapped notification to the event it belongs to. An
// empty eventID resumes the newest unresolved event.
func (e *Engine) Resolve(ctx context.Context, alarmID, eventID string) (*Resolution, error) {
	if eventID == "" {
		alarm, event, err := e.Pending(ctx, alarmID)
		if err != nil {
			return nil, err
		}
		return &Resolution{Alarm: alarm, Event: *event, Resumed: true}, nil
	}
	alarm, err := e.repo.Get(ctx, alarmID)
	if err != nil {
		return nil, err
	}
	event, ok := alarm.Event(eventID)
	if !ok {
		return nil, errors.EventNotFound(eventID)
	}
	return &Resolution{Alarm: alarm, Event: event, Resumed: true}, nil
}

func (e *Engine) armEscalation(ctx context.Context, alarm *model.Alarm, eventID string) {
	if _, err := e.registrar.ScheduleEscalation(ctx, alarm, eventID, e.escalation); err != nil {
		logging.Warn("escalation not armed",
			logging.KeyAlarmID, alarm.ID,
			logging.KeyEventID, eventID,
			logging.KeyError, err,
		)
	}
}

func (e *Engine) cancelFollowUps(ctx context.Context, alarmID, eventID string) {
	if _, err := e.registrar.CancelEvent(ctx, alarmID, eventID); err != nil {
		logging.Warn("follow-up cancel failed",
			logging.KeyAlarmID, alarmID,
			logging.KeyEventID, eventID,
			logging.KeyError, err,
		)
	}
}

func (e *Engine) emit(ctx context.Context, kind model.NotificationType, alarm *model.Alarm, event model.TriggerEvent) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(ctx, BuildNotification(kind, alarm, event, e.now()))
}

func eventDismissed(eventID string) error {
	return &errors.UserError{
		Message:    "this alarm was already dismissed",
		Field:      "event",
		Value:      eventID,
		Suggestion: "Nothing to do; wait for the next scheduled ring",
		Err:        errors.ErrEventDismissed,
	}
}

func eventNotRinging(eventID string) error {
	return &errors.UserError{
		Message:    "this alarm is no longer ringing",
		Field:      "event",
		Value:      eventID,
		Suggestion: "It was snoozed or dismissed in the meantime",
		Err:        errors.ErrEventNotRinging,
	}
}
