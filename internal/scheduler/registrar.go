package scheduler

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/model"
)

// Registrar turns alarm definitions into notifier registrations.
type Registrar struct {
	notifier Notifier
}

// NewRegistrar creates a registrar over the given notifier.
func NewRegistrar(n Notifier) *Registrar {
	return &Registrar{notifier: n}
}

// Notifier returns the underlying notifier.
func (r *Registrar) Notifier() Notifier {
	return r.notifier
}

// Register creates one weekly registration per enabled day of the alarm and
// returns the new ids. Disabled alarms and empty schedules register nothing.
// If any registration fails, the ones already created are cancelled.
func (r *Registrar) Register(ctx context.Context, alarm *model.Alarm) ([]string, error) {
	ids := []string{}
	if alarm == nil || !alarm.Enabled || !alarm.Schedule.Any() {
		return ids, nil
	}

	payload := model.Payload{
		AlarmID: alarm.ID,
		Sound:   alarm.SoundOrDefault(),
		Action:  model.ActionFire,
	}

	for _, day := range model.WeekOrder {
		if !alarm.Schedule.On(day) {
			continue
		}
		id, err := r.notifier.ScheduleRecurring(ctx, alarm.Time.Hour, alarm.Time.Minute, day, payload)
		if err != nil {
			r.rollback(ids)
			return nil, errors.Scheduling("register "+alarm.ID, err)
		}
		ids = append(ids, id)
	}

	logging.DebugLog("alarm registered",
		logging.KeyAlarmID, alarm.ID,
		logging.KeyCount, len(ids),
	)
	return ids, nil
}

// Unregister cancels the given registrations. Unknown ids are ignored; the
// first cancellation failure is reported after every id was attempted.
func (r *Registrar) Unregister(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := r.notifier.Cancel(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Scheduling("unregister", stderrors.Join(errs...))
	}
	return nil
}

// RescheduleSnooze registers a one-shot re-fire of an event after the given
// number of minutes.
func (r *Registrar) RescheduleSnooze(ctx context.Context, alarm *model.Alarm, eventID string, minutes int) (string, error) {
	if minutes < 1 {
		return "", errors.Scheduling("snooze", errors.ErrInvalidDuration)
	}
	return r.notifier.ScheduleOnceAfter(ctx, time.Duration(minutes)*time.Minute, model.Payload{
		AlarmID:   alarm.ID,
		EventID:   eventID,
		Sound:     alarm.SoundOrDefault(),
		IsSnoozed: true,
		Action:    model.ActionRefire,
	})
}

// ScheduleEscalation registers the unattended-timeout check of an event.
func (r *Registrar) ScheduleEscalation(ctx context.Context, alarm *model.Alarm, eventID string, timeout time.Duration) (string, error) {
	return r.notifier.ScheduleOnceAfter(ctx, timeout, model.Payload{
		AlarmID: alarm.ID,
		EventID: eventID,
		Sound:   alarm.SoundOrDefault(),
		Action:  model.ActionEscalate,
	})
}

// CancelEvent cancels every pending one-shot (re-fire or escalation) that
// belongs to the event and returns how many were removed. Notifiers that
// cannot list their registrations cancel nothing.
func (r *Registrar) CancelEvent(ctx context.Context, alarmID, eventID string) (int, error) {
	reg, ok := r.notifier.(Registry)
	if !ok {
		return 0, nil
	}
	all, err := reg.Registrations(ctx)
	if err != nil {
		return 0, errors.Scheduling("cancel event", err)
	}
	var ids []string
	for _, rr := range all {
		if rr.Kind == model.TriggerOnce && rr.Payload.AlarmID == alarmID && rr.Payload.EventID == eventID {
			ids = append(ids, rr.ID)
		}
	}
	return len(ids), r.Unregister(ctx, ids)
}

// CancelAlarm cancels every registration, recurring or one-shot, that
// belongs to the alarm. It sweeps ids that were never recorded on the alarm.
func (r *Registrar) CancelAlarm(ctx context.Context, alarmID string) (int, error) {
	reg, ok := r.notifier.(Registry)
	if !ok {
		return 0, nil
	}
	all, err := reg.Registrations(ctx)
	if err != nil {
		return 0, errors.Scheduling("cancel alarm", err)
	}
	var ids []string
	for _, rr := range all {
		if rr.Payload.AlarmID == alarmID {
			ids = append(ids, rr.ID)
		}
	}
	return len(ids), r.Unregister(ctx, ids)
}

func (r *Registrar) rollback(ids []string) {
	// the caller's context may be the reason registration failed
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Unregister(ctx, ids); err != nil {
		logging.Warn("registration rollback incomplete",
			logging.KeyCount, len(ids),
			logging.KeyError, err,
		)
	}
}
