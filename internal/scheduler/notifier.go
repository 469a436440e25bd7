package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/storage"
)

// Notifier is the local-notification primitive alarms are registered with.
type Notifier interface {
	// ScheduleRecurring registers a weekly trigger at hour:minute local time.
	ScheduleRecurring(ctx context.Context, hour, minute int, weekday time.Weekday, payload model.Payload) (string, error)
	// ScheduleOnceAfter registers a one-shot trigger delay from now.
	ScheduleOnceAfter(ctx context.Context, delay time.Duration, payload model.Payload) (string, error)
	// Cancel removes a registration. Unknown ids are not an error.
	Cancel(ctx context.Context, id string) error
	// CancelAll removes every registration.
	CancelAll(ctx context.Context) error
	// RequestPermission reports whether notifications may be delivered.
	RequestPermission(ctx context.Context) (bool, error)
}

// Registry is a Notifier whose registrations can be listed.
type Registry interface {
	Notifier
	Registrations(ctx context.Context) ([]*model.Registration, error)
}

// Delivery is a registration whose slot came due.
type Delivery struct {
	Registration *model.Registration
	Slot         time.Time
}

// Payload returns the registration payload.
func (d Delivery) Payload() model.Payload {
	return d.Registration.Payload
}

// StoreNotifier keeps registrations as durable records so they survive
// process restarts and are delivered by whichever process polls the store.
type StoreNotifier struct {
	repo    *storage.RegistrationRepo
	enabled bool
	now     func() time.Time
}

// NewStoreNotifier creates a notifier backed by the store. enabled is the
// answer RequestPermission gives.
func NewStoreNotifier(store storage.Store, enabled bool) *StoreNotifier {
	return &StoreNotifier{
		repo:    storage.NewRegistrationRepo(store),
		enabled: enabled,
		now:     time.Now,
	}
}

// WithClock replaces the notifier's clock.
func (n *StoreNotifier) WithClock(now func() time.Time) *StoreNotifier {
	n.now = now
	return n
}

// ScheduleRecurring registers a weekly trigger.
func (n *StoreNotifier) ScheduleRecurring(ctx context.Context, hour, minute int, weekday time.Weekday, payload model.Payload) (string, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || weekday < time.Sunday || weekday > time.Saturday {
		return "", errors.Scheduling("schedule recurring", errors.ErrInvalidTime)
	}
	reg := &model.Registration{
		ID:        uuid.New().String(),
		Kind:      model.TriggerRecurring,
		Hour:      hour,
		Minute:    minute,
		Weekday:   weekday,
		Payload:   payload,
		CreatedAt: n.now(),
	}
	if _, err := cron.ParseStandard(reg.CronSpec()); err != nil {
		return "", errors.Scheduling("schedule recurring", err)
	}
	if err := n.repo.Put(ctx, reg); err != nil {
		return "", errors.Scheduling("schedule recurring", err)
	}
	return reg.ID, nil
}

// ScheduleOnceAfter registers a one-shot trigger.
func (n *StoreNotifier) ScheduleOnceAfter(ctx context.Context, delay time.Duration, payload model.Payload) (string, error) {
	if delay < 0 {
		return "", errors.Scheduling("schedule once", errors.ErrInvalidDuration)
	}
	now := n.now()
	reg := &model.Registration{
		ID:        uuid.New().String(),
		Kind:      model.TriggerOnce,
		FireAt:    now.Add(delay),
		Payload:   payload,
		CreatedAt: now,
	}
	if err := n.repo.Put(ctx, reg); err != nil {
		return "", errors.Scheduling("schedule once", err)
	}
	return reg.ID, nil
}

// Cancel removes a registration.
func (n *StoreNotifier) Cancel(ctx context.Context, id string) error {
	if _, err := n.repo.Delete(ctx, id); err != nil {
		return errors.Scheduling("cancel", err)
	}
	return nil
}

// CancelAll removes every registration.
func (n *StoreNotifier) CancelAll(ctx context.Context) error {
	if _, err := n.repo.DeleteAll(ctx); err != nil {
		return errors.Scheduling("cancel all", err)
	}
	return nil
}

// RequestPermission reports the notifications.enabled setting.
func (n *StoreNotifier) RequestPermission(context.Context) (bool, error) {
	return n.enabled, nil
}

// Registrations lists every registration.
func (n *StoreNotifier) Registrations(ctx context.Context) ([]*model.Registration, error) {
	return n.repo.List(ctx)
}

// Due returns the deliveries whose slot lies in (since, now], oldest first.
// A recurring registration contributes only its latest missed slot and
// never a slot from before it was created. One-shots are due once their
// fire time has passed.
func (n *StoreNotifier) Due(ctx context.Context, since, now time.Time) ([]Delivery, error) {
	regs, err := n.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var due []Delivery
	for _, reg := range regs {
		switch reg.Kind {
		case model.TriggerOnce:
			if !reg.FireAt.After(now) {
				due = append(due, Delivery{Registration: reg, Slot: reg.FireAt})
			}
		case model.TriggerRecurring:
			if slot, ok := LatestSlot(reg, since, now); ok {
				due = append(due, Delivery{Registration: reg, Slot: slot})
			}
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Slot.Before(due[j].Slot)
	})
	return due, nil
}

// Ack records that deliveries were handed out: one-shots are removed and
// recurring registrations remember their slot.
func (n *StoreNotifier) Ack(ctx context.Context, deliveries ...Delivery) error {
	var fired []*model.Registration
	var done []string
	for _, d := range deliveries {
		if d.Registration.Kind == model.TriggerOnce {
			done = append(done, d.Registration.ID)
			continue
		}
		reg := *d.Registration
		reg.LastFiredAt = d.Slot
		fired = append(fired, &reg)
	}
	if len(done) > 0 {
		if _, err := n.repo.Delete(ctx, done...); err != nil {
			return err
		}
	}
	if len(fired) > 0 {
		// a registration cancelled mid-tick must stay cancelled
		for _, reg := range fired {
			if _, err := n.repo.Get(ctx, reg.ID); err != nil {
				if storage.IsErrKeyNotFound(err) {
					continue
				}
				return err
			}
			if err := n.repo.Put(ctx, reg); err != nil {
				return err
			}
		}
	}
	return nil
}

// LatestSlot returns the newest weekly slot of a recurring registration in
// (since, now], evaluated in now's location.
func LatestSlot(reg *model.Registration, since, now time.Time) (time.Time, bool) {
	sched, err := cron.ParseStandard(reg.CronSpec())
	if err != nil {
		return time.Time{}, false
	}

	from := since
	if reg.CreatedAt.After(from) {
		from = reg.CreatedAt
	}
	if reg.LastFiredAt.After(from) {
		from = reg.LastFiredAt
	}
	from = from.In(now.Location())

	slot := sched.Next(from)
	if slot.IsZero() || slot.After(now) {
		return time.Time{}, false
	}
	for {
		next := sched.Next(slot)
		if next.IsZero() || next.After(now) {
			return slot, true
		}
		slot = next
	}
}

// NextSlot returns the next time a registration will be delivered after now.
func NextSlot(reg *model.Registration, now time.Time) (time.Time, bool) {
	if reg.Kind == model.TriggerOnce {
		return reg.FireAt, true
	}
	sched, err := cron.ParseStandard(reg.CronSpec())
	if err != nil {
		return time.Time{}, false
	}
	next := sched.Next(now)
	return next, !next.IsZero()
}
