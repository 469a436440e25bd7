// Package alarms owns the in-memory alarm collection and the flows that
// change alarm definitions while keeping their triggers registered.
package alarms

import (
	"context"
	"sync"
	"time"

	"github.com/manav03panchal/waketime/internal/clock"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/logging"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/scheduler"
	"github.com/manav03panchal/waketime/internal/storage"
	"github.com/manav03panchal/waketime/internal/validate"
)

// Draft is the user-editable part of an alarm.
type Draft struct {
	Label    string
	Time     model.TimeOfDay
	Schedule model.Schedule
	Sound    string
	Snooze   int // minutes
}

// Changes is a partial edit of an alarm. Nil fields are left unchanged.
type Changes struct {
	Label    *string
	Time     *model.TimeOfDay
	Schedule *model.Schedule
	Sound    *string
	Snooze   *int
	Enabled  *bool
}

// IsEmpty reports whether the edit changes nothing.
func (c Changes) IsEmpty() bool {
	return c.Label == nil && c.Time == nil && c.Schedule == nil &&
		c.Sound == nil && c.Snooze == nil && c.Enabled == nil
}

// affectsTriggers reports whether the registered triggers must be rebuilt.
func (c Changes) affectsTriggers() bool {
	return c.Time != nil || c.Schedule != nil || c.Sound != nil || c.Enabled != nil
}

// Service is the single authoritative alarm cache. Views hold ids and ask
// the service for copies.
type Service struct {
	repo      *storage.AlarmRepo
	registrar *scheduler.Registrar
	locks     *storage.KeyedMutex
	now       func() time.Time

	mu     sync.RWMutex
	cache  map[string]*model.Alarm
	loaded bool
}

// NewService creates a service.
func NewService(repo *storage.AlarmRepo, registrar *scheduler.Registrar) *Service {
	return &Service{
		repo:      repo,
		registrar: registrar,
		locks:     storage.NewKeyedMutex(),
		now:       time.Now,
		cache:     map[string]*model.Alarm{},
	}
}

// WithClock replaces the clock used for creation times.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Reload replaces the cache with the stored collection.
func (s *Service) Reload(ctx context.Context) error {
	list, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	cache := make(map[string]*model.Alarm, len(list))
	for _, a := range list {
		cache[a.ID] = a
	}

	s.mu.Lock()
	s.cache = cache
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Invalidate drops the cache; the next read reloads it.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = map[string]*model.Alarm{}
	s.loaded = false
	s.mu.Unlock()
}

func (s *Service) ensure(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Reload(ctx)
}

func (s *Service) store(a *model.Alarm) {
	s.mu.Lock()
	if s.loaded {
		s.cache[a.ID] = a.Clone()
	}
	s.mu.Unlock()
}

func (s *Service) forget(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

// IDs returns every alarm id ordered by time of day, then label.
func (s *Service) IDs(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids, nil
}

// List returns copies of every alarm ordered by time of day.
func (s *Service) List(ctx context.Context) ([]*model.Alarm, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*model.Alarm, 0, len(s.cache))
	for _, a := range s.cache {
		out = append(out, a.Clone())
	}
	s.mu.RUnlock()
	clock.SortByTime(out)
	return out, nil
}

// Get returns a copy of one alarm.
func (s *Service) Get(ctx context.Context, id string) (*model.Alarm, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	a, ok := s.cache[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.AlarmNotFound(id)
	}
	return a.Clone(), nil
}

// Resolve finds an alarm by id or unique id prefix.
func (s *Service) Resolve(ctx context.Context, ref string) (*model.Alarm, error) {
	if a, err := s.Get(ctx, ref); err == nil {
		return a, nil
	}
	return s.repo.Resolve(ctx, ref)
}

// Create validates a draft, registers its triggers and stores it.
func (s *Service) Create(ctx context.Context, d Draft) (*model.Alarm, error) {
	a := model.NewAlarm(validate.SanitizeLabel(d.Label), d.Time, d.Schedule, d.Snooze)
	a.Sound = d.Sound
	a.CreatedAt = s.now()
	if err := validate.Alarm(a); err != nil {
		return nil, err
	}
	return s.insert(ctx, a)
}

func (s *Service) insert(ctx context.Context, a *model.Alarm) (*model.Alarm, error) {
	unlock := s.locks.Lock(a.ID)
	defer unlock()

	ids, err := s.registrar.Register(ctx, a)
	if err != nil {
		return nil, err
	}
	a.NotificationIDs = ids
	if err := s.repo.Upsert(ctx, a); err != nil {
		s.unregisterQuietly(ids)
		return nil, err
	}

	s.store(a)
	logging.Info("alarm created", logging.KeyAlarmID, a.ID, logging.KeyCount, len(ids))
	return a.Clone(), nil
}

// Update applies an edit. When the time, schedule, sound or enabled flag
// changes, the previous triggers are cancelled and a fresh set registered;
// if that fails the previous definition and its triggers are restored.
func (s *Service) Update(ctx context.Context, id string, c Changes) (*model.Alarm, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := old.Clone()
	apply(next, c)
	if err := validate.Alarm(next); err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return old, nil
	}

	if !c.affectsTriggers() {
		saved, err := s.repo.Mutate(ctx, id, func(a *model.Alarm) error {
			copyDefinition(a, next)
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.store(saved)
		return saved.Clone(), nil
	}

	if err := s.registrar.Unregister(ctx, old.NotificationIDs); err != nil {
		// some old ids may be gone already; clear the rest before re-registering
		s.unregisterQuietly(old.NotificationIDs)
		s.restore(old)
		return nil, err
	}
	if !next.Enabled {
		// pending snooze re-fires and escalations go with the alarm
		if _, err := s.registrar.CancelAlarm(ctx, id); err != nil {
			s.restore(old)
			return nil, err
		}
	}

	ids, err := s.registrar.Register(ctx, next)
	if err != nil {
		s.restore(old)
		return nil, err
	}
	next.NotificationIDs = ids

	saved, err := s.repo.Mutate(ctx, id, func(a *model.Alarm) error {
		copyDefinition(a, next)
		a.NotificationIDs = ids
		return nil
	})
	if err != nil {
		s.unregisterQuietly(ids)
		s.restore(old)
		return nil, err
	}

	s.store(saved)
	logging.Info("alarm updated", logging.KeyAlarmID, id, logging.KeyCount, len(ids))
	return saved.Clone(), nil
}

// SetEnabled toggles an alarm.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (*model.Alarm, error) {
	return s.Update(ctx, id, Changes{Enabled: &enabled})
}

// Delete cancels every trigger of the alarm and removes it with its
// history. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	a, err := s.repo.Get(ctx, id)
	if errors.IsNotFound(err) {
		s.forget(id)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.registrar.Unregister(ctx, a.NotificationIDs); err != nil {
		return err
	}
	if _, err := s.registrar.CancelAlarm(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}

	s.forget(id)
	logging.Info("alarm deleted", logging.KeyAlarmID, id)
	return nil
}

// Duplicate creates a copy of an alarm's definition with a fresh id and
// empty history.
func (s *Service) Duplicate(ctx context.Context, id string) (*model.Alarm, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	label := validate.TruncateString(src.Label+" (copy)", validate.MaxLabelLength)
	return s.Create(ctx, Draft{
		Label:    label,
		Time:     src.Time,
		Schedule: src.Schedule,
		Sound:    src.Sound,
		Snooze:   src.SnoozeSettings.Duration,
	})
}

// Import stores alarms from an exported collection, re-registering their
// triggers. With replace the existing collection is deleted first;
// otherwise alarms are merged by id.
func (s *Service) Import(ctx context.Context, incoming []*model.Alarm, replace bool) (int, error) {
	for _, a := range incoming {
		if err := validate.Alarm(a); err != nil {
			return 0, err
		}
	}

	if replace {
		existing, err := s.repo.List(ctx)
		if err != nil {
			return 0, err
		}
		for _, a := range existing {
			if err := s.Delete(ctx, a.ID); err != nil {
				return 0, err
			}
		}
	}

	n := 0
	for _, a := range incoming {
		a = a.Clone()
		if old, err := s.repo.Get(ctx, a.ID); err == nil {
			if err := s.registrar.Unregister(ctx, old.NotificationIDs); err != nil {
				return n, err
			}
		}
		if _, err := s.insert(ctx, a); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Resync cancels every registration and registers all alarms again.
// It repairs drift between stored ids and the notifier.
func (s *Service) Resync(ctx context.Context) (int, error) {
	if err := s.registrar.Notifier().CancelAll(ctx); err != nil {
		return 0, err
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, a := range list {
		unlock := s.locks.Lock(a.ID)
		ids, err := s.registrar.Register(ctx, a)
		if err == nil {
			var saved *model.Alarm
			saved, err = s.repo.Mutate(ctx, a.ID, func(m *model.Alarm) error {
				m.NotificationIDs = ids
				return nil
			})
			if err == nil {
				s.store(saved)
			}
		}
		unlock()
		if err != nil {
			return total, err
		}
		total += len(ids)
	}
	return total, nil
}

// Next returns the upcoming rings of enabled alarms.
func (s *Service) Next(ctx context.Context, n int) ([]clock.Occurrence, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return clock.Upcoming(list, s.now(), n), nil
}

// restore re-registers the previous definition after a failed edit and
// records the ids it got. Failures are logged; the caller already reports
// the original error.
func (s *Service) restore(old *model.Alarm) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids, err := s.registrar.Register(ctx, old)
	if err != nil {
		logging.Error("restore failed", logging.KeyAlarmID, old.ID, logging.KeyError, err)
		ids = []string{}
	}
	saved, err := s.repo.Mutate(ctx, old.ID, func(a *model.Alarm) error {
		copyDefinition(a, old)
		a.NotificationIDs = ids
		return nil
	})
	if err != nil {
		s.unregisterQuietly(ids)
		logging.Error("restore failed", logging.KeyAlarmID, old.ID, logging.KeyError, err)
		s.Invalidate()
		return
	}
	s.store(saved)
}

func (s *Service) unregisterQuietly(ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.registrar.Unregister(ctx, ids); err != nil {
		logging.Warn("orphaned registrations", logging.KeyCount, len(ids), logging.KeyError, err)
	}
}

func apply(a *model.Alarm, c Changes) {
	if c.Label != nil {
		a.Label = validate.SanitizeLabel(*c.Label)
	}
	if c.Time != nil {
		a.Time = *c.Time
	}
	if c.Schedule != nil {
		a.Schedule = *c.Schedule
	}
	if c.Sound != nil {
		a.Sound = *c.Sound
	}
	if c.Snooze != nil {
		a.SnoozeSettings.Duration = *c.Snooze
	}
	if c.Enabled != nil {
		a.Enabled = *c.Enabled
	}
}

// copyDefinition copies the editable fields; history written concurrently
// by the lifecycle engine is kept.
func copyDefinition(dst, src *model.Alarm) {
	dst.Label = src.Label
	dst.Time = src.Time
	dst.Schedule = src.Schedule
	dst.Sound = src.Sound
	dst.SnoozeSettings = src.SnoozeSettings
	dst.Enabled = src.Enabled
}
