package storage

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
)

// Retention bounds an alarm's trigger history. An event is kept only if
// it is among the MaxEvents newest and no older than MaxAge.
type Retention struct {
	MaxEvents int
	MaxAge    time.Duration
}

// DefaultRetention keeps 50 events of at most 30 days.
func DefaultRetention() Retention {
	return Retention{MaxEvents: 50, MaxAge: 30 * 24 * time.Hour}
}

// Apply returns history ordered newest first with the retention bounds
// enforced at now.
func (r Retention) Apply(history []model.TriggerEvent, now time.Time) []model.TriggerEvent {
	sorted := make([]model.TriggerEvent, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TriggeredAt.After(sorted[j].TriggeredAt)
	})

	kept := make([]model.TriggerEvent, 0, len(sorted))
	for _, e := range sorted {
		if r.MaxEvents > 0 && len(kept) == r.MaxEvents {
			break
		}
		if r.MaxAge > 0 && now.Sub(e.TriggeredAt) > r.MaxAge {
			// sorted newest first, the rest are older still
			break
		}
		kept = append(kept, e)
	}
	return kept
}

// AlarmRepo provides operations for Alarm entities. Each alarm, history
// included, is one record; writes to one alarm id are serialized.
type AlarmRepo struct {
	store     Store
	locks     *KeyedMutex
	retention Retention
	now       func() time.Time
}

// NewAlarmRepo creates a new alarm repository with the default retention.
func NewAlarmRepo(store Store) *AlarmRepo {
	return &AlarmRepo{
		store:     store,
		locks:     NewKeyedMutex(),
		retention: DefaultRetention(),
		now:       time.Now,
	}
}

// WithRetention replaces the history retention policy.
func (r *AlarmRepo) WithRetention(ret Retention) *AlarmRepo {
	r.retention = ret
	return r
}

// WithClock replaces the clock used by the retention sweep.
func (r *AlarmRepo) WithClock(now func() time.Time) *AlarmRepo {
	r.now = now
	return r
}

// Retention returns the active retention policy.
func (r *AlarmRepo) Retention() Retention {
	return r.retention
}

// List retrieves all alarms in key order.
func (r *AlarmRepo) List(ctx context.Context) ([]*model.Alarm, error) {
	var alarms []*model.Alarm
	err := r.store.View(ctx, func(txn Txn) error {
		var err error
		alarms, err = GetAllByPrefix(txn, model.PrefixAlarm+":", newAlarm)
		return err
	})
	if err != nil {
		return nil, persistErr("list alarms", err)
	}
	for _, a := range alarms {
		normalize(a)
	}
	return alarms, nil
}

// Get retrieves an alarm by id.
func (r *AlarmRepo) Get(ctx context.Context, id string) (*model.Alarm, error) {
	var alarm *model.Alarm
	err := r.store.View(ctx, func(txn Txn) error {
		var err error
		alarm, err = getAlarm(txn, id)
		return err
	})
	if err != nil {
		return nil, persistErr("get alarm", err)
	}
	return alarm, nil
}

// Exists checks if an alarm exists.
func (r *AlarmRepo) Exists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := r.store.View(ctx, func(txn Txn) error {
		var err error
		found, err = Exists(txn, model.GenerateAlarmKey(id))
		return err
	})
	return found, persistErr("check alarm", err)
}

// Resolve finds an alarm by full id or unique id prefix.
func (r *AlarmRepo) Resolve(ctx context.Context, ref string) (*model.Alarm, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), model.PrefixAlarm+":")
	if ref == "" {
		return nil, errors.AlarmNotFound(ref)
	}

	alarms, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*model.Alarm
	for _, a := range alarms {
		if a.ID == ref {
			return a, nil
		}
		if strings.HasPrefix(a.ID, ref) {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return nil, errors.AlarmNotFound(ref)
	case 1:
		return matches[0], nil
	default:
		ue := errors.NewUserErrorWithField("alarm", ref,
			"Multiple alarms match the given ID", "Type more characters of the alarm ID")
		ue.Err = errors.ErrAmbiguousID
		return nil, ue
	}
}

// Upsert inserts the alarm if its id is unseen, otherwise replaces it.
func (r *AlarmRepo) Upsert(ctx context.Context, alarm *model.Alarm) error {
	if alarm.ID == "" {
		return errors.NewUserErrorWithField("id", "", "alarm id is required", "")
	}
	unlock := r.locks.Lock(alarm.ID)
	defer unlock()

	stored := alarm.Clone()
	normalize(stored)
	return persistErr("save alarm", r.store.Update(ctx, func(txn Txn) error {
		return Put(txn, stored)
	}))
}

// Remove deletes an alarm and its history. Removing an unknown id is not
// an error.
func (r *AlarmRepo) Remove(ctx context.Context, id string) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	return persistErr("remove alarm", r.store.Update(ctx, func(txn Txn) error {
		return txn.Delete(model.GenerateAlarmKey(id))
	}))
}

// Mutate runs fn on the stored alarm and saves the result atomically.
// An error from fn aborts the write. The saved alarm is returned.
func (r *AlarmRepo) Mutate(ctx context.Context, id string, fn func(a *model.Alarm) error) (*model.Alarm, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	var saved *model.Alarm
	err := r.store.Update(ctx, func(txn Txn) error {
		alarm, err := getAlarm(txn, id)
		if err != nil {
			return err
		}
		if err := fn(alarm); err != nil {
			return err
		}
		alarm.ID = id
		normalize(alarm)
		if err := Put(txn, alarm); err != nil {
			return err
		}
		saved = alarm
		return nil
	})
	if err != nil {
		return nil, persistErr("update alarm", err)
	}
	return saved, nil
}

// AppendHistoryEvent prepends event to the alarm's history and applies
// the retention policy in the same write.
func (r *AlarmRepo) AppendHistoryEvent(ctx context.Context, alarmID string, event model.TriggerEvent) error {
	_, err := r.Mutate(ctx, alarmID, func(a *model.Alarm) error {
		if a.HasEvent(event.ID) {
			return errors.NewUserErrorWithField("event", event.ID, "trigger event already recorded", "")
		}
		e := event.Clone()
		e.Normalize()
		a.History = r.retention.Apply(append([]model.TriggerEvent{e}, a.History...), r.now())
		return nil
	})
	return err
}

// PatchHistoryEvent merges patch into the event with eventID. A missing
// event is a no-op; a missing alarm is NotFound. The reported bool tells
// whether an event was patched.
func (r *AlarmRepo) PatchHistoryEvent(ctx context.Context, alarmID, eventID string, patch model.EventPatch) (bool, error) {
	patched := false
	_, err := r.Mutate(ctx, alarmID, func(a *model.Alarm) error {
		i := a.EventIndex(eventID)
		if i < 0 {
			return nil
		}
		a.History[i].Apply(patch)
		patched = true
		return nil
	})
	return patched, err
}

// ReplaceAll swaps the whole collection for alarms in one transaction.
func (r *AlarmRepo) ReplaceAll(ctx context.Context, alarms []*model.Alarm) error {
	return persistErr("replace alarms", r.store.Update(ctx, func(txn Txn) error {
		keys, err := ListKeys(txn, model.PrefixAlarm+":")
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, a := range alarms {
			stored := a.Clone()
			normalize(stored)
			if err := Put(txn, stored); err != nil {
				return err
			}
		}
		return nil
	}))
}

func newAlarm() *model.Alarm {
	return &model.Alarm{}
}

func getAlarm(txn Txn, id string) (*model.Alarm, error) {
	alarm := newAlarm()
	if err := Get(txn, model.GenerateAlarmKey(id), alarm); err != nil {
		if IsErrKeyNotFound(err) {
			return nil, errors.AlarmNotFound(id)
		}
		return nil, err
	}
	normalize(alarm)
	return alarm, nil
}

// normalize restores collection invariants on decoded or outgoing alarms.
func normalize(a *model.Alarm) {
	if a.NotificationIDs == nil {
		a.NotificationIDs = []string{}
	}
	if a.History == nil {
		a.History = []model.TriggerEvent{}
	}
	for i := range a.History {
		a.History[i].Normalize()
	}
}
