package storage

import (
	"context"
	"sort"

	"github.com/manav03panchal/waketime/internal/model"
)

// RegistrationRepo provides operations for trigger registrations.
type RegistrationRepo struct {
	store Store
}

// NewRegistrationRepo creates a new registration repository.
func NewRegistrationRepo(store Store) *RegistrationRepo {
	return &RegistrationRepo{store: store}
}

// List retrieves all registrations ordered by creation time.
func (r *RegistrationRepo) List(ctx context.Context) ([]*model.Registration, error) {
	var regs []*model.Registration
	err := r.store.View(ctx, func(txn Txn) error {
		var err error
		regs, err = GetAllByPrefix(txn, model.PrefixTrigger+":", newRegistration)
		return err
	})
	if err != nil {
		return nil, persistErr("list triggers", err)
	}
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	return regs, nil
}

// ListByAlarm retrieves the registrations whose payload targets alarmID.
func (r *RegistrationRepo) ListByAlarm(ctx context.Context, alarmID string) ([]*model.Registration, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var result []*model.Registration
	for _, reg := range all {
		if reg.Payload.AlarmID == alarmID {
			result = append(result, reg)
		}
	}
	return result, nil
}

// Get retrieves a registration by id.
func (r *RegistrationRepo) Get(ctx context.Context, id string) (*model.Registration, error) {
	reg := newRegistration()
	err := r.store.View(ctx, func(txn Txn) error {
		return Get(txn, model.GenerateTriggerKey(id), reg)
	})
	if err != nil {
		if IsErrKeyNotFound(err) {
			return nil, err
		}
		return nil, persistErr("get trigger", err)
	}
	return reg, nil
}

// Put stores registrations in one transaction.
func (r *RegistrationRepo) Put(ctx context.Context, regs ...*model.Registration) error {
	return persistErr("save trigger", r.store.Update(ctx, func(txn Txn) error {
		for _, reg := range regs {
			if err := Put(txn, reg); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Delete removes registrations by id. Unknown ids are ignored. It
// returns how many existed.
func (r *RegistrationRepo) Delete(ctx context.Context, ids ...string) (int, error) {
	removed := 0
	err := r.store.Update(ctx, func(txn Txn) error {
		removed = 0
		for _, id := range ids {
			key := model.GenerateTriggerKey(id)
			found, err := Exists(txn, key)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, persistErr("cancel trigger", err)
}

// DeleteAll removes every registration and returns the count.
func (r *RegistrationRepo) DeleteAll(ctx context.Context) (int, error) {
	removed := 0
	err := r.store.Update(ctx, func(txn Txn) error {
		keys, err := ListKeys(txn, model.PrefixTrigger+":")
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	return removed, persistErr("cancel all triggers", err)
}

func newRegistration() *model.Registration {
	return &model.Registration{}
}
