package storage

import (
	"context"

	"github.com/manav03panchal/waketime/internal/model"
)

// StateRepo provides operations for the delivery loop singleton.
type StateRepo struct {
	store Store
}

// NewStateRepo creates a new state repository.
func NewStateRepo(store Store) *StateRepo {
	return &StateRepo{store: store}
}

// Get retrieves the delivery state, creating it if it doesn't exist.
func (r *StateRepo) Get(ctx context.Context) (*model.DeliveryState, error) {
	state := model.NewDeliveryState()
	err := r.store.View(ctx, func(txn Txn) error {
		return Get(txn, model.KeyDeliveryState, state)
	})
	if err == nil {
		return state, nil
	}
	if !IsErrKeyNotFound(err) {
		return nil, persistErr("get delivery state", err)
	}

	state = model.NewDeliveryState()
	if err := r.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Save stores the delivery state.
func (r *StateRepo) Save(ctx context.Context, state *model.DeliveryState) error {
	state.Key = model.KeyDeliveryState
	return persistErr("save delivery state", r.store.Update(ctx, func(txn Txn) error {
		return Put(txn, state)
	}))
}
