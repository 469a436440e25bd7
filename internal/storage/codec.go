package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
)

// Get retrieves a value by key and unmarshals it into v.
func Get(txn Txn, key string, v model.Model) error {
	data, err := txn.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	v.SetKey(key)
	return nil
}

// Put stores a model under its own key.
func Put(txn Txn, v model.Model) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(v.GetKey(), data)
}

// Exists checks if a key exists.
func Exists(txn Txn, key string) (bool, error) {
	_, err := txn.Get(key)
	if IsErrKeyNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// ListKeys retrieves all keys with the given prefix.
func ListKeys(txn Txn, prefix string) ([]string, error) {
	var keys []string
	err := txn.Scan(prefix, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

// GetAllByPrefix retrieves all values with the given prefix.
func GetAllByPrefix[T model.Model](txn Txn, prefix string, newFunc func() T) ([]T, error) {
	var results []T
	err := txn.Scan(prefix, func(key string, val []byte) error {
		v := newFunc()
		if err := json.Unmarshal(val, v); err != nil {
			return err
		}
		v.SetKey(key)
		results = append(results, v)
		return nil
	})
	return results, err
}

// persistErr wraps a backend failure as a persistence error. Typed
// errors from this package's callers pass through unchanged.
func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.IsNotFound(err) || errors.IsUserError(err) || errors.IsSystemError(err) || errors.IsRecoverableError(err) ||
		stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if diskFull(err) {
		return errors.Persistence(op, stderrors.Join(errors.ErrDiskFull, err))
	}
	return errors.Persistence(op, err)
}
