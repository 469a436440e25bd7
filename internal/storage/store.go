// Package storage provides the persistence layer for waketime.
//
// Records live in a flat key space ("alarm:<id>", "trigger:<id>",
// "state:delivery") behind the Store interface. Two backends implement it:
// an embedded Badger directory (the default) and a SQL table through GORM
// for sqlite or postgres.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/waketime/internal/errors"
)

const (
	// AppName is the application name used for data directories.
	AppName = "waketime"

	// Supported drivers.
	DriverBadger   = "badger"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrKeyNotFound is returned when a key is not found in the store.
var ErrKeyNotFound = stderrors.New("key not found")

// IsErrKeyNotFound returns true if the error is a key not found error.
func IsErrKeyNotFound(err error) bool {
	return stderrors.Is(err, ErrKeyNotFound)
}

// Txn is a read or read-write view of the key space.
type Txn interface {
	// Get returns a copy of the value stored at key or ErrKeyNotFound.
	Get(key string) ([]byte, error)
	// Set stores value at key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Scan calls fn for every key with the given prefix in key order. value
	// is only valid until fn returns.
	Scan(prefix string, fn func(key string, value []byte) error) error
}

// Store is a transactional key-value store.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Txn) error) error
	// Update runs fn in a read-write transaction. All writes made by fn
	// commit together or not at all.
	Update(ctx context.Context, fn func(Txn) error) error
	// Driver names the backend.
	Driver() string
	Close() error
}

// Options configures the store connection.
type Options struct {
	// Driver selects the backend; empty means badger.
	Driver string
	// DSN is the badger directory, sqlite file or postgres connection string.
	// Empty uses DefaultPath for the driver.
	DSN string
	// InMemory opens a throwaway store (badger only).
	InMemory bool
	// OpenTimeout bounds how long Open waits for a store held by another
	// process. Zero tries once.
	OpenTimeout time.Duration
}

// DefaultPath returns the default store location for a driver following
// the XDG base directory layout.
func DefaultPath(driver string) string {
	switch driver {
	case DriverSQLite:
		return filepath.Join(xdg.DataHome, AppName, "waketime.db")
	default:
		return filepath.Join(xdg.DataHome, AppName, "db")
	}
}

// openRetryInterval is the pause between attempts on a busy store.
const openRetryInterval = 100 * time.Millisecond

// Open opens the configured backend. A store held by another process is
// retried until opts.OpenTimeout elapses, after which ErrStoreBusy is
// returned.
func Open(ctx context.Context, opts Options) (Store, error) {
	deadline := time.Now().Add(opts.OpenTimeout)
	for {
		s, err := openOnce(opts)
		if err == nil {
			return s, nil
		}
		if !stderrors.Is(err, errors.ErrStoreBusy) || time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(openRetryInterval):
		}
	}
}

func openOnce(opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverBadger:
		return openBadger(opts)
	case DriverSQLite, DriverPostgres:
		return openSQL(opts)
	default:
		return nil, errors.NewUserErrorWithField("storage.driver", opts.Driver,
			fmt.Sprintf("unknown storage driver %q", opts.Driver),
			"Use one of: badger, sqlite, postgres")
	}
}
