package storage

import (
	"context"
	stderrors "errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/manav03panchal/waketime/internal/errors"
)

// maxConflictRetries bounds how often Update replays a transaction that
// lost an optimistic concurrency race.
const maxConflictRetries = 5

// BadgerStore is the embedded Store backend.
type BadgerStore struct {
	db   *badger.DB
	lock *StoreLock
	path string
}

func openBadger(opts Options) (*BadgerStore, error) {
	var badgerOpts badger.Options
	var lock *StoreLock
	path := opts.DSN

	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
		path = ""
	} else {
		if path == "" {
			path = DefaultPath(DriverBadger)
		}
		if err := EnsureDir(path); err != nil {
			return nil, err
		}

		// one process at a time
		l, err := LockStore(path)
		if err != nil {
			return nil, err
		}
		lock = l
		badgerOpts = badger.DefaultOptions(path)
	}

	// Reduce logging noise
	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, errors.Persistence("open store", err)
	}

	return &BadgerStore{db: db, lock: lock, path: path}, nil
}

// Driver returns "badger".
func (s *BadgerStore) Driver() string { return DriverBadger }

// Path returns the data directory, empty for in-memory stores.
func (s *BadgerStore) Path() string { return s.path }

// View runs fn in a read-only transaction.
func (s *BadgerStore) View(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn: txn})
	})
}

// Update runs fn in a read-write transaction, replaying it when a
// concurrent transaction committed a conflicting write first.
func (s *BadgerStore) Update(ctx context.Context, fn func(Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return fn(badgerTxn{txn: txn})
		})
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Close closes the database and releases the process lock.
func (s *BadgerStore) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if lockErr := s.lock.Unlock(); err == nil {
			err = lockErr
		}
	}
	return err
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t badgerTxn) Get(key string) ([]byte, error) {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t badgerTxn) Set(key string, value []byte) error {
	return t.txn.Set([]byte(key), value)
}

func (t badgerTxn) Delete(key string) error {
	return t.txn.Delete([]byte(key))
}

func (t badgerTxn) Scan(prefix string, fn func(key string, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 100
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	prefixBytes := []byte(prefix)
	for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
		item := it.Item()
		key := string(item.KeyCopy(nil))
		err := item.Value(func(val []byte) error {
			return fn(key, val)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
