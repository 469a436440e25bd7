package storage

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waketime/internal/errors"
)

// =============================================================================
// Store Lock Tests
// =============================================================================

func TestLockStore(t *testing.T) {
	t.Run("records pid and removes file on unlock", func(t *testing.T) {
		dir := t.TempDir()
		l, err := LockStore(dir)
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, LockFileName))
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
		assert.Equal(t, os.Getpid(), l.Holder())

		require.NoError(t, l.Unlock())
		_, err = os.Stat(filepath.Join(dir, LockFileName))
		assert.True(t, os.IsNotExist(err))

		assert.NoError(t, l.Unlock())
	})

	t.Run("relock after unlock", func(t *testing.T) {
		dir := t.TempDir()
		l1, err := LockStore(dir)
		require.NoError(t, err)
		require.NoError(t, l1.Unlock())

		l2, err := LockStore(dir)
		require.NoError(t, err)
		assert.NoError(t, l2.Unlock())
	})

	t.Run("reclaims a lock left by a dead process", func(t *testing.T) {
		dir := t.TempDir()
		const stale = 99999999
		require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte(strconv.Itoa(stale)), 0o644))
		if processAlive(stale) {
			t.Skip("stale pid is unexpectedly alive")
		}

		l, err := LockStore(dir)
		require.NoError(t, err)
		defer l.Unlock()
		assert.Equal(t, os.Getpid(), l.Holder())
	})

	t.Run("holder is zero for garbage", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte("nope"), 0o644))
		l := &StoreLock{path: filepath.Join(dir, LockFileName)}
		assert.Zero(t, l.Holder())

		missing := &StoreLock{path: filepath.Join(t.TempDir(), LockFileName)}
		assert.Zero(t, missing.Holder())
	})
}

func TestBusyError(t *testing.T) {
	err := &BusyError{PID: 4242}
	assert.Contains(t, err.Error(), "PID 4242")
	assert.ErrorIs(t, err, errors.ErrStoreBusy)

	assert.NotContains(t, (&BusyError{}).Error(), "PID")
}

func TestBadgerOpenWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires lock on disk store open", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "db")

		s, err := Open(ctx, Options{DSN: dbPath})
		require.NoError(t, err)
		defer s.Close()

		bs, ok := s.(*BadgerStore)
		require.True(t, ok)
		assert.NotNil(t, bs.lock)

		_, err = os.Stat(filepath.Join(dbPath, LockFileName))
		assert.NoError(t, err)
	})

	t.Run("no lock for in-memory store", func(t *testing.T) {
		s, err := Open(ctx, Options{InMemory: true})
		require.NoError(t, err)
		defer s.Close()

		assert.Nil(t, s.(*BadgerStore).lock)
	})

	t.Run("second open reports a busy store", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "db")

		s1, err := Open(ctx, Options{DSN: dbPath})
		require.NoError(t, err)
		defer s1.Close()

		start := time.Now()
		_, err = Open(ctx, Options{DSN: dbPath, OpenTimeout: 300 * time.Millisecond})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrStoreBusy)
		assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)

		var busy *BusyError
		require.ErrorAs(t, err, &busy)
		assert.Equal(t, os.Getpid(), busy.PID)
	})

	t.Run("waits for the holder to close", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "db")

		s1, err := Open(ctx, Options{DSN: dbPath})
		require.NoError(t, err)

		go func() {
			time.Sleep(200 * time.Millisecond)
			s1.Close()
		}()

		s2, err := Open(ctx, Options{DSN: dbPath, OpenTimeout: 5 * time.Second})
		require.NoError(t, err)
		defer s2.Close()
	})

	t.Run("releases lock on close", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "db")

		s, err := Open(ctx, Options{DSN: dbPath})
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = os.Stat(filepath.Join(dbPath, LockFileName))
		assert.True(t, os.IsNotExist(err), "lock file should be removed after close")

		s2, err := Open(ctx, Options{DSN: dbPath})
		require.NoError(t, err)
		defer s2.Close()
	})
}
