package storage

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manav03panchal/waketime/internal/errors"
)

// LockFileName sits next to the badger files and holds the owner's PID.
const LockFileName = "waketime.lock"

var errLocked = stderrors.New("store lock held")

// BusyError reports which process holds the store.
type BusyError struct {
	PID int
}

func (e *BusyError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("alarm store is in use by another waketime process (PID %d)", e.PID)
	}
	return "alarm store is in use by another waketime process"
}

// Unwrap lets callers match errors.ErrStoreBusy and retry.
func (e *BusyError) Unwrap() error {
	return errors.ErrStoreBusy
}

// StoreLock is an exclusive advisory lock on a store directory. Badger
// refuses a second opener anyway; the lock turns that into a BusyError
// naming the holder, and lets a crashed holder's lock be reclaimed.
type StoreLock struct {
	path string
	file *os.File
}

// LockStore takes the lock on dir without blocking.
func LockStore(dir string) (*StoreLock, error) {
	l := &StoreLock{path: filepath.Join(dir, LockFileName)}

	if pid := l.Holder(); pid > 0 && pid != os.Getpid() && !processAlive(pid) {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Persistence("remove stale lock", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Persistence("open lock", err)
	}
	if err := tryFlock(f); err != nil {
		f.Close()
		if stderrors.Is(err, errLocked) {
			return nil, &BusyError{PID: l.Holder()}
		}
		return nil, errors.Persistence("lock store", err)
	}

	if err := writePID(f); err != nil {
		_ = unflock(f)
		f.Close()
		return nil, errors.Persistence("write lock", err)
	}
	l.file = f
	return l, nil
}

func writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		return err
	}
	return f.Sync()
}

// Holder returns the PID recorded in the lock file, or 0.
func (l *StoreLock) Holder() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// Unlock releases the lock and removes the file. Calling it twice is fine.
func (l *StoreLock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	uerr := unflock(f)
	cerr := f.Close()
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if uerr != nil {
		return uerr
	}
	return cerr
}
