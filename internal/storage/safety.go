package storage

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/manav03panchal/waketime/internal/errors"
)

// MinFreeBytes is the free space a store directory needs before waketime
// writes to it.
const MinFreeBytes = 10 << 20

// checkFreeSpace fails with ErrDiskFull when the volume holding path is
// nearly full. Volumes that cannot be inspected pass.
func checkFreeSpace(path string) error {
	free, err := availableBytes(existingParent(path))
	if err != nil || free >= MinFreeBytes {
		return nil
	}
	return &errors.SystemError{
		Message: fmt.Sprintf("only %d MB free next to %s", free>>20, path),
		Cause:   errors.ErrDiskFull,
		Kind:    errors.ErrPersistence,
	}
}

// existingParent walks up until it finds a path that exists.
func existingParent(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}

func diskFull(err error) bool {
	return err != nil && (stderrors.Is(err, syscall.ENOSPC) || platformDiskFull(err))
}

func diskErr(op string, err error) error {
	if diskFull(err) {
		return &errors.SystemError{Message: "disk full", Op: op, Cause: errors.ErrDiskFull, Kind: errors.ErrPersistence}
	}
	return errors.Persistence(op, err)
}

// EnsureDir creates a private store directory.
func EnsureDir(path string) error {
	if err := checkFreeSpace(path); err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return diskErr("create "+path, err)
	}
	return nil
}

// WriteFileAtomic replaces path with data through a temp file in the same
// directory, so readers never see a half-written export.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := checkFreeSpace(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".waketime-*.tmp")
	if err != nil {
		return diskErr("create temp file", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return diskErr("write "+path, err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return errors.Persistence("chmod "+path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Persistence("rename "+path, err)
	}
	return nil
}
