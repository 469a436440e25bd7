package errors

import (
	"errors"
	"syscall"
)

// Category says who can act on an error: the user, the machine, or nobody
// because a retry will do.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryUser
	CategorySystem
	CategoryRecoverable
)

func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	}
	return "unknown"
}

// Errnos that point at the host: a full, read-only or unreadable data
// directory.
var systemErrnos = map[syscall.Errno]bool{
	syscall.ENOSPC: true,
	syscall.EACCES: true,
	syscall.EPERM:  true,
	syscall.ENOENT: true,
	syscall.EIO:    true,
	syscall.EROFS:  true,
}

// Errnos a webhook delivery or store open is expected to survive on retry.
var transientErrnos = map[syscall.Errno]bool{
	syscall.EAGAIN:       true,
	syscall.EINTR:        true,
	syscall.ETIMEDOUT:    true,
	syscall.ECONNREFUSED: true,
	syscall.ECONNRESET:   true,
}

var (
	systemSentinels    = []error{ErrDiskFull, ErrPersistence, ErrScheduling, ErrPermissionDenied}
	transientSentinels = []error{ErrNetworkUnavailable, ErrTimeout, ErrStoreBusy}
)

// Classify sorts err into a Category. Typed errors win over sentinels,
// sentinels over raw errnos.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case IsUserError(err), IsNotFound(err):
		return CategoryUser
	case IsSystemError(err):
		return CategorySystem
	case IsRecoverableError(err):
		return CategoryRecoverable
	case isAny(err, systemSentinels):
		return CategorySystem
	case isAny(err, transientSentinels):
		return CategoryRecoverable
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if systemErrnos[errno] {
			return CategorySystem
		}
		if transientErrnos[errno] {
			return CategoryRecoverable
		}
	}
	return CategoryUnknown
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// Kind is the engine-level classification of an error.
type Kind int

const (
	// KindUnknown is any error outside the engine taxonomy.
	KindUnknown Kind = iota
	// KindNotFound means an alarm or event id does not exist.
	KindNotFound
	// KindValidation means input was rejected before any mutation.
	KindValidation
	// KindPersistence means the store could not be read or written.
	KindPersistence
	// KindScheduling means a trigger could not be registered or cancelled.
	KindScheduling
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindNotFound:    "not_found",
	KindValidation:  "validation_failed",
	KindPersistence: "persistence_failure",
	KindScheduling:  "scheduling_failure",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// KindOf maps an error onto the engine taxonomy. Scheduling is checked
// before persistence since a failed registration may wrap a store error.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrScheduling):
		return KindScheduling
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	}
	return KindUnknown
}

// ExitCode returns the process exit code for an error: 2 for user errors,
// 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if Classify(err) == CategoryUser {
		return 2
	}
	return 1
}
