// Package errors holds waketime's error taxonomy. Who can fix an error is
// told by its type (UserError, SystemError, RecoverableError, NotFoundError);
// what went wrong is told by the kind sentinels, which every typed error
// matches with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every typed error in this package matches exactly one of them with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")
	ErrScheduling  = errors.New("scheduling failure")
)

// Standard sentinel errors for common conditions.
var (
	ErrAlarmNotFound      = errors.New("alarm not found")
	ErrEventNotFound      = errors.New("trigger event not found")
	ErrAmbiguousID        = errors.New("id prefix matches more than one alarm")
	ErrEventDismissed     = errors.New("trigger event already dismissed")
	ErrNoPendingEvent     = errors.New("alarm has no unresolved trigger event")
	ErrEventNotRinging    = errors.New("trigger event is not ringing")
	ErrInvalidTime        = errors.New("invalid time of day")
	ErrInvalidDays        = errors.New("invalid day list")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrStoreBusy          = errors.New("data store is in use by another process")
	ErrDiskFull           = errors.New("disk full")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrTimeout            = errors.New("operation timed out")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPermissionRefused  = errors.New("notifications are disabled")
)

// UserError represents an error that the user can fix.
// Examples: invalid input, missing required arguments, incorrect format.
type UserError struct {
	Message    string // What happened
	Suggestion string // How to fix it
	Field      string // The field/input that caused the error (optional)
	Value      string // The invalid value (optional)
	Err        error  // A more specific sentinel (optional)
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Field != "" && e.Value != "" {
		msg = fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return msg
}

// Is makes every UserError a validation failure.
func (e *UserError) Is(target error) bool {
	return target == ErrValidation
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewUserErrorWithField creates a new UserError with field context.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// Validation creates a UserError tied to a sentinel.
func Validation(sentinel error, field, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Suggestion: suggestion,
		Err:        sentinel,
	}
}

// NotFoundError reports a missing alarm or trigger event.
type NotFoundError struct {
	Resource string // "alarm" or "event"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

// Is matches ErrNotFound and the resource specific sentinel.
func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return true
	case ErrAlarmNotFound:
		return e.Resource == "alarm"
	case ErrEventNotFound:
		return e.Resource == "event"
	}
	return false
}

// AlarmNotFound creates a NotFoundError for an alarm id.
func AlarmNotFound(id string) *NotFoundError {
	return &NotFoundError{Resource: "alarm", ID: id}
}

// EventNotFound creates a NotFoundError for a trigger event id.
func EventNotFound(id string) *NotFoundError {
	return &NotFoundError{Resource: "event", ID: id}
}

// SystemError represents a system-level error that the user cannot directly fix.
// Examples: disk full, unreadable store, failed trigger registration.
type SystemError struct {
	Message string // What happened
	Cause   error  // The underlying error
	Op      string // The operation that failed (optional)
	Kind    error  // ErrPersistence or ErrScheduling (optional)
}

func (e *SystemError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SystemError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
	}
}

// NewSystemErrorWithOp creates a new SystemError with operation context.
func NewSystemErrorWithOp(op, message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
		Op:      op,
	}
}

// Persistence wraps a storage failure.
func Persistence(op string, cause error) *SystemError {
	return &SystemError{
		Message: "storage operation failed",
		Cause:   cause,
		Op:      op,
		Kind:    ErrPersistence,
	}
}

// Scheduling wraps a trigger registration or cancellation failure.
func Scheduling(op string, cause error) *SystemError {
	return &SystemError{
		Message: "trigger scheduling failed",
		Cause:   cause,
		Op:      op,
		Kind:    ErrScheduling,
	}
}

// RecoverableError is a transient failure: a busy store or a webhook that
// kept failing. Attempts counts tries already made, including the first.
type RecoverableError struct {
	Message     string
	Cause       error
	Attempts    int
	MaxAttempts int
}

func (e *RecoverableError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s (after %d attempts)", e.Message, e.Attempts)
	}
	return e.Message
}

func (e *RecoverableError) Unwrap() error {
	return e.Cause
}

// Exhausted reports whether the caller has used up its attempts.
func (e *RecoverableError) Exhausted() bool {
	return e.MaxAttempts > 0 && e.Attempts >= e.MaxAttempts
}

// NewRecoverableError creates a RecoverableError that has not been retried.
func NewRecoverableError(message string, cause error) *RecoverableError {
	return &RecoverableError{Message: message, Cause: cause, Attempts: 1}
}

// After records how many attempts were made out of max.
func (e *RecoverableError) After(attempts, max int) *RecoverableError {
	e.Attempts, e.MaxAttempts = attempts, max
	return e
}

func as[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

func IsUserError(err error) bool        { _, ok := as[*UserError](err); return ok }
func IsSystemError(err error) bool      { _, ok := as[*SystemError](err); return ok }
func IsRecoverableError(err error) bool { _, ok := as[*RecoverableError](err); return ok }

// IsNotFound checks if an error reports a missing alarm or event.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func AsUserError(err error) (*UserError, bool)               { return as[*UserError](err) }
func AsSystemError(err error) (*SystemError, bool)           { return as[*SystemError](err) }
func AsRecoverableError(err error) (*RecoverableError, bool) { return as[*RecoverableError](err) }
