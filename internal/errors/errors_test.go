package errors

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// UserError Tests
// =============================================================================

func TestNewUserError(t *testing.T) {
	err := NewUserError("invalid input", "try again")
	assert.NotNil(t, err)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "try again", err.Suggestion)
}

func TestUserErrorError(t *testing.T) {
	t.Run("without_field", func(t *testing.T) {
		err := NewUserError("invalid input", "")
		assert.Equal(t, "invalid input", err.Error())
	})

	t.Run("with_field", func(t *testing.T) {
		err := NewUserErrorWithField("label", "   ", "label is empty", "")
		assert.Equal(t, "label is empty: '   '", err.Error())
	})
}

func TestUserErrorIsValidation(t *testing.T) {
	err := Validation(ErrInvalidTime, "time", "could not parse time", "")
	wrapped := fmt.Errorf("create alarm: %w", err)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.True(t, errors.Is(wrapped, ErrInvalidTime))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, IsUserError(wrapped))
}

// =============================================================================
// NotFoundError Tests
// =============================================================================

func TestNotFoundError(t *testing.T) {
	err := AlarmNotFound("abc")
	assert.Equal(t, "alarm 'abc' not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, ErrAlarmNotFound))
	assert.False(t, errors.Is(err, ErrEventNotFound))

	ev := fmt.Errorf("patch: %w", EventNotFound("e1"))
	assert.True(t, IsNotFound(ev))
	assert.True(t, errors.Is(ev, ErrEventNotFound))
}

// =============================================================================
// SystemError Tests
// =============================================================================

func TestSystemErrorError(t *testing.T) {
	t.Run("without_op", func(t *testing.T) {
		err := NewSystemError("disk full", nil)
		assert.Equal(t, "disk full", err.Error())
	})

	t.Run("with_op_and_cause", func(t *testing.T) {
		err := NewSystemErrorWithOp("save", "write failed", errors.New("EIO"))
		assert.Equal(t, "write failed during save: EIO", err.Error())
	})
}

func TestPersistenceAndScheduling(t *testing.T) {
	cause := errors.New("boom")

	p := Persistence("upsert", cause)
	assert.True(t, errors.Is(p, ErrPersistence))
	assert.True(t, errors.Is(p, cause))
	assert.False(t, errors.Is(p, ErrScheduling))

	s := Scheduling("register", cause)
	assert.True(t, errors.Is(s, ErrScheduling))
	assert.True(t, errors.Is(s, cause))
	assert.True(t, IsSystemError(s))
}

// =============================================================================
// RecoverableError Tests
// =============================================================================

func TestRecoverableError(t *testing.T) {
	err := NewRecoverableError("store busy", ErrStoreBusy)
	assert.Equal(t, "store busy", err.Error())
	assert.False(t, err.Exhausted())
	assert.True(t, errors.Is(err, ErrStoreBusy))

	err.After(3, 3)
	assert.Equal(t, "store busy (after 3 attempts)", err.Error())
	assert.True(t, err.Exhausted())
	assert.False(t, NewRecoverableError("x", nil).After(2, 0).Exhausted())
}

func TestAsHelpers(t *testing.T) {
	ue, ok := AsUserError(fmt.Errorf("x: %w", NewUserError("bad", "")))
	require.True(t, ok)
	assert.Equal(t, "bad", ue.Message)

	se, ok := AsSystemError(Persistence("list", errors.New("io")))
	require.True(t, ok)
	assert.Equal(t, "list", se.Op)

	_, ok = AsRecoverableError(errors.New("plain"))
	assert.False(t, ok)
}

// =============================================================================
// Classification Tests
// =============================================================================

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("x"), KindUnknown},
		{"not found", AlarmNotFound("a"), KindNotFound},
		{"validation", NewUserError("bad", ""), KindValidation},
		{"persistence", Persistence("get", errors.New("io")), KindPersistence},
		{"scheduling", Scheduling("cancel", errors.New("io")), KindScheduling},
		{"wrapped", fmt.Errorf("ctx: %w", Scheduling("x", nil)), KindScheduling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
	assert.Equal(t, "scheduling_failure", KindScheduling.String())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CategoryUnknown, Classify(nil))
	assert.Equal(t, CategoryUser, Classify(NewUserError("x", "")))
	assert.Equal(t, CategoryUser, Classify(AlarmNotFound("x")))
	assert.Equal(t, CategorySystem, Classify(Persistence("x", nil)))
	assert.Equal(t, CategorySystem, Classify(syscall.ENOSPC))
	assert.Equal(t, CategoryRecoverable, Classify(fmt.Errorf("open: %w", ErrStoreBusy)))
	assert.Equal(t, CategoryRecoverable, Classify(syscall.ECONNRESET))
	assert.Equal(t, CategorySystem, Classify(fmt.Errorf("write: %w", ErrDiskFull)))
	assert.Equal(t, CategoryUnknown, Classify(errors.New("bug")))
	assert.Equal(t, "recoverable", CategoryRecoverable.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(NewUserError("x", "")))
	assert.Equal(t, 2, ExitCode(AlarmNotFound("x")))
	assert.Equal(t, 1, ExitCode(Persistence("x", nil)))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

// =============================================================================
// Suggestion Tests
// =============================================================================

func TestGetSuggestion(t *testing.T) {
	assert.Equal(t, "", GetSuggestion(nil))
	assert.Equal(t, Suggestions[ErrAlarmNotFound], GetSuggestion(AlarmNotFound("x")))
	assert.Equal(t, "custom", GetSuggestion(Validation(ErrInvalidTime, "time", "bad", "custom")))
	assert.Equal(t, Suggestions[ErrInvalidTime], GetSuggestion(Validation(ErrInvalidTime, "time", "bad", "")))
}

func TestGetCategorySuggestion(t *testing.T) {
	assert.Contains(t, GetCategorySuggestion(NewUserError("x", "")), "--help")
	assert.Contains(t, GetCategorySuggestion(Persistence("x", nil)), "disk space")
	assert.Equal(t, "", GetCategorySuggestion(errors.New("other")))
}

func TestGetExamples(t *testing.T) {
	assert.NotEmpty(t, GetExamples(fmt.Errorf("x: %w", ErrInvalidDays)))
	assert.Nil(t, GetExamples(errors.New("other")))
}
