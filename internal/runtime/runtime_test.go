package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waketime/internal/alarms"
	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/output"
)

// =============================================================================
// Context Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Same(t, config.Global, opts.Config)
	assert.False(t, opts.InMemory)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
	assert.False(t, opts.Debug)
}

func TestNew(t *testing.T) {
	rc, err := New(context.Background(), Options{InMemory: true})
	require.NoError(t, err)
	defer rc.Close()

	assert.NotNil(t, rc.Store)
	assert.NotNil(t, rc.Formatter)
	assert.NotNil(t, rc.AlarmRepo)
	assert.NotNil(t, rc.RegistrationRepo)
	assert.NotNil(t, rc.StateRepo)
	assert.NotNil(t, rc.Registrar)
	assert.NotNil(t, rc.Engine)
	assert.NotNil(t, rc.Alarms)
	assert.NotNil(t, rc.Dispatcher)
	assert.NotNil(t, rc.Poller())
	assert.Equal(t, output.FormatCLI, rc.Formatter.Format)
	assert.Equal(t, output.ColorAuto, rc.Formatter.ColorMode)
}

func TestNewWithOptions(t *testing.T) {
	rc, err := New(context.Background(), Options{
		InMemory:  true,
		Format:    output.FormatJSON,
		ColorMode: output.ColorNever,
		Debug:     true,
	})
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, output.FormatJSON, rc.Formatter.Format)
	assert.Equal(t, output.ColorNever, rc.Formatter.ColorMode)
	assert.True(t, rc.Debug)
	assert.True(t, rc.IsJSON())
	assert.False(t, rc.IsCLI())
}

func TestNewWithEnvVariable(t *testing.T) {
	t.Setenv(EnvDatabase, ":memory:")

	rc, err := New(context.Background(), Options{})
	require.NoError(t, err)
	defer rc.Close()

	assert.NotNil(t, rc.Store)
}

func TestNewWithEnvVariablePath(t *testing.T) {
	t.Setenv(EnvDatabase, t.TempDir()+"/db")

	rc, err := New(context.Background(), Options{})
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, "badger", rc.Store.Driver())
}

func TestNewUnknownDriver(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	cfg.Storage.Driver = "mongo"

	_, err := New(context.Background(), Options{Config: cfg})
	require.Error(t, err)
	assert.True(t, errors.IsUserError(err))
}

func TestContextWiring(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultRuntimeConfig()
	cfg.Alarm.EscalationTimeout = time.Minute

	rc, err := New(ctx, Options{Config: cfg, InMemory: true})
	require.NoError(t, err)
	defer rc.Close()

	a, err := rc.Alarms.Create(ctx, alarms.Draft{
		Label:    "Work",
		Time:     model.TimeOfDay{Hour: 7},
		Schedule: model.ScheduleOf(time.Monday, time.Friday),
		Snooze:   9,
	})
	require.NoError(t, err)
	assert.Len(t, a.NotificationIDs, 2)

	regs, err := rc.RegistrationRepo.ListByAlarm(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 2)

	event, err := rc.Engine.Fire(ctx, a.ID, model.SourceTest)
	require.NoError(t, err)

	// fire arms the escalation one-shot next to the two weekly triggers
	regs, err = rc.RegistrationRepo.ListByAlarm(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 3)

	_, err = rc.Engine.Dismiss(ctx, a.ID, event.ID)
	require.NoError(t, err)

	stored, err := rc.AlarmRepo.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 1)
	assert.Equal(t, model.StatusDismissed, stored.History[0].Status)
}

func TestClose(t *testing.T) {
	rc, err := New(context.Background(), Options{InMemory: true})
	require.NoError(t, err)

	assert.NoError(t, rc.Close())
}

func TestDebugf(t *testing.T) {
	var buf bytes.Buffer
	rc := &Context{Formatter: &output.Formatter{Writer: &buf}, Debug: true}

	rc.Debugf("loaded %d alarms", 3)
	assert.Equal(t, "[DEBUG] loaded 3 alarms\n", buf.String())

	buf.Reset()
	rc.Debug = false
	rc.Debugf("hidden")
	assert.Empty(t, buf.String())
}

// =============================================================================
// Error Report Tests
// =============================================================================

func TestNewErrorReport(t *testing.T) {
	t.Run("not_found", func(t *testing.T) {
		r := NewErrorReport(errors.AlarmNotFound("abc"))
		assert.Equal(t, "not_found", r.Code)
		assert.Equal(t, "alarm 'abc' not found", r.Message)
		assert.Contains(t, r.Suggestion, "waketime list")
		assert.Equal(t, 2, r.ExitCode)
	})

	t.Run("validation_with_sentinel", func(t *testing.T) {
		err := errors.Validation(errors.ErrInvalidTime, "time", "cannot parse '25:00'", "")
		r := NewErrorReport(err)
		assert.Equal(t, "invalid_time_of_day", r.Code)
		assert.Contains(t, r.Suggestion, "7am")
		assert.NotEmpty(t, r.Examples)
		assert.Equal(t, 2, r.ExitCode)
	})

	t.Run("scheduling", func(t *testing.T) {
		r := NewErrorReport(errors.Scheduling("register", stderrors.New("boom")))
		assert.Equal(t, "scheduling_failure", r.Code)
		assert.Equal(t, 1, r.ExitCode)
	})

	t.Run("unknown", func(t *testing.T) {
		r := NewErrorReport(stderrors.New("something odd"))
		assert.Equal(t, "unknown", r.Code)
		assert.Empty(t, r.Suggestion)
		assert.Equal(t, 1, r.ExitCode)
	})
}

func TestFormatError(t *testing.T) {
	msg := FormatError(errors.AlarmNotFound("abc"))
	assert.Contains(t, msg, "alarm 'abc' not found\n")
	assert.Contains(t, msg, "waketime list")

	msg = FormatError(stderrors.New("plain"))
	assert.Equal(t, "plain", msg)
}

func TestReportError(t *testing.T) {
	t.Run("cli", func(t *testing.T) {
		var buf bytes.Buffer
		f := &output.Formatter{Writer: &buf, Format: output.FormatCLI, ColorMode: output.ColorNever}

		code := ReportError(f, errors.AlarmNotFound("abc"))
		assert.Equal(t, 2, code)
		assert.Contains(t, buf.String(), "✗ alarm 'abc' not found")
		assert.Contains(t, buf.String(), "waketime list")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		f := &output.Formatter{Writer: &buf, Format: output.FormatJSON}

		code := ReportError(f, errors.EventNotFound("ev"))
		assert.Equal(t, 2, code)

		var resp output.ErrorResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, "not_found", resp.Error)
		assert.Equal(t, "event 'ev' not found", resp.Message)
	})
}
