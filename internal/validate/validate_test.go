package validate

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waketime/internal/errors"
	"github.com/manav03panchal/waketime/internal/model"
)

func validAlarm() *model.Alarm {
	return model.NewAlarm("Morning Workout", model.TimeOfDay{Hour: 7}, model.ScheduleOf(time.Monday), 10)
}

// =============================================================================
// Alarm Tests
// =============================================================================

func TestAlarmValid(t *testing.T) {
	assert.NoError(t, Alarm(validAlarm()))

	a := validAlarm()
	a.Sound = "beep"
	assert.NoError(t, Alarm(a))
}

func TestAlarmInvalid(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(a *model.Alarm)
		field    string
		sentinel error
	}{
		{"empty label", func(a *model.Alarm) { a.Label = "" }, "label", nil},
		{"long label", func(a *model.Alarm) { a.Label = strings.Repeat("x", 51) }, "label", nil},
		{"no days", func(a *model.Alarm) { a.Schedule = model.Schedule{} }, "schedule", errors.ErrInvalidDays},
		{"hour", func(a *model.Alarm) { a.Time.Hour = 24 }, "hour", errors.ErrInvalidTime},
		{"minute", func(a *model.Alarm) { a.Time.Minute = -1 }, "minute", errors.ErrInvalidTime},
		{"snooze", func(a *model.Alarm) { a.SnoozeSettings.Duration = 0 }, "snooze", errors.ErrInvalidDuration},
		{"sound", func(a *model.Alarm) { a.Sound = "foghorn" }, "sound", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAlarm()
			tt.mutate(a)
			err := Alarm(a)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrValidation))

			ue, ok := errors.AsUserError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, ue.Field)
			if tt.sentinel != nil {
				assert.True(t, stderrors.Is(err, tt.sentinel))
			}
		})
	}
}

func TestAlarmLabelCountsCharacters(t *testing.T) {
	a := validAlarm()
	a.Label = strings.Repeat("é", 50)
	assert.NoError(t, Alarm(a))
}

func TestLabel(t *testing.T) {
	assert.NoError(t, Label("Standup"))
	assert.Error(t, Label("   "))
	assert.Error(t, Label(strings.Repeat("a", MaxLabelLength+1)))
}

func TestSnoozeDuration(t *testing.T) {
	assert.NoError(t, SnoozeDuration(7))
	err := SnoozeDuration(0)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidDuration))
}

// =============================================================================
// URL Tests
// =============================================================================

func TestURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://hooks.slack.com/services/T/B/X", false},
		{"http://localhost:8080/hook", false},
		{"http://127.0.0.1/hook", false},
		{"", true},
		{"ftp://example.com", true},
		{"http://example.com/hook", true},
		{"https://10.0.0.5/hook", true},
		{"https://192.168.1.1/hook", true},
		{"https://", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := URL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrInvalidURL))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWebhooks(t *testing.T) {
	ok := []model.Webhook{{Name: "team", URL: "https://example.com/hook"}}
	assert.NoError(t, Webhooks(ok))

	dup := []model.Webhook{
		{Name: "team", URL: "https://example.com/a"},
		{Name: "team", URL: "https://example.com/b"},
	}
	assert.Error(t, Webhooks(dup))

	badType := []model.Webhook{{Name: "x", Type: "teams", URL: "https://example.com/a"}}
	assert.Error(t, Webhooks(badType))
}

// =============================================================================
// Sanitize Tests
// =============================================================================

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "Morning Workout", SanitizeLabel("  Morning \t  Workout\x00 "))
	assert.Equal(t, "", SanitizeLabel(" \n "))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "ééé...", TruncateString("éééééééé", 6))
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SafeFilename("a/b:c"))
	assert.Equal(t, "name", SafeFilename("  name. "))
}
