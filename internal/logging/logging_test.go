package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelDebug, JSON: true, Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelWarn, cfg.Level)
	assert.False(t, cfg.JSON)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestInit(t *testing.T) {
	t.Run("json_debug", func(t *testing.T) {
		buf := captureJSON(t)
		assert.True(t, Logger().Enabled(context.Background(), slog.LevelDebug))

		DebugLog("hello", KeyAlarmID, "a1")
		entry := decodeLine(t, buf)
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "a1", entry[KeyAlarmID])
	})

	t.Run("level_filters", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: slog.LevelWarn, Output: &buf})
		t.Cleanup(func() { Init(DefaultConfig()) })

		assert.False(t, Logger().Enabled(context.Background(), slog.LevelDebug))
		Info("quiet")
		assert.Empty(t, buf.String())
		Warn("loud")
		assert.Contains(t, buf.String(), "loud")
	})
}

func TestContextLogger(t *testing.T) {
	buf := captureJSON(t)

	ctx := WithAlarm(WithRequestID(context.Background(), "req-1"), "alarm-9")
	assert.Equal(t, "req-1", RequestID(ctx))

	FromContext(ctx).With(KeyEventID, "ev-1").Info("fired")
	entry := decodeLine(t, buf)
	assert.Equal(t, "req-1", entry[KeyRequestID])
	assert.Equal(t, "alarm-9", entry[KeyAlarmID])
	assert.Equal(t, "ev-1", entry[KeyEventID])
}

func TestRequestID(t *testing.T) {
	id := NewRequestID()
	assert.Len(t, id, 8)
	assert.NotEqual(t, id, NewRequestID())

	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "", RequestID(nil))

	outer := WithRequestID(context.Background(), "outer")
	inner := WithRequestID(WithAlarm(outer, "a"), "inner")
	assert.Equal(t, "inner", RequestID(inner))
	assert.Equal(t, "outer", RequestID(outer))
}

func TestMaskURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"slack", "https://hooks.slack.com/services/T000/B000/XXXX", "https://hooks.slack.com/services/T000/***/***"},
		{"discord", "https://discord.com/api/webhooks/123/abc", "https://discord.com/api/webhooks/***/***"},
		{"query token", "https://example.com/hook?token=abc&x=1", "https://example.com/hook?token=***&x=1"},
		{"short path untouched", "http://localhost:8080/hook", "http://localhost:8080/hook"},
		{"not a url", "definitely-not-a-url", "definitely-n***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskURL(tt.in))
		})
	}
}
