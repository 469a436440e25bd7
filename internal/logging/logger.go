// Package logging holds the process-wide slog logger. Interactive commands
// log warnings to stderr; the daemon points it at its rotated log file.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	Init(DefaultConfig())
}

// Config selects level, encoding and destination.
type Config struct {
	Level     slog.Level
	JSON      bool
	Output    io.Writer // stderr when nil
	AddSource bool
}

// DefaultConfig is warnings only, as text on stderr.
func DefaultConfig() Config {
	return Config{Level: slog.LevelWarn, Output: os.Stderr}
}

// ParseLevel maps a log.level setting onto slog. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Init replaces the global logger.
func Init(cfg Config) {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.JSON {
		h = slog.NewJSONHandler(w, opts)
	}
	current.Store(slog.New(h))
}

// Logger returns the global logger.
func Logger() *slog.Logger {
	return current.Load()
}

func Info(msg string, args ...any)     { Logger().Info(msg, args...) }
func DebugLog(msg string, args ...any) { Logger().Debug(msg, args...) }
func Warn(msg string, args ...any)     { Logger().Warn(msg, args...) }
func Error(msg string, args ...any)    { Logger().Error(msg, args...) }

// WarnContext logs with the attributes attached to ctx.
func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).WarnContext(ctx, msg, args...)
}

// LogOperation records a timed operation at debug level.
func LogOperation(op string, args ...any) {
	Logger().Debug("operation", append([]any{KeyOperation, op}, args...)...)
}

// Attribute keys shared by every log line.
const (
	KeyRequestID      = "request_id"
	KeyOperation      = "op"
	KeyDuration       = "duration_ms"
	KeyError          = "error"
	KeyAlarmID        = "alarm_id"
	KeyEventID        = "event_id"
	KeyRegistrationID = "registration_id"
	KeyAction         = "action"
	KeySource         = "source"
	KeyStatus         = "status"
	KeyReason         = "reason"
	KeyWebhook        = "webhook"
	KeyCount          = "count"
	KeyFireAt         = "fire_at"
)
