package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type attrsKey struct{}

// WithAttrs returns a context whose loggers carry args on every record,
// after any attributes attached further up.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	prev := attrs(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(append(merged, prev...), args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

func attrs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(attrsKey{}).([]any)
	return a
}

// NewRequestID returns a short id tying together the records of one
// poll tick or command.
func NewRequestID() string {
	return uuid.NewString()[:8]
}

// WithRequestID tags ctx with a request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return WithAttrs(ctx, KeyRequestID, id)
}

// WithAlarm scopes ctx to one alarm.
func WithAlarm(ctx context.Context, alarmID string) context.Context {
	return WithAttrs(ctx, KeyAlarmID, alarmID)
}

// RequestID returns the innermost request id attached to ctx.
func RequestID(ctx context.Context) string {
	a := attrs(ctx)
	for i := len(a) - 2; i >= 0; i -= 2 {
		if a[i] == KeyRequestID {
			id, _ := a[i+1].(string)
			return id
		}
	}
	return ""
}

// FromContext returns the default logger with ctx's attributes applied.
func FromContext(ctx context.Context) *slog.Logger {
	if a := attrs(ctx); len(a) > 0 {
		return Logger().With(a...)
	}
	return Logger()
}
