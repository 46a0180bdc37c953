// Package logging is the process-wide structured logger. Console output
// uses a compact single-line format; JSON output is available for
// machine consumption.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// LevelTrace sits below slog's debug level for per-tick spam (frame
// publishes, pointer events).
const LevelTrace = slog.LevelDebug - 4

type contextKey string

const requestIDKey contextKey = "requestID"

var (
	level  = new(slog.LevelVar)
	logger = slog.New(NewCompactHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
)

// SetLevel changes the minimum logged level.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetVerbosity maps a -v count to a level: 0 info, 1 debug, 2+ trace.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		level.Set(slog.LevelInfo)
	case v == 1:
		level.Set(slog.LevelDebug)
	default:
		level.Set(LevelTrace)
	}
}

// SetJSONOutput switches to slog's JSON handler at the current level.
func SetJSONOutput() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// WithRequestID stores a request ID on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func withRequestID(ctx context.Context, args []any) []any {
	if requestID := GetRequestID(ctx); requestID != "" {
		return append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Trace logs per-tick noise that is only wanted at -vv.
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs internal component behavior.
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Info logs user-facing operations.
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warn logs conditions worth monitoring.
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Error logs bugs and failures.
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// Fatal logs at error level and exits.
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

// InfoContext logs at info level, tagging the request ID when present.
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, withRequestID(ctx, args)...)
}

// DebugContext logs at debug level, tagging the request ID when present.
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, withRequestID(ctx, args)...)
}

// WarnContext logs at warn level, tagging the request ID when present.
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, withRequestID(ctx, args)...)
}

// ErrorContext logs at error level, tagging the request ID when present.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, withRequestID(ctx, args)...)
}
