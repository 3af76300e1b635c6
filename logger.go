package largearray

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with largearray-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithArray adds the array id and element type to the logger.
func (l *Logger) WithArray(id uint64, typ string) *Logger {
	return &Logger{
		Logger: l.Logger.With("array", id, "type", typ),
	}
}

// LogCreate logs the creation of an array.
func (l *Logger) LogCreate(ctx context.Context, dims Dims, unitPower uint, readOnly bool) {
	l.DebugContext(ctx, "array created",
		"dims", dims.String(),
		"unit_power", unitPower,
		"read_only", readOnly,
	)
}

// LogClose logs the release of an array.
func (l *Logger) LogClose(ctx context.Context, leaked bool, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "array release failed",
			"leaked", leaked,
			"error", err,
		)
	case leaked:
		l.WarnContext(ctx, "array was not closed, released by cleanup")
	default:
		l.DebugContext(ctx, "array closed")
	}
}

// LogFlush logs a flush of dirty pages.
func (l *Logger) LogFlush(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "flush completed")
	}
}

// LogSave logs the serialization of an array.
func (l *Logger) LogSave(ctx context.Context, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "array saved",
			"name", name,
			"bytes", bytes,
		)
	}
}

// LogLoad logs the restoration of an array.
func (l *Logger) LogLoad(ctx context.Context, name string, pages int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "array loaded",
			"name", name,
			"pages", pages,
		)
	}
}
