package vecport

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vecport-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSource adds a source field to the logger (useful for tagging inputs).
func (l *Logger) WithSource(source string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", source),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogLoad logs an input decode operation.
func (l *Logger) LogLoad(ctx context.Context, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"bytes", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"bytes", size,
		)
	}
}

// LogDetect logs a structure detection pass.
func (l *Logger) LogDetect(ctx context.Context, shape string, emitted, dropped int) {
	if dropped > 0 {
		l.WarnContext(ctx, "detection completed with drops",
			"shape", shape,
			"emitted", emitted,
			"dropped", dropped,
		)
	} else {
		l.DebugContext(ctx, "detection completed",
			"shape", shape,
			"emitted", emitted,
		)
	}
}

// LogSkip logs a record skipped during coercion.
func (l *Logger) LogSkip(ctx context.Context, id string, err error) {
	l.WarnContext(ctx, "record skipped",
		"id", id,
		"error", err,
	)
}

// LogDimensionDivergence logs a record whose vector length differs from the
// document dimension.
func (l *Logger) LogDimensionDivergence(ctx context.Context, id string, expected, actual int) {
	l.WarnContext(ctx, "dimension divergence",
		"id", id,
		"expected", expected,
		"actual", actual,
	)
}

// LogConvert logs a completed conversion.
func (l *Logger) LogConvert(ctx context.Context, dimension, count, skipped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "conversion failed",
			"error", err,
		)
	} else if skipped > 0 {
		l.WarnContext(ctx, "conversion completed with skips",
			"dimension", dimension,
			"count", count,
			"skipped", skipped,
		)
	} else {
		l.InfoContext(ctx, "conversion completed",
			"dimension", dimension,
			"count", count,
		)
	}
}

// LogEncode logs a document encode operation.
func (l *Logger) LogEncode(ctx context.Context, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "encode failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "encode completed",
			"bytes", size,
		)
	}
}
