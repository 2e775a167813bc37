package kangaroo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with kangaroo-specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogDump logs a dump of the bucket.
func (l *Logger) LogDump(ctx context.Context, tables, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dump failed",
			"tables", tables,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dump completed",
			"tables", tables,
			"rows", rows,
		)
	}
}

// LogLoad logs a load of the bucket.
func (l *Logger) LogLoad(ctx context.Context, tables, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "load completed",
			"tables", tables,
			"rows", rows,
		)
	}
}

// LogTableAdded logs a table being added to the bucket.
func (l *Logger) LogTableAdded(ctx context.Context, name string, rows int) {
	l.DebugContext(ctx, "table added",
		"table", name,
		"rows", rows,
	)
}

// LogTableDeleted logs a table being removed from the bucket.
func (l *Logger) LogTableDeleted(ctx context.Context, name string, err error) {
	if err != nil {
		l.WarnContext(ctx, "delete table failed",
			"table", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "table deleted",
			"table", name,
		)
	}
}
