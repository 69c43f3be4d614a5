package mgindex

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with index-specific helpers.
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
	return NewLogger(slog.DiscardHandler)
}

// WithParams tags the logger with the index parameters.
func (l *Logger) WithParams(k, w, b int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k, "w", w, "b", b),
	}
}

// LogPhase logs the completion of one build phase.
func (l *Logger) LogPhase(ctx context.Context, phase string, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build phase failed",
			"phase", phase,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "build phase completed",
		"phase", phase,
		"elapsed", elapsed,
	)
}

// LogOverlap logs a graph rejected by the overlap guard.
func (l *Logger) LogOverlap(ctx context.Context, arc int, ov, ow int64) {
	l.ErrorContext(ctx, "graph contains overlapping segments; refusing to index",
		"arc", arc,
		"overlap", ov,
		"overlap_weight", ow,
	)
}

// LogBuild logs a completed index build.
func (l *Logger) LogBuild(ctx context.Context, s Stats, elapsed time.Duration) {
	l.InfoContext(ctx, "index built",
		"buckets", s.NumBuckets,
		"nonempty_buckets", s.NonEmptyBuckets,
		"minimizers", s.NumKeys,
		"singletons", s.NumSingletons,
		"occurrences", s.NumOccurrences,
		"elapsed", elapsed,
	)
}
