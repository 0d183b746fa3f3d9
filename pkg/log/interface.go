// Package log provides structured logging for profgnn training runs.
//
// It defines a minimal, slog-compatible Logger interface so the training loop
// and evaluator can emit per-minibatch and per-epoch records without binding
// to a concrete backend. The default provider writes JSON lines through a
// handler that extracts cockroachdb/errors stack traces into a dedicated
// attribute.
package log

import (
	"context"
)

// Logger is a structured logging interface compatible with Go's log/slog.
// Fields are alternating key/value pairs, as in slog.
type Logger interface {
	// Debug logs detailed diagnostic information, such as per-minibatch losses.
	Debug(msg string, fields ...any)

	// Info logs operational information, such as per-epoch summaries.
	Info(msg string, fields ...any)

	// Warn logs potentially problematic conditions that do not abort the run.
	Warn(msg string, fields ...any)

	// Error logs error conditions. If a field value is an error carrying a
	// cockroachdb stack trace, the trace is attached under StacktraceAttrKey.
	Error(msg string, fields ...any)

	// With returns a Logger that includes the given fields in every record.
	With(fields ...any) Logger

	// Enabled reports whether records at the given level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level, value-compatible with slog.Level.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. It exists so tests can
// substitute an in-memory implementation.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
