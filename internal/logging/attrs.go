package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr is the attribute type accepted by every Router method.
type Attr = slog.Attr

// Well-known attribute keys.
const (
	FieldComponent = "component"
	// FieldEventType classifies a record for later filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to whoever reads a warning.
	FieldErrorHint = "error_hint"
	// FieldRunID identifies one process run across the info and debug files.
	FieldRunID = "run_id"
)

func Any(key string, value any) Attr { return slog.Any(key, value) }

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

// Duration keeps the duration kind; sinks render it rounded to the
// millisecond.
func Duration(key string, d time.Duration) Attr { return slog.Duration(key, d) }

// Error attaches err under "error". A nil error is kept visible as <nil>
// so a misplaced Error(nil) shows up in the output.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with FieldComponent. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards all records.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
