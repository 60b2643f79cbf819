package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

type namedSink interface {
	SinkName() string
}

// fanoutHandler delivers each record to every sink that accepts its level.
// A sink that fails to write is reported once through the sinks that
// succeeded; it is reported again only after it has recovered.
type fanoutHandler struct {
	handlers []slog.Handler
	// down holds sink indexes already reported as failing. Shared by clones.
	down *sync.Map
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	if len(filtered) == 0 {
		return NoopHandler{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &fanoutHandler{handlers: filtered, down: &sync.Map{}}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var (
		firstErr error
		failed   map[int]error
	)
	for idx, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		rec := record
		if idx < len(h.handlers)-1 {
			rec = record.Clone()
		}
		if err := handler.Handle(ctx, rec); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if failed == nil {
				failed = make(map[int]error)
			}
			failed[idx] = err
			continue
		}
		h.down.Delete(idx)
	}
	if len(failed) > 0 {
		h.reportFailures(ctx, record, failed)
	}
	return firstErr
}

func (h *fanoutHandler) reportFailures(ctx context.Context, record slog.Record, failed map[int]error) {
	for idx, err := range failed {
		if _, seen := h.down.LoadOrStore(idx, struct{}{}); seen {
			continue
		}
		notice := slog.NewRecord(record.Time, LevelError, fmt.Sprintf("sink %s write failed: %v", sinkName(h.handlers[idx], idx), err), 0)
		notice.AddAttrs(slog.Any(keyChain, []string{"sink"}))
		for other, handler := range h.handlers {
			if _, down := failed[other]; down {
				continue
			}
			_ = handler.Handle(ctx, notice.Clone())
		}
	}
}

func sinkName(handler slog.Handler, idx int) string {
	if named, ok := handler.(namedSink); ok {
		return named.SinkName()
	}
	return "#" + strconv.Itoa(idx)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next, down: h.down}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next, down: h.down}
}

// TeeHandler creates a handler that duplicates log output to multiple handlers.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	return newFanoutHandler(handlers...)
}
