package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// fileHandler writes undecorated records at a fixed verbosity. The mutex is
// shared by clones so one file never receives interleaved records.
type fileHandler struct {
	sinkScope
	name      string
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	verbosity int
	formatter *Formatter
}

func newFileHandler(name string, w io.Writer, lvl *slog.LevelVar, verbosity int, formatter *Formatter) *fileHandler {
	return &fileHandler{
		name:      name,
		mu:        new(sync.Mutex),
		writer:    w,
		level:     lvl,
		verbosity: clampVerbosity(verbosity),
		formatter: formatter,
	}
}

func (h *fileHandler) SinkName() string { return h.name }

func (h *fileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *fileHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	line := h.formatter.Render(h.event(record), SinkFile, h.verbosity)
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, line)
	return err
}

func (h *fileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.sinkScope = h.withAttrs(attrs)
	return &clone
}

func (h *fileHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.sinkScope = h.withGroup(name)
	return &clone
}
