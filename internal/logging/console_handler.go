package logging

import (
	"context"
	"log/slog"
	"slices"
)

// sinkScope holds the attributes and groups a sink handler accumulated
// through WithAttrs and WithGroup. Both sinks build their Event from it.
type sinkScope struct {
	attrs  []slog.Attr
	groups []string
}

func (s sinkScope) withAttrs(attrs []slog.Attr) sinkScope {
	if len(attrs) == 0 {
		return s
	}
	// Attributes added inside a group belong to that group.
	if len(s.groups) > 0 {
		attrs = []slog.Attr{nestInGroups(s.groups, attrs)}
	}
	return sinkScope{attrs: append(slices.Clip(s.attrs), attrs...), groups: s.groups}
}

func (s sinkScope) withGroup(name string) sinkScope {
	if name == "" {
		return s
	}
	return sinkScope{attrs: s.attrs, groups: append(slices.Clip(s.groups), name)}
}

func (s sinkScope) event(record slog.Record) Event {
	return newEvent(record, s.attrs, s.groups)
}

// consoleHandler renders records for a human through the shared Terminal,
// which keeps the progress overlay intact around each write.
type consoleHandler struct {
	sinkScope
	term      *Terminal
	level     *slog.LevelVar
	formatter *Formatter
}

func newConsoleHandler(t *Terminal, lvl *slog.LevelVar, formatter *Formatter) *consoleHandler {
	return &consoleHandler{term: t, level: lvl, formatter: formatter}
}

func (h *consoleHandler) SinkName() string { return "console" }

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	ev := h.event(record)
	if ev.FileOnly {
		return nil
	}
	return h.term.WriteLine(h.formatter.Render(ev, SinkConsole, 0))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.sinkScope = h.withAttrs(attrs)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.sinkScope = h.withGroup(name)
	return &clone
}
