package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFanoutHandlerNilHandlers(t *testing.T) {
	h := newFanoutHandler(nil, nil, nil)
	if _, ok := h.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler for all nil handlers, got %T", h)
	}
}

func TestNewFanoutHandlerSingleHandler(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, nil)

	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Error("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsSinkThresholds(t *testing.T) {
	var consoleBuf, fileBuf bytes.Buffer
	consoleLevel := new(slog.LevelVar)
	consoleLevel.Set(LevelWarn)
	fileLevel := new(slog.LevelVar)
	fileLevel.Set(LevelDebug)
	formatter := NewFormatter(false)

	h := newFanoutHandler(
		newConsoleHandler(NewTerminal(&consoleBuf, ModeNever), consoleLevel, formatter),
		newFileHandler("file", &fileBuf, fileLevel, VerbosityMessage, formatter),
	)
	if !h.Enabled(context.Background(), LevelDebug) {
		t.Fatal("expected fanout to be enabled for debug (file accepts it)")
	}

	logger := slog.New(h)
	logger.Debug("debug only in file")
	logger.Warn("warn everywhere")

	if strings.Contains(consoleBuf.String(), "debug only in file") {
		t.Fatalf("console received record below its threshold: %q", consoleBuf.String())
	}
	if !strings.Contains(consoleBuf.String(), "warn everywhere") {
		t.Fatalf("console missing warning: %q", consoleBuf.String())
	}
	for _, want := range []string{"debug only in file", "warn everywhere"} {
		if !strings.Contains(fileBuf.String(), want) {
			t.Fatalf("file missing %q: %q", want, fileBuf.String())
		}
	}
}

func TestFanoutHandlerWithAttrsPropagates(t *testing.T) {
	var a, b bytes.Buffer
	lvl := new(slog.LevelVar)
	formatter := NewFormatter(false)
	h := newFanoutHandler(
		newFileHandler("a", &a, lvl, VerbosityMessage, formatter),
		newFileHandler("b", &b, lvl, VerbosityMessage, formatter),
	)
	slog.New(h).With("job", "sync").Info("counted", slog.Group("stats", "rows", 3))
	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		if !strings.Contains(buf.String(), "counted job=sync stats.rows=3") {
			t.Fatalf("sink %s: got %q", name, buf.String())
		}
	}
}

func TestFanoutHandlerFailedSinkNotReportedToItself(t *testing.T) {
	var ok bytes.Buffer
	lvl := new(slog.LevelVar)
	formatter := NewFormatter(false)
	h := newFanoutHandler(
		newFileHandler("broken", failingWriter{}, lvl, VerbosityMessage, formatter),
		newFileHandler("healthy", &ok, lvl, VerbosityMessage, formatter),
	)
	err := h.Handle(context.Background(), slog.NewRecord(testEpoch, LevelInfo, "payload", 0))
	if err == nil {
		t.Fatal("expected the first sink error to be returned")
	}
	if !strings.Contains(ok.String(), "sink broken write failed: disk full") {
		t.Fatalf("expected failure notice on healthy sink, got %q", ok.String())
	}
}
