package logging

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestConsoleLabelColumnConstant(t *testing.T) {
	for _, colorize := range []bool{true, false} {
		f := NewFormatter(colorize)
		column := -1
		for _, level := range append(Levels(), slogLevelUnnamed) {
			line := f.Render(Event{Level: level, Message: "payload", Time: testEpoch, Thread: MainThread}, SinkConsole, 0)
			plain := ansiPattern.ReplaceAllString(line, "")
			idx := strings.Index(plain, " - payload")
			if idx < 0 {
				t.Fatalf("level %v: message not found in %q", level, plain)
			}
			width := runewidth.StringWidth(plain[:idx])
			if column == -1 {
				column = width
				continue
			}
			if width != column {
				t.Fatalf("colorize=%v level %s: message starts at column %d, want %d (%q)", colorize, LevelName(level), width, column, plain)
			}
		}
	}
}

const slogLevelUnnamed = LevelInfo + 1

func TestConsoleColorToggle(t *testing.T) {
	ev := Event{Level: LevelError, Message: "x", Time: testEpoch}
	if line := NewFormatter(false).Render(ev, SinkConsole, 0); ansiPattern.MatchString(line) {
		t.Fatalf("expected no escape sequences, got %q", line)
	}
	if line := NewFormatter(true).Render(ev, SinkConsole, 0); !ansiPattern.MatchString(line) {
		t.Fatalf("expected colored label, got %q", line)
	}
}

func TestConsoleRenderFields(t *testing.T) {
	f := NewFormatter(false)
	tests := []struct {
		name    string
		ev      Event
		want    []string
		notWant []string
	}{
		{
			name:    "main thread has no marker",
			ev:      Event{Level: LevelInfo, Message: "ready", Thread: MainThread},
			want:    []string{"🔍 [INFO]", "- ready"},
			notWant: []string{"[T:"},
		},
		{
			name: "worker thread marker",
			ev:   Event{Level: LevelWarn, Message: "slow", Thread: "fetcher"},
			want: []string{"🚨 [WARNING]", "slow [T:fetcher]"},
		},
		{
			name: "context label prefixes message",
			ev:   Event{Level: LevelSuccess, Message: "done", Context: "sync → upload", Thread: MainThread},
			want: []string{"✅ [SUCCESS]", "- [sync → upload] done"},
		},
		{
			name: "attrs and trace",
			ev: Event{
				Level:   LevelError,
				Message: "failed",
				Attrs:   []Attr{String("path", "/tmp/a b"), Int("attempt", 2)},
				Trace:   "error: disk full\nstack line",
			},
			want: []string{`failed path="/tmp/a b" attempt=2`, "\n    error: disk full\n    stack line\n"},
		},
		{
			name: "unknown level uses fallback emoji",
			ev:   Event{Level: slogLevelUnnamed, Message: "odd"},
			want: []string{fallbackEmoji},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ev.Time = testEpoch
			line := f.Render(tt.ev, SinkConsole, 0)
			for _, want := range tt.want {
				if !strings.Contains(line, want) {
					t.Fatalf("expected %q in %q", want, line)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(line, bad) {
					t.Fatalf("did not expect %q in %q", bad, line)
				}
			}
		})
	}
}

func TestFileVerbosityProfiles(t *testing.T) {
	f := NewFormatter(true)
	ev := Event{
		Level:     LevelInfo,
		Message:   "saved",
		Time:      testEpoch,
		Thread:    "writer",
		File:      "/src/app/store/save.go",
		Line:      42,
		CallChain: []string{"main", "run", "save"},
	}
	tests := []struct {
		verbosity int
		want      string
	}{
		{VerbosityMessage, "[INFO]     - saved\n"},
		{VerbosityChain, "[INFO]     <> [main>run>save] - saved\n"},
		{VerbositySource, "[INFO]     <> [main>run>save] [store/save.go:42] - saved\n"},
		{VerbosityThread, "[INFO]     <> [main>run>save] [store/save.go:42] [T:writer] - saved\n"},
		{7, "[INFO]     <> [main>run>save] [store/save.go:42] [T:writer] - saved\n"},
	}
	for _, tt := range tests {
		line := f.Render(ev, SinkFile, tt.verbosity)
		if ansiPattern.MatchString(line) {
			t.Fatalf("file output must not be colored: %q", line)
		}
		if !strings.HasSuffix(line, tt.want) {
			t.Fatalf("verbosity %d: got %q, want suffix %q", tt.verbosity, line, tt.want)
		}
		if !strings.HasPrefix(line, formatTimestamp(testEpoch)+" ") {
			t.Fatalf("verbosity %d: missing timestamp in %q", tt.verbosity, line)
		}
	}
}

func TestFileLabelColumnConstant(t *testing.T) {
	f := NewFormatter(false)
	column := -1
	for _, level := range Levels() {
		line := f.Render(Event{Level: level, Message: "m", Time: testEpoch}, SinkFile, VerbosityMessage)
		idx := strings.Index(line, " - m")
		if column == -1 {
			column = idx
		}
		if idx != column {
			t.Fatalf("level %s: message at %d, want %d", LevelName(level), idx, column)
		}
	}
}

func TestPlainRendersVerbatim(t *testing.T) {
	raw := "╔══ Report ══╗\n  line one\n\tline two\n╚════════════╝"
	f := NewFormatter(true)
	ev := Event{Level: LevelSuccess, Message: raw, Plain: true, Thread: "other", Context: "ctx"}
	for _, kind := range []SinkKind{SinkConsole, SinkFile} {
		if got := f.Render(ev, kind, MaxFileVerbosity); got != raw+"\n" {
			t.Fatalf("kind %d: got %q, want %q", kind, got, raw+"\n")
		}
	}
}

type panickyError struct{}

func (panickyError) Error() string { panic("broken Error method") }

func TestRenderFallbackOnFailure(t *testing.T) {
	f := NewFormatter(false)
	ev := Event{Level: LevelInfo, Message: "raw text", Attrs: []Attr{Any("err", panickyError{})}}
	for _, kind := range []SinkKind{SinkConsole, SinkFile} {
		if got := f.Render(ev, kind, 0); got != "formatting failed: raw text\n" {
			t.Fatalf("kind %d: got %q", kind, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "debug", want: "DEBUG"},
		{in: " INFO ", want: "INFO"},
		{in: "", want: "INFO"},
		{in: "success", want: "SUCCESS"},
		{in: "warning", want: "WARNING"},
		{in: "warn", want: "WARNING"},
		{in: "screen", want: "SCREEN"},
		{in: "error", want: "ERROR"},
		{in: "critical", want: "CRITICAL"},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		level, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseLevel(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", tt.in, err)
		}
		if got := LevelName(level); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if !(LevelInfo < LevelSuccess && LevelSuccess < LevelWarn && LevelWarn < LevelScreen && LevelScreen < LevelError && LevelError < LevelCritical) {
		t.Fatal("custom levels out of order")
	}
}
