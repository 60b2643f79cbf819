package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"devlog/internal/logging"
	"devlog/internal/logs"
	"devlog/internal/testsupport"
)

func TestTailLastLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devlog.log")
	content := "a\nb\nc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset == 0 {
		t.Fatal("expected offset to advance")
	}
}

func TestTailFollowWaits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devlog.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	opts := logs.TailOptions{Offset: -1, Limit: 1}
	result, err := logs.Tail(ctx, path, opts)
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", result.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
		close(done)
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat log: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "missing.log"), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTailFromOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devlog.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 4})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "two" || result.Offset != 8 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLatestPicksNewestLog(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "run - 01-01-2026 10-00-00.log")
	newer := filepath.Join(dir, "run - 02-01-2026 10-00-00.log")
	testsupport.WriteLog(t, older, time.Now().Add(-time.Hour), "x")
	testsupport.WriteLog(t, newer, time.Time{}, "x")
	testsupport.WriteLog(t, filepath.Join(dir, "notes.txt"), time.Time{}, "x")

	got, err := logs.Latest(dir)
	if err != nil || got != newer {
		t.Fatalf("Latest = %q, %v", got, err)
	}
	if _, err := logs.Latest(t.TempDir()); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestLevelFilterKeepsContinuationLines(t *testing.T) {
	lines := []string{
		"2026-03-14 09:26:53 [DEBUG]    - noisy",
		"2026-03-14 09:26:53 [ERROR]    - failed",
		"    goroutine stack:",
		"2026-03-14 09:26:54 [INFO]     - fine",
		"    continuation of info",
		"2026-03-14 09:26:55 [CRITICAL] - boom",
	}
	f := logs.NewLevelFilter(logging.LevelWarn)
	got := f.Apply(lines)
	want := []string{lines[1], lines[2], lines[5]}
	if len(got) != len(want) {
		t.Fatalf("Apply = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Apply[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// A continuation arriving in a later batch follows the last record.
	if more := f.Apply([]string{"    trailing"}); len(more) != 1 {
		t.Fatalf("expected continuation of CRITICAL record, got %q", more)
	}
}

func TestTailHoldsBackPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devlog.log")
	if err := os.WriteFile(path, []byte("done\nhalf"), 0o644); err != nil {
		t.Fatal(err)
	}

	last, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(last.Lines) != 1 || last.Lines[0] != "done" || last.Offset != 5 {
		t.Fatalf("unexpected result %+v", last)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(" written\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	next, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: last.Offset})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "half written" {
		t.Fatalf("unexpected lines %q", next.Lines)
	}
}

func TestTailLastLinesAcrossChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devlog.log")
	long := strings.Repeat("x", 70*1024)
	if err := os.WriteFile(path, []byte("first\n"+long+"\nlast\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != long || result.Lines[1] != "last" {
		t.Fatalf("unexpected lines: %d", len(result.Lines))
	}
}
