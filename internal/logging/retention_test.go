package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old - 01-01-2020 00-00-00.log")
	current := filepath.Join(dir, "current.log")
	fresh := filepath.Join(dir, "fresh.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	removed := CleanupOldLogs(nil, 7, RetentionTarget{Dir: dir, Pattern: "*.log", Exclude: []string{current}})
	if len(removed) != 1 || filepath.Base(removed[0]) != filepath.Base(old) {
		t.Fatalf("unexpected removals %v", removed)
	}
	for _, path := range []string{current, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
	if got := CleanupOldLogs(nil, 0, RetentionTarget{Dir: dir}); got != nil {
		t.Fatalf("retention 0 should disable pruning, got %v", got)
	}
}
