package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// WriteLog writes lines to path, newline terminated, creating parent
// directories. A non-zero modTime is applied to the file afterwards.
func WriteLog(t testing.TB, path string, modTime time.Time, lines ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if modTime.IsZero() {
		return
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
