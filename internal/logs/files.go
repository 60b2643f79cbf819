package logs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"devlog/internal/logging"
)

// recordHeader matches the timestamp and level label that open a file record.
var recordHeader = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[([A-Z]+)\]`)

// Latest returns the most recently modified *.log file in dir.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return "", fmt.Errorf("list logs: %w", err)
	}
	var (
		newest string
		best   int64
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > best {
			newest, best = path, mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no log files in %s", dir)
	}
	return newest, nil
}

// LineLevel extracts the record level from a file line. Continuation lines
// of multi-line records report false.
func LineLevel(line string) (slog.Level, bool) {
	m := recordHeader.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	level, err := logging.ParseLevel(m[1])
	if err != nil {
		return 0, false
	}
	return level, true
}

// LevelFilter keeps records at or above a minimum level. Continuation lines
// follow the decision made for the record that opened them, across calls.
type LevelFilter struct {
	min  slog.Level
	keep bool
}

// NewLevelFilter returns a filter passing records at minLevel or above.
func NewLevelFilter(minLevel slog.Level) *LevelFilter {
	return &LevelFilter{min: minLevel, keep: true}
}

// Apply returns the lines that pass the filter.
func (f *LevelFilter) Apply(lines []string) []string {
	out := lines[:0:0]
	for _, line := range lines {
		if level, ok := LineLevel(line); ok {
			f.keep = level >= f.min
		}
		if f.keep {
			out = append(out, line)
		}
	}
	return out
}
