package logging

import (
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// SinkKind selects the console or file layout.
type SinkKind int

const (
	SinkConsole SinkKind = iota
	SinkFile
)

// File verbosity levels. Each level adds fields to the one below it.
const (
	VerbosityMessage  = 0
	VerbosityChain    = 1
	VerbositySource   = 2
	VerbosityThread   = 3
	MaxFileVerbosity  = VerbosityThread
	fallbackMsgPrefix = "formatting failed: "
)

// Formatter renders events for the console and file sinks.
type Formatter struct {
	colors map[slog.Level]*color.Color
}

// NewFormatter builds a formatter. When colorize is false the console
// layout is identical but carries no escape sequences.
func NewFormatter(colorize bool) *Formatter {
	f := &Formatter{colors: make(map[slog.Level]*color.Color, len(levelStyles))}
	for level, style := range levelStyles {
		c := color.New(style.color, color.Bold)
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		f.colors[level] = c
	}
	return f
}

// Render produces the line for kind, terminated by a newline. A panic while
// rendering yields the fallback line instead.
func (f *Formatter) Render(ev Event, kind SinkKind, verbosity int) (out string) {
	defer func() {
		if recover() != nil {
			out = fallbackMsgPrefix + ev.Message + "\n"
		}
	}()
	if ev.Plain {
		return ev.Message + "\n"
	}
	var b strings.Builder
	b.Grow(128 + len(ev.Message))
	switch kind {
	case SinkFile:
		f.writeFile(&b, ev, clampVerbosity(verbosity))
	default:
		f.writeConsole(&b, ev)
	}
	writeTail(&b, ev)
	return b.String()
}

func (f *Formatter) writeConsole(b *strings.Builder, ev Event) {
	b.WriteString(formatTimestamp(ev.Time))
	b.WriteByte(' ')
	cell := consoleLabelCell(ev.Level)
	b.WriteString(levelEmoji(ev.Level))
	b.WriteByte(' ')
	b.WriteString(f.paint(ev.Level, bracketLabel(ev.Level)))
	b.WriteString(pad(consoleLabelWidth - runewidth.StringWidth(cell)))
	b.WriteString(" - ")
	writeMessage(b, ev)
	if ev.Thread != "" && ev.Thread != MainThread {
		b.WriteString(" [T:")
		b.WriteString(ev.Thread)
		b.WriteByte(']')
	}
}

func (f *Formatter) writeFile(b *strings.Builder, ev Event, verbosity int) {
	b.WriteString(formatTimestamp(ev.Time))
	b.WriteByte(' ')
	label := bracketLabel(ev.Level)
	b.WriteString(label)
	b.WriteString(pad(fileLabelWidth - len(label)))
	if verbosity >= VerbosityChain {
		b.WriteString(" <> [")
		b.WriteString(strings.Join(ev.CallChain, ChainSeparator))
		b.WriteByte(']')
	}
	if verbosity >= VerbositySource && ev.File != "" {
		b.WriteString(" [")
		b.WriteString(shortPath(ev.File))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(ev.Line))
		b.WriteByte(']')
	}
	if verbosity >= VerbosityThread {
		b.WriteString(" [T:")
		b.WriteString(ev.Thread)
		b.WriteByte(']')
	}
	b.WriteString(" - ")
	writeMessage(b, ev)
}

func writeMessage(b *strings.Builder, ev Event) {
	if ev.Context != "" {
		b.WriteByte('[')
		b.WriteString(ev.Context)
		b.WriteString("] ")
	}
	b.WriteString(ev.Message)
	for _, attr := range ev.Attrs {
		if attr.Key == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(attr.Value))
	}
}

func writeTail(b *strings.Builder, ev Event) {
	b.WriteByte('\n')
	if ev.Trace == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(ev.Trace, "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

func (f *Formatter) paint(level slog.Level, text string) string {
	if f == nil {
		return text
	}
	c, ok := f.colors[level]
	if !ok {
		return text
	}
	return c.Sprint(text)
}

func clampVerbosity(v int) int {
	switch {
	case v < VerbosityMessage:
		return VerbosityMessage
	case v > MaxFileVerbosity:
		return MaxFileVerbosity
	default:
		return v
	}
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// shortPath keeps the parent directory and file name.
func shortPath(path string) string {
	dir, file := filepath.Split(path)
	parent := filepath.Base(filepath.Clean(dir))
	if parent == "." || parent == string(filepath.Separator) || parent == "" {
		return file
	}
	return parent + "/" + file
}

const logTimestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(logTimestampLayout)
}
