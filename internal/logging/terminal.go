package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Mode selects automatic detection or a forced on/off setting.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

// ParseMode maps configuration strings onto a Mode, defaulting to auto.
func ParseMode(value string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeAlways:
		return ModeAlways
	case ModeNever:
		return ModeNever
	default:
		return ModeAuto
	}
}

func (m Mode) resolve(detected bool) bool {
	switch m {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		return detected
	}
}

const (
	maxOverlayWidth = 80
	clearScreenSeq  = "\x1b[H\x1b[2J"
)

// Terminal serializes console writes and owns the active progress overlay.
// Every record is written as one erase, write, redraw unit.
type Terminal struct {
	mu          sync.Mutex
	w           io.Writer
	interactive bool
	width       int
	overlay     *Progress
}

// NewTerminal wraps w. Interactivity is detected from the file descriptor
// when w is an *os.File and mode is auto.
func NewTerminal(w io.Writer, mode Mode) *Terminal {
	if w == nil {
		w = os.Stdout
	}
	t := &Terminal{w: w, width: maxOverlayWidth}
	detected := false
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		detected = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		if detected {
			if cols, _, err := term.GetSize(int(fd)); err == nil && cols > 0 && cols < maxOverlayWidth {
				t.width = cols
			}
		}
	}
	t.interactive = mode.resolve(detected)
	return t
}

// Interactive reports whether in-place redraws are written.
func (t *Terminal) Interactive() bool {
	return t != nil && t.interactive
}

// Writer exposes the underlying console stream.
func (t *Terminal) Writer() io.Writer {
	return t.w
}

// WriteLine writes one rendered record, erasing and redrawing the overlay
// around it when one is active.
func (t *Terminal) WriteLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := t.interactive && t.overlay != nil
	if active {
		t.overlay.erase()
	}
	_, err := io.WriteString(t.w, line)
	if active {
		t.overlay.redraw()
	}
	return err
}

// Clear wipes an interactive screen, redrawing the overlay afterwards.
// Non-interactive streams are left untouched.
func (t *Terminal) Clear() error {
	if !t.Interactive() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.w, clearScreenSeq)
	if t.overlay != nil {
		t.overlay.redraw()
	}
	return err
}

// attach makes p the active overlay, erasing whatever line the previous
// overlay left behind.
func (t *Terminal) attach(p *Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.interactive {
		return
	}
	if t.overlay != nil && t.overlay != p {
		t.overlay.erase()
	}
	t.overlay = p
	p.redraw()
}

// detach clears the line and drops p if it is still the active overlay.
func (t *Terminal) detach(p *Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Exit()
	}
	if t.overlay != p {
		return
	}
	p.erase()
	t.overlay = nil
}

// refresh redraws p at its current position if it is still active.
func (t *Terminal) refresh(p *Progress, current int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.interactive || t.overlay != p {
		return
	}
	p.moveTo(current)
}

func (t *Terminal) active() *Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overlay
}
