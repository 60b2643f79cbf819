package logging

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
	"k8s.io/utils/clock"
)

const (
	defaultProgressLogInterval    = time.Second
	defaultProgressRedrawInterval = 200 * time.Millisecond
	defaultProgressUnit           = "items"
	textBarWidth                  = 20
)

type progressConfig struct {
	unit           string
	logInterval    time.Duration
	redrawInterval time.Duration
	level          slog.Level
}

func defaultProgressConfig() progressConfig {
	return progressConfig{
		unit:           defaultProgressUnit,
		logInterval:    defaultProgressLogInterval,
		redrawInterval: defaultProgressRedrawInterval,
		level:          LevelInfo,
	}
}

// ProgressOption customizes a single progress overlay.
type ProgressOption func(*progressConfig)

// WithUnit names what is being counted ("files", "MB").
func WithUnit(unit string) ProgressOption {
	return func(c *progressConfig) {
		if unit = strings.TrimSpace(unit); unit != "" {
			c.unit = unit
		}
	}
}

// WithLogInterval sets the minimum spacing between logged progress records.
func WithLogInterval(d time.Duration) ProgressOption {
	return func(c *progressConfig) {
		if d > 0 {
			c.logInterval = d
		}
	}
}

// WithRedrawInterval sets the minimum spacing between terminal redraws.
func WithRedrawInterval(d time.Duration) ProgressOption {
	return func(c *progressConfig) {
		if d > 0 {
			c.redrawInterval = d
		}
	}
}

// WithProgressLevel sets the level used for logged progress records.
func WithProgressLevel(level slog.Level) ProgressOption {
	return func(c *progressConfig) { c.level = level }
}

// Progress is a live progress indicator. Logged records are throttled to
// the log interval; the in-place terminal line is only drawn on an
// interactive console. Close is idempotent.
type Progress struct {
	router *Router
	ctx    context.Context
	desc   string
	total  int64
	cfg    progressConfig
	clock  clock.PassiveClock
	start  time.Time
	bar    *progressbar.ProgressBar

	mu      sync.Mutex
	current int64
	logs    *progressThrottle
	draws   *progressThrottle
	closed  bool
}

// Progress starts an overlay for total items (zero or negative when the
// total is unknown) and logs its starting record. It supersedes any overlay
// already drawn on the console.
func (r *Router) Progress(ctx context.Context, total int, desc string, opts ...ProgressOption) *Progress {
	if r == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := r.progress
	for _, opt := range opts {
		opt(&cfg)
	}
	now := r.clock.Now()
	p := &Progress{
		router: r,
		ctx:    ctx,
		desc:   strings.TrimSpace(desc),
		total:  int64(total),
		cfg:    cfg,
		clock:  r.clock,
		start:  now,
		logs:   newProgressThrottle(cfg.logInterval, now),
		draws:  newProgressThrottle(cfg.redrawInterval, now),
	}
	if p.total < 0 {
		p.total = 0
	}
	r.log(ctx, cfg.level, fmt.Sprintf("⏱️ Starting: %s (0/%s %s)", p.desc, p.totalText(), cfg.unit), nil)
	r.state.track(p)
	if r.term.Interactive() {
		p.bar = newOverlayBar(r.term, p.desc, p.total, cfg.unit)
		r.term.attach(p)
	}
	return p
}

func newOverlayBar(t *Terminal, desc string, total int64, unit string) *progressbar.ProgressBar {
	limit := total
	if limit <= 0 {
		limit = -1
	}
	barWidth := textBarWidth
	if t.width < maxOverlayWidth {
		barWidth = max(5, t.width/4)
	}
	descWidth := t.width - barWidth - 40
	if descWidth < 8 {
		descWidth = 8
	}
	return progressbar.NewOptions64(limit,
		progressbar.OptionSetWriter(t.Writer()),
		progressbar.OptionSetDescription(runewidth.Truncate(desc, descWidth, "…")),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionThrottle(0),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionSetPredictTime(true),
		// Spinner frames advance on our redraws only; the library's own
		// ticker would write outside the terminal lock.
		progressbar.OptionSetSpinnerChangeInterval(0),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Update advances the counter by n. Counts past the total are accepted.
func (p *Progress) Update(n int) {
	if p == nil {
		return
	}
	now := p.clock.Now()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.current += int64(n)
	current := p.current
	logDue := p.logs.ShouldEmit(now, current, p.total)
	drawDue := p.bar != nil && p.draws.ShouldEmit(now, current, p.total)
	var msg string
	if logDue {
		msg = p.statusLine(current, now)
	}
	p.mu.Unlock()

	if drawDue {
		p.router.term.refresh(p, current)
	}
	if logDue {
		p.router.log(p.ctx, p.cfg.level, msg, nil)
	}
}

// Close logs the final record and releases the console line. Only the first
// call has any effect.
func (p *Progress) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	current := p.current
	elapsed := p.clock.Since(p.start)
	p.mu.Unlock()

	if p.bar != nil {
		p.router.term.detach(p)
	}
	p.router.log(p.ctx, p.cfg.level, fmt.Sprintf("✅ Completed: %s (%d/%s %s) in %.2fs",
		p.desc, current, p.totalText(), p.cfg.unit, elapsed.Seconds()), nil)
}

// Current returns the counter value.
func (p *Progress) Current() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.current)
}

// Total returns the declared total, or 0 when unknown.
func (p *Progress) Total() int {
	if p == nil {
		return 0
	}
	return int(p.total)
}

// Closed reports whether Close has run.
func (p *Progress) Closed() bool {
	if p == nil {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Progress) totalText() string {
	if p.total <= 0 {
		return "?"
	}
	return strconv.FormatInt(p.total, 10)
}

func (p *Progress) statusLine(current int64, now time.Time) string {
	elapsed := now.Sub(p.start)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(current) / elapsed.Seconds()
	}
	percent := "?%"
	remaining := "?"
	if p.total > 0 {
		percent = fmt.Sprintf("%.1f%%", float64(current)*100/float64(p.total))
		switch {
		case current >= p.total:
			remaining = "0s"
		case rate > 0:
			left := time.Duration(float64(p.total-current) / rate * float64(time.Second))
			remaining = left.Round(time.Second).String()
		}
	}
	return fmt.Sprintf("📊 %s: [%s] %d/%s %s (%s) • %.1f %s/s • %s remaining",
		p.desc, textBar(current, p.total), current, p.totalText(), p.cfg.unit, percent, rate, p.cfg.unit, remaining)
}

// textBar renders a fixed-width bar for logged records. An unknown total
// renders an empty bar.
func textBar(current, total int64) string {
	filled := 0
	if total > 0 && current > 0 {
		filled = int(min(current, total) * textBarWidth / total)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", textBarWidth-filled)
}

// The methods below run with the terminal lock held.

func (p *Progress) erase() {
	if p.bar != nil {
		_ = p.bar.Clear()
	}
}

func (p *Progress) redraw() {
	if p.bar != nil {
		_ = p.bar.RenderBlank()
	}
}

func (p *Progress) moveTo(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Track wraps seq so that each element drawn advances a progress overlay by
// one. The overlay closes when seq is exhausted or the consumer stops early.
func Track[E any](ctx context.Context, r *Router, seq iter.Seq[E], total int, desc string, opts ...ProgressOption) iter.Seq[E] {
	return func(yield func(E) bool) {
		p := r.Progress(ctx, total, desc, opts...)
		defer p.Close()
		for item := range seq {
			if !yield(item) {
				return
			}
			p.Update(1)
		}
	}
}

// TrackSlice is Track over the elements of items with their indexes.
func TrackSlice[S ~[]E, E any](ctx context.Context, r *Router, items S, desc string, opts ...ProgressOption) iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		p := r.Progress(ctx, len(items), desc, opts...)
		defer p.Close()
		for idx, item := range items {
			if !yield(idx, item) {
				return
			}
			p.Update(1)
		}
	}
}

// WithProgress runs fn with a fresh overlay and closes it afterwards.
func (r *Router) WithProgress(ctx context.Context, total int, desc string, fn func(*Progress) error, opts ...ProgressOption) error {
	p := r.Progress(ctx, total, desc, opts...)
	defer p.Close()
	return fn(p)
}
