// Package metrics keeps named timers and counters for a run and exposes them
// as report lines and as a Prometheus collector.
package metrics

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TimerStats aggregates every observation of one timer.
type TimerStats struct {
	Name  string
	Count int
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Avg returns the mean observation, or zero when nothing was observed.
func (s TimerStats) Avg() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Counter is a named running total.
type Counter struct {
	Name  string
	Value int64
}

// Snapshot is a point-in-time copy of the tracker, sorted by name.
type Snapshot struct {
	Timers   []TimerStats
	Counters []Counter
}

// Empty reports whether nothing has been recorded.
func (s Snapshot) Empty() bool {
	return len(s.Timers) == 0 && len(s.Counters) == 0
}

// Tracker records timer observations and counter increments. It is safe for
// concurrent use and implements prometheus.Collector.
type Tracker struct {
	mu       sync.Mutex
	timers   map[string]*TimerStats
	counters map[string]int64

	timerDesc   *prometheus.Desc
	counterDesc *prometheus.Desc
}

// New returns an empty tracker whose metric names use namespace.
func New(namespace string) *Tracker {
	return &Tracker{
		timers:   make(map[string]*TimerStats),
		counters: make(map[string]int64),
		timerDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "timer", "seconds"),
			"Durations observed by named timers",
			[]string{"name"}, nil,
		),
		counterDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "counter", "value"),
			"Current value of named counters",
			[]string{"name"}, nil,
		),
	}
}

// ObserveDuration records one timing for name.
func (t *Tracker) ObserveDuration(name string, d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stats, ok := t.timers[name]
	if !ok {
		t.timers[name] = &TimerStats{Name: name, Count: 1, Total: d, Min: d, Max: d}
		return
	}
	stats.Count++
	stats.Total += d
	stats.Min = min(stats.Min, d)
	stats.Max = max(stats.Max, d)
}

// Add adjusts the counter name by delta.
func (t *Tracker) Add(name string, delta int64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[name] += delta
}

// Snapshot copies the current state.
func (t *Tracker) Snapshot() Snapshot {
	var snap Snapshot
	if t == nil {
		return snap
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, stats := range t.timers {
		snap.Timers = append(snap.Timers, *stats)
	}
	for name, value := range t.counters {
		snap.Counters = append(snap.Counters, Counter{Name: name, Value: value})
	}
	slices.SortFunc(snap.Timers, func(a, b TimerStats) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(snap.Counters, func(a, b Counter) int { return strings.Compare(a.Name, b.Name) })
	return snap
}

// Reset discards every timer and counter.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.timers)
	clear(t.counters)
}

// ReportLines renders the snapshot for a report block, formatting numbers
// for tag.
func (s Snapshot) ReportLines(tag language.Tag) []string {
	p := message.NewPrinter(tag)
	lines := make([]string, 0, len(s.Timers)+len(s.Counters)+2)
	if len(s.Timers) > 0 {
		lines = append(lines, "Timers:")
		for _, tm := range s.Timers {
			lines = append(lines, p.Sprintf("  %s: count=%d total=%.3fs avg=%.3fs min=%.3fs max=%.3fs",
				tm.Name, tm.Count, tm.Total.Seconds(), tm.Avg().Seconds(), tm.Min.Seconds(), tm.Max.Seconds()))
		}
	}
	if len(s.Counters) > 0 {
		lines = append(lines, "Counters:")
		for _, c := range s.Counters {
			lines = append(lines, p.Sprintf("  %s: %d", c.Name, c.Value))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "no metrics recorded")
	}
	return lines
}

// Describe implements prometheus.Collector.
func (t *Tracker) Describe(ch chan<- *prometheus.Desc) {
	ch <- t.timerDesc
	ch <- t.counterDesc
}

// Collect implements prometheus.Collector.
func (t *Tracker) Collect(ch chan<- prometheus.Metric) {
	snap := t.Snapshot()
	for _, tm := range snap.Timers {
		ch <- prometheus.MustNewConstSummary(t.timerDesc, uint64(tm.Count), tm.Total.Seconds(), nil, tm.Name)
	}
	for _, c := range snap.Counters {
		ch <- prometheus.MustNewConstMetric(t.counterDesc, prometheus.GaugeValue, float64(c.Value), c.Name)
	}
}
