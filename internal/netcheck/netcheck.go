// Package netcheck probes connectivity and HTTP latency and keeps per-domain
// request statistics for the run.
package netcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"devlog/internal/logging"
)

const (
	DefaultTarget      = "8.8.8.8:53"
	DefaultURL         = "https://www.google.com"
	DefaultTimeout     = time.Second
	DefaultConcurrency = 5
)

// Options configures a Checker.
type Options struct {
	Target      string
	Timeout     time.Duration
	Concurrency int
	Client      *http.Client
	Clock       clock.PassiveClock
	Logger      *slog.Logger
}

// ConnectionResult reports a TCP reachability check.
type ConnectionResult struct {
	Target    string
	Reachable bool
	Latency   time.Duration
	Err       error
}

// Probe reports one HTTP latency measurement.
type Probe struct {
	URL     string
	Domain  string
	Status  int
	Latency time.Duration
	Bytes   int64
	Err     error
}

// DomainStats accumulates probes against one host.
type DomainStats struct {
	Domain    string
	Requests  int
	Errors    int
	Bytes     int64
	Latencies []time.Duration
}

// AvgLatency averages successful probe latencies.
func (s DomainStats) AvgLatency() time.Duration {
	if len(s.Latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range s.Latencies {
		total += l
	}
	return total / time.Duration(len(s.Latencies))
}

// Checker runs connectivity checks and latency probes.
type Checker struct {
	target      string
	timeout     time.Duration
	concurrency int
	client      *http.Client
	dialer      *net.Dialer
	clock       clock.PassiveClock
	logger      *slog.Logger

	mu      sync.Mutex
	domains map[string]*DomainStats
}

// New builds a checker, filling unset options with defaults.
func New(opts Options) *Checker {
	c := &Checker{
		target:      strings.TrimSpace(opts.Target),
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		client:      opts.Client,
		clock:       opts.Clock,
		logger:      opts.Logger,
		domains:     make(map[string]*DomainStats),
	}
	if c.target == "" {
		c.target = DefaultTarget
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.concurrency <= 0 {
		c.concurrency = DefaultConcurrency
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 10 * c.timeout}
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	c.dialer = &net.Dialer{Timeout: c.timeout}
	return c
}

// CheckConnection dials the configured target over TCP.
func (c *Checker) CheckConnection(ctx context.Context) ConnectionResult {
	result := ConnectionResult{Target: c.target}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	conn, err := c.dialer.DialContext(ctx, "tcp", c.target)
	result.Latency = c.clock.Since(start)
	if err != nil {
		result.Err = fmt.Errorf("dial %s: %w", c.target, err)
		c.logger.Debug("connectivity check failed", logging.String("target", c.target), logging.Error(err))
		return result
	}
	_ = conn.Close()
	result.Reachable = true
	c.logger.Debug("connectivity check passed",
		logging.String("target", c.target),
		logging.Duration("latency", result.Latency),
	)
	return result
}

// MeasureLatency issues a GET against rawURL, drains the body and records
// the outcome in the per-domain statistics.
func (c *Checker) MeasureLatency(ctx context.Context, rawURL string) Probe {
	probe := Probe{URL: rawURL, Domain: domainOf(rawURL)}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		probe.Err = fmt.Errorf("build request: %w", err)
		c.record(probe)
		return probe
	}

	start := c.clock.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		probe.Latency = c.clock.Since(start)
		probe.Err = fmt.Errorf("get %s: %w", rawURL, err)
		c.record(probe)
		return probe
	}
	n, copyErr := io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	probe.Latency = c.clock.Since(start)
	probe.Status = resp.StatusCode
	probe.Bytes = n
	switch {
	case copyErr != nil:
		probe.Err = fmt.Errorf("read %s: %w", rawURL, copyErr)
	case resp.StatusCode >= http.StatusBadRequest:
		probe.Err = fmt.Errorf("get %s: unexpected status %s", rawURL, resp.Status)
	}
	c.record(probe)
	c.logger.Debug("latency probe",
		logging.String("url", rawURL),
		logging.Int("status", probe.Status),
		logging.Duration("latency", probe.Latency),
		logging.Int64("bytes", probe.Bytes),
	)
	return probe
}

// ProbeAll measures every URL with bounded concurrency. Results keep the
// order of urls.
func (c *Checker) ProbeAll(ctx context.Context, urls []string) []Probe {
	results := make([]Probe, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for idx, u := range urls {
		g.Go(func() error {
			results[idx] = c.MeasureLatency(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Checker) record(p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.domains[p.Domain]
	if !ok {
		stats = &DomainStats{Domain: p.Domain}
		c.domains[p.Domain] = stats
	}
	stats.Requests++
	stats.Bytes += p.Bytes
	if p.Err != nil {
		stats.Errors++
		return
	}
	stats.Latencies = append(stats.Latencies, p.Latency)
}

// Stats returns a copy of the per-domain statistics sorted by domain.
func (c *Checker) Stats() []DomainStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DomainStats, 0, len(c.domains))
	for _, s := range c.domains {
		cp := *s
		cp.Latencies = slices.Clone(s.Latencies)
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b DomainStats) int { return strings.Compare(a.Domain, b.Domain) })
	return out
}

// StatsLines renders the per-domain statistics for a report block.
func (c *Checker) StatsLines() []string {
	stats := c.Stats()
	if len(stats) == 0 {
		return []string{"no requests recorded"}
	}
	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		lines = append(lines, fmt.Sprintf("%s: requests=%d errors=%d bytes=%d avg=%s",
			s.Domain, s.Requests, s.Errors, s.Bytes, s.AvgLatency().Round(time.Millisecond)))
	}
	return lines
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
