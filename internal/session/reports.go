package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"devlog/internal/logging"
	"devlog/internal/netcheck"
	"devlog/internal/report"
	"devlog/internal/sysmon"
)

const envModuleLimit = 12

// SystemStatusBlock samples CPU and memory and renders them as a block.
func (s *Session) SystemStatusBlock() string {
	status, err := s.monitor.Status()
	lines := status.Lines()
	if err != nil {
		s.Debug("system status incomplete", logging.Error(err))
		lines = append(lines, "some counters unavailable")
	}
	return report.Block("SYSTEM STATUS", lines)
}

// LogSystemStatus logs the system status block at INFO.
func (s *Session) LogSystemStatus(ctx context.Context) {
	s.InfoContext(ctx, "\n"+s.SystemStatusBlock())
}

// EnvironmentBlock renders the cached environment report.
func (s *Session) EnvironmentBlock() string {
	return report.Block("ENVIRONMENT", s.env.Get().Lines(envModuleLimit))
}

// LogEnvironment logs the environment block at INFO.
func (s *Session) LogEnvironment(ctx context.Context) {
	s.InfoContext(ctx, "\n"+s.EnvironmentBlock())
}

// MemorySnapshot records heap state; the first snapshot is the leak
// baseline.
func (s *Session) MemorySnapshot(ctx context.Context) sysmon.Snapshot {
	snap := s.monitor.TakeSnapshot()
	s.DebugContext(ctx, "Memory snapshot recorded",
		logging.Uint64("heap_objects", snap.HeapObjects),
		logging.Int("goroutines", snap.Goroutines),
	)
	return snap
}

// CheckMemoryLeak compares the heap against the baseline snapshot and logs
// the difference, at WARN when growth exceeds the threshold.
func (s *Session) CheckMemoryLeak(ctx context.Context) sysmon.LeakReport {
	rep := s.monitor.CheckLeak()
	level := logging.LevelInfo
	if rep.Suspected {
		level = logging.LevelWarn
	}
	s.Log(ctx, level, "\n"+report.Block("MEMORY LEAK CHECK", rep.Lines()))
	return rep
}

// ConnectivityBlock checks the TCP target and probes urls, falling back to
// the configured URLs when none are given.
func (s *Session) ConnectivityBlock(ctx context.Context, urls ...string) (string, netcheck.ConnectionResult) {
	if len(urls) == 0 {
		urls = s.cfg.Network.URLs
	}
	conn := s.checker.CheckConnection(ctx)
	var lines []string
	if conn.Reachable {
		lines = append(lines, fmt.Sprintf("Status: connected • Latency: %.1fms", millis(conn.Latency)))
	} else {
		lines = append(lines, fmt.Sprintf("No connection to %s (%v)", conn.Target, conn.Err))
	}
	for _, p := range s.checker.ProbeAll(ctx, urls) {
		if p.Status == 0 {
			lines = append(lines, fmt.Sprintf("Error reaching %s: %v", p.URL, p.Err))
			continue
		}
		lines = append(lines,
			fmt.Sprintf("URL: %s", p.URL),
			fmt.Sprintf("↳ Latency: %.1fms • Status: %d • Size: %s", millis(p.Latency), p.Status, humanize.IBytes(uint64(p.Bytes))),
		)
	}
	return report.Block("CONNECTIVITY", lines), conn
}

// CheckConnectivity logs the connectivity block, at WARN when the target
// is unreachable.
func (s *Session) CheckConnectivity(ctx context.Context, urls ...string) netcheck.ConnectionResult {
	block, conn := s.ConnectivityBlock(ctx, urls...)
	level := logging.LevelInfo
	if !conn.Reachable {
		level = logging.LevelWarn
	}
	s.Log(ctx, level, "\n"+block)
	return conn
}

// ReportMetrics logs the time since the last reset and, when any were
// recorded, the timer and counter summary.
func (s *Session) ReportMetrics(ctx context.Context) {
	elapsed := s.Clock().Since(s.metricsStart())
	s.InfoContext(ctx, fmt.Sprintf("⏱️ Total duration: %.1fs", elapsed.Seconds()))
	snap := s.tracker.Snapshot()
	if snap.Empty() {
		return
	}
	s.InfoContext(ctx, "\n"+report.Block("METRICS", snap.ReportLines(s.lang)))
}

// ResetMetrics clears timers and counters and restarts the duration clock.
func (s *Session) ResetMetrics() {
	s.tracker.Reset()
	now := s.Clock().Now()
	s.mu.Lock()
	s.metricsT = now
	s.mu.Unlock()
}

func (s *Session) metricsStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metricsT
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
