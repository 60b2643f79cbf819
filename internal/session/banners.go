package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"devlog/internal/logging"
	"devlog/internal/report"
)

const (
	bannerDateLayout = "02/01/2006"
	bannerTimeLayout = "15:04:05"
)

// Start prints the opening banner. With verbose >= 1 it also resets the
// metrics and appends system status and environment blocks; with
// verbose >= 2 it records the baseline memory snapshot.
func (s *Session) Start(ctx context.Context, verbose int) {
	s.mu.Lock()
	s.started = true
	s.ended = false
	s.verbose = verbose
	s.mu.Unlock()

	lines := append([]string{"🚀 PROCESS STARTED"}, s.bannerLines()...)
	blocks := []string{report.Block("🚦 START", lines)}
	if verbose >= 1 {
		s.ResetMetrics()
		blocks = append(blocks, s.SystemStatusBlock(), s.EnvironmentBlock())
	}
	if verbose >= 2 {
		s.MemorySnapshot(ctx)
	}
	s.Log(ctx, logging.LevelSuccess, report.Combine(blocks...), logging.Plain())
}

// End prints the closing banner. With verbose >= 2 the metrics report, the
// leak check, and network statistics run first; with verbose >= 1 a final
// system status block is appended.
func (s *Session) End(ctx context.Context, verbose int) {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	if verbose >= 2 {
		s.ReportMetrics(ctx)
		s.CheckMemoryLeak(ctx)
		if len(s.checker.Stats()) > 0 {
			s.InfoContext(ctx, "\n"+report.Block("NETWORK", s.checker.StatsLines()))
		}
	}
	lines := append([]string{"🏁 PROCESS FINISHED"}, s.bannerLines()...)
	lines = append(lines, fmt.Sprintf("Elapsed: %s", s.Clock().Since(s.metricsStart()).Round(time.Millisecond)))
	blocks := []string{report.Block("🏁 END", lines)}
	if verbose >= 1 {
		blocks = append(blocks, s.SystemStatusBlock())
	}
	s.Log(ctx, logging.LevelSuccess, report.Combine(blocks...), logging.Plain())
}

func (s *Session) bannerLines() []string {
	now := s.Clock().Now()
	folder := "?"
	if wd, err := os.Getwd(); err == nil {
		folder = filepath.Base(wd)
	}
	return []string{
		fmt.Sprintf("Date: %s • Time: %s", now.Format(bannerDateLayout), now.Format(bannerTimeLayout)),
		fmt.Sprintf("Script: %s • Folder: %s", s.script, folder),
		fmt.Sprintf("Run: %s", s.runID),
	}
}
