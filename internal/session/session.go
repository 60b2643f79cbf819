package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"k8s.io/utils/clock"

	"devlog/internal/config"
	"devlog/internal/deps"
	"devlog/internal/logging"
	"devlog/internal/metrics"
	"devlog/internal/netcheck"
	"devlog/internal/sysmon"
)

// CommandRunner executes an external command, used for screenshots.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Options configures Open. Only Config is required.
type Options struct {
	Config *config.Config
	// Console defaults to os.Stdout.
	Console io.Writer
	// Input feeds Pause; defaults to os.Stdin.
	Input io.Reader
	Clock clock.Clock
	// Script names the banner's script line; defaults to the executable.
	Script string
	// Language formats numbers in the metrics report.
	Language language.Tag
	// Runner defaults to exec.CommandContext(...).Run.
	Runner CommandRunner
	// Checker replaces the checker built from the network section.
	Checker *netcheck.Checker
}

// Session is one logged run.
type Session struct {
	*logging.Router

	cfg      config.Config
	tracker  *metrics.Tracker
	monitor  *sysmon.Monitor
	checker  *netcheck.Checker
	env      *deps.EnvCache
	runID    string
	script   string
	lang     language.Tag
	input    *bufio.Reader
	runner   CommandRunner
	capture  *logging.PrintRedirect
	metricsT time.Time

	mu        sync.Mutex
	started   bool
	ended     bool
	verbose   int
	closeOnce sync.Once
	closeErr  error
}

// Open builds the router and the helpers around it. A nil config uses the
// defaults with file sinks disabled.
func Open(opts Options) (*Session, error) {
	cfg := config.Default()
	cfg.Logging.Dir = ""
	if opts.Config != nil {
		cfg = *opts.Config
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	tracker := metrics.New(cfg.Metrics.Namespace)
	router, err := logging.New(logging.Options{
		Name:                   cfg.Logging.Name,
		Dir:                    cfg.Logging.Dir,
		ConsoleLevel:           cfg.Logging.ConsoleLevel,
		FileLevel:              cfg.Logging.FileLevel,
		Verbosity:              cfg.Logging.Verbosity,
		Color:                  logging.ParseMode(cfg.Logging.Color),
		Interactive:            logging.ParseMode(cfg.Logging.Interactive),
		Console:                opts.Console,
		MaxSizeMB:              cfg.Logging.MaxSizeMB,
		MaxBackups:             cfg.Logging.MaxBackups,
		Compress:               cfg.Logging.Compress,
		RetentionDays:          cfg.Logging.RetentionDays,
		ProgressLogInterval:    cfg.Progress.LogInterval(),
		ProgressRedrawInterval: cfg.Progress.RedrawInterval(),
		ProgressUnit:           cfg.Progress.Unit,
		ExcludeFuncs:           cfg.Logging.ExcludeFuncs,
		Clock:                  clk,
		Metrics:                tracker,
	})
	if err != nil {
		return nil, fmt.Errorf("open logger: %w", err)
	}

	s := &Session{
		Router:   router,
		cfg:      cfg,
		tracker:  tracker,
		env:      deps.NewEnvCache(clk, deps.DefaultEnvTTL),
		runID:    uuid.NewString(),
		script:   opts.Script,
		lang:     opts.Language,
		runner:   opts.Runner,
		metricsT: clk.Now(),
		verbose:  1,
	}
	if s.script == "" {
		s.script = filepath.Base(os.Args[0])
	}
	if s.lang == language.Und {
		s.lang = language.English
	}
	if s.runner == nil {
		s.runner = func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		}
	}
	input := opts.Input
	if input == nil {
		input = os.Stdin
	}
	s.input = bufio.NewReader(input)

	s.monitor = sysmon.New(sysmon.Options{
		LeakThreshold: int64(cfg.Monitor.LeakThreshold),
		ProcRoot:      cfg.Monitor.ProcRoot,
		Clock:         clk,
	})

	s.checker = opts.Checker
	if s.checker == nil {
		netLevel, err := logging.ParseLevel(cfg.Network.LogLevel)
		if err != nil {
			netLevel = logging.LevelDebug
		}
		s.checker = netcheck.New(netcheck.Options{
			Target:      cfg.Network.Target,
			Timeout:     cfg.Network.Timeout(),
			Concurrency: cfg.Network.Concurrency,
			Clock:       clk,
			Logger:      logging.NewComponentLogger(logging.WithLevelOverride(router.Slog(), netLevel), "netcheck"),
		})
	}

	if cfg.Logging.CapturePrints {
		level, err := logging.ParseLevel(cfg.Logging.PrintLevel)
		if err != nil {
			level = logging.LevelInfo
		}
		capture, err := router.CapturePrints(context.Background(), level, logging.DefaultPrintPrefix)
		if err != nil {
			router.Warn("print capture unavailable", logging.Error(err))
		} else {
			s.capture = capture
		}
	}

	router.Debug("session opened",
		logging.String(logging.FieldRunID, s.runID),
		logging.String("log_file", router.Paths().InfoFile),
	)
	return s, nil
}

// RunID identifies this run in banners and logs.
func (s *Session) RunID() string { return s.runID }

// Config returns the effective configuration.
func (s *Session) Config() config.Config { return s.cfg }

// Metrics exposes the timer and counter tracker, which also implements
// prometheus.Collector.
func (s *Session) Metrics() *metrics.Tracker { return s.tracker }

// Monitor exposes the resource monitor.
func (s *Session) Monitor() *sysmon.Monitor { return s.monitor }

// Network exposes the connectivity checker.
func (s *Session) Network() *netcheck.Checker { return s.checker }

// Path returns the info log file, empty when file sinks are disabled.
func (s *Session) Path() string { return s.Router.Paths().InfoFile }

// DebugPath returns the debug log file, empty when file sinks are disabled.
func (s *Session) DebugPath() string { return s.Router.Paths().DebugFile }

// Close ends the run and releases the sinks. When Start ran without a
// matching End, the end banner is emitted first. Repeated calls return the
// first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		pending := s.started && !s.ended
		verbose := s.verbose
		s.mu.Unlock()

		if pending {
			s.End(context.Background(), verbose)
		}
		var errs []error
		if s.capture != nil {
			if err := s.capture.Release(); err != nil {
				errs = append(errs, fmt.Errorf("release print capture: %w", err))
			}
		}
		if err := s.Router.Close(); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
