package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"k8s.io/utils/clock"

	"devlog/internal/textutil"
)

const (
	// DebugDirName holds the full-verbosity debug files.
	DebugDirName = "LogsDEBUG"
	// ScreensDirName holds screenshots taken by Screen helpers.
	ScreensDirName = "PrintScreens"

	defaultLogName   = "log"
	fileStampLayout  = "02-01-2006 15-04-05"
	defaultMaxSizeMB = 100
)

// Options describes router construction parameters.
type Options struct {
	// Name prefixes the log file names; "log" when empty.
	Name string
	// Dir is the log directory. Empty disables the file sinks.
	Dir string

	ConsoleLevel string
	FileLevel    string
	// Verbosity selects the info file fields, 0 through 3.
	Verbosity int

	Color       Mode
	Interactive Mode
	// Console defaults to os.Stdout.
	Console io.Writer

	MaxSizeMB     int
	MaxBackups    int
	Compress      bool
	RetentionDays int

	ProgressLogInterval    time.Duration
	ProgressRedrawInterval time.Duration
	ProgressUnit           string

	// ExcludeFuncs drops these short function names from call chains.
	ExcludeFuncs []string

	Clock   clock.Clock
	Metrics MetricsRecorder
}

// Paths lists the locations created by New.
type Paths struct {
	Dir        string
	DebugDir   string
	ScreensDir string
	InfoFile   string
	DebugFile  string
}

// LogFileName returns "<name> - DD-MM-YYYY HH-MM-SS.log".
func LogFileName(name string, ts time.Time) string {
	name = textutil.SanitizeFileName(name)
	if name == "" {
		name = defaultLogName
	}
	return name + " - " + ts.Format(fileStampLayout) + ".log"
}

// New builds a router with a console sink and, when Dir is set, an info
// file at the configured verbosity plus a debug file that records
// everything at full verbosity.
func New(opts Options) (*Router, error) {
	consoleLevel, err := ParseLevel(opts.ConsoleLevel)
	if err != nil {
		return nil, fmt.Errorf("console level: %w", err)
	}
	fileLevel, err := ParseLevel(opts.FileLevel)
	if err != nil {
		return nil, fmt.Errorf("file level: %w", err)
	}
	if opts.Verbosity < VerbosityMessage || opts.Verbosity > MaxFileVerbosity {
		return nil, fmt.Errorf("verbosity: must be between %d and %d, got %d", VerbosityMessage, MaxFileVerbosity, opts.Verbosity)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	term := NewTerminal(console, opts.Interactive)
	colorize := opts.Color.resolve(term.Interactive())
	if opts.Color == "" {
		colorize = true
	}
	formatter := NewFormatter(colorize)

	consoleVar := new(slog.LevelVar)
	consoleVar.Set(consoleLevel)
	fileVar := new(slog.LevelVar)
	fileVar.Set(fileLevel)

	r := &Router{
		stack:    NewContextStack(),
		chain:    NewCallChainExtractor(opts.ExcludeFuncs...),
		term:     term,
		console:  consoleVar,
		file:     fileVar,
		clock:    clk,
		progress: defaultProgressConfig(),
		metrics:  opts.Metrics,
		state:    &routerState{},
	}
	WithUnit(opts.ProgressUnit)(&r.progress)
	WithLogInterval(opts.ProgressLogInterval)(&r.progress)
	WithRedrawInterval(opts.ProgressRedrawInterval)(&r.progress)

	handlers := []slog.Handler{newConsoleHandler(term, consoleVar, formatter)}
	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		paths, err := ensureLogDirs(dir)
		if err != nil {
			return nil, err
		}
		fileName := LogFileName(opts.Name, clk.Now())
		paths.InfoFile = filepath.Join(paths.Dir, fileName)
		paths.DebugFile = filepath.Join(paths.DebugDir, fileName)
		r.paths = paths

		infoWriter := newRotatingWriter(paths.InfoFile, opts)
		debugWriter := newRotatingWriter(paths.DebugFile, opts)
		r.state.closers = append(r.state.closers, infoWriter, debugWriter)

		debugVar := new(slog.LevelVar)
		debugVar.Set(LevelDebug)
		handlers = append(handlers,
			newFileHandler("info file", infoWriter, fileVar, opts.Verbosity, formatter),
			newFileHandler("debug file", debugWriter, debugVar, MaxFileVerbosity, formatter),
		)
	}
	r.handler = newFanoutHandler(handlers...)

	if r.paths.Dir != "" {
		CleanupOldLogs(r.Slog(), opts.RetentionDays,
			RetentionTarget{Dir: r.paths.Dir, Pattern: "*.log", Exclude: []string{r.paths.InfoFile}},
			RetentionTarget{Dir: r.paths.DebugDir, Pattern: "*.log", Exclude: []string{r.paths.DebugFile}},
		)
	}
	return r, nil
}

func ensureLogDirs(dir string) (Paths, error) {
	paths := Paths{
		Dir:        dir,
		DebugDir:   filepath.Join(dir, DebugDirName),
		ScreensDir: filepath.Join(dir, ScreensDirName),
	}
	for _, d := range []string{paths.Dir, paths.DebugDir, paths.ScreensDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Paths{}, fmt.Errorf("ensure log directory %s: %w", d, err)
		}
	}
	return paths, nil
}

func newRotatingWriter(path string, opts Options) *lumberjack.Logger {
	size := opts.MaxSizeMB
	if size <= 0 {
		size = defaultMaxSizeMB
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    size,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
		LocalTime:  true,
	}
}
