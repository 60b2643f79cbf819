package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// Logger is the capability set application code depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Success(msg string, args ...any)
	Warn(msg string, args ...any)
	Screen(msg string, args ...any)
	Error(msg string, args ...any)
	Critical(msg string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	SuccessContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ScreenContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	CriticalContext(ctx context.Context, msg string, args ...any)
	Exception(ctx context.Context, err error, msg string, args ...any)
	Context(ctx context.Context, name string, fn func(context.Context) error) error
	Progress(ctx context.Context, total int, desc string, opts ...ProgressOption) *Progress
	Timer(ctx context.Context, name string) func() time.Duration
	SetConsoleLevel(level slog.Level)
	SetFileLevel(level slog.Level)
}

var _ Logger = (*Router)(nil)

// MetricsRecorder receives timer and counter observations.
type MetricsRecorder interface {
	ObserveDuration(name string, d time.Duration)
	Add(name string, delta int64)
}

// Router owns the sink handlers and turns leveled calls into records
// annotated with call chain, thread, and context label.
type Router struct {
	handler  slog.Handler
	stack    *ContextStack
	chain    *CallChainExtractor
	term     *Terminal
	console  *slog.LevelVar
	file     *slog.LevelVar
	clock    clock.Clock
	progress progressConfig
	metrics  MetricsRecorder
	paths    Paths
	state    *routerState
}

type routerState struct {
	closed    atomic.Bool
	closeOnce sync.Once
	closers   []io.Closer

	mu     sync.Mutex
	latest *Progress
}

// track remembers p as the newest progress indicator so Close can finish it
// whether or not it is drawn on the console.
func (s *routerState) track(p *Progress) {
	s.mu.Lock()
	s.latest = p
	s.mu.Unlock()
}

func (s *routerState) takeLatest() *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.latest
	s.latest = nil
	return p
}

// Slog exposes the sink chain as a standard logger. Records logged through
// it carry no call chain beyond the immediate caller.
func (r *Router) Slog() *slog.Logger {
	if r == nil {
		return NewNop()
	}
	return slog.New(r.handler)
}

// With returns a router whose records carry args as extra fields.
func (r *Router) With(args ...any) *Router {
	if r == nil {
		return nil
	}
	clone := *r
	clone.handler = slog.New(r.handler).With(args...).Handler()
	return &clone
}

// WithMinLevel returns a router that drops records below level in addition
// to the sink thresholds.
func (r *Router) WithMinLevel(level slog.Level) *Router {
	if r == nil {
		return nil
	}
	clone := *r
	clone.handler = newLevelOverrideHandler(r.handler, level)
	return &clone
}

// Paths reports the directories and files opened at setup.
func (r *Router) Paths() Paths {
	if r == nil {
		return Paths{}
	}
	return r.paths
}

// Terminal returns the console the router writes to.
func (r *Router) Terminal() *Terminal {
	if r == nil {
		return nil
	}
	return r.term
}

// Clock returns the clock used for timestamps, timers and progress.
func (r *Router) Clock() clock.Clock {
	if r == nil {
		return clock.RealClock{}
	}
	return r.clock
}

// SetConsoleLevel changes the console threshold at runtime.
func (r *Router) SetConsoleLevel(level slog.Level) {
	if r != nil {
		r.console.Set(level)
	}
}

// SetFileLevel changes the info file threshold at runtime. The debug file
// always records everything.
func (r *Router) SetFileLevel(level slog.Level) {
	if r != nil {
		r.file.Set(level)
	}
}

// ConsoleLevel returns the console threshold.
func (r *Router) ConsoleLevel() slog.Level { return r.console.Level() }

// FileLevel returns the info file threshold.
func (r *Router) FileLevel() slog.Level { return r.file.Level() }

func (r *Router) Debug(msg string, args ...any) {
	r.log(context.Background(), LevelDebug, msg, args)
}

func (r *Router) Info(msg string, args ...any) {
	r.log(context.Background(), LevelInfo, msg, args)
}

func (r *Router) Success(msg string, args ...any) {
	r.log(context.Background(), LevelSuccess, msg, args)
}

func (r *Router) Warn(msg string, args ...any) {
	r.log(context.Background(), LevelWarn, msg, args)
}

func (r *Router) Screen(msg string, args ...any) {
	r.log(context.Background(), LevelScreen, msg, args)
}

// Error logs at ERROR. Any error among args is expanded into trace lines,
// including its stack when it was wrapped with WithStack.
func (r *Router) Error(msg string, args ...any) {
	r.log(context.Background(), LevelError, msg, args, traceAttr(errorTrace(args))...)
}

// Critical logs at CRITICAL with the same trace handling as Error.
func (r *Router) Critical(msg string, args ...any) {
	r.log(context.Background(), LevelCritical, msg, args, traceAttr(errorTrace(args))...)
}

func (r *Router) DebugContext(ctx context.Context, msg string, args ...any) {
	r.log(ctx, LevelDebug, msg, args)
}

func (r *Router) InfoContext(ctx context.Context, msg string, args ...any) {
	r.log(ctx, LevelInfo, msg, args)
}

func (r *Router) SuccessContext(ctx context.Context, msg string, args ...any) {
	r.log(ctx, LevelSuccess, msg, args)
}

func (r *Router) WarnContext(ctx context.Context, msg string, args ...any) {
	r.log(ctx, LevelWarn, msg, args)
}

func (r *Router) ScreenContext(ctx context.Context, msg string, args ...any) {
	r.log(ctx, LevelScreen, msg, args)
}

func (r *Router) ErrorContext(ctx context.Context, msg string, args ...any) {
	r.log(ctx, LevelError, msg, args, traceAttr(errorTrace(args))...)
}

func (r *Router) CriticalContext(ctx context.Context, msg string, args ...any) {
	r.log(ctx, LevelCritical, msg, args, traceAttr(errorTrace(args))...)
}

// Exception logs err at ERROR together with the current goroutine stack.
func (r *Router) Exception(ctx context.Context, err error, msg string, args ...any) {
	trace := errorTrace([]any{err})
	trace = joinTrace(trace, "goroutine stack:\n"+strings.TrimRight(string(debug.Stack()), "\n"))
	r.log(ctx, LevelError, msg, append(args, Error(err)), traceAttr(trace)...)
}

// Log emits msg at an arbitrary level.
func (r *Router) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	r.log(ctx, level, msg, args)
}

// Logf formats msg with fmt.Sprintf before emitting it.
func (r *Router) Logf(ctx context.Context, level slog.Level, format string, args ...any) {
	r.log(ctx, level, fmt.Sprintf(format, args...), nil)
}

// RecoverPanic must be deferred directly. It logs an in-flight panic at
// CRITICAL with its stack and stops the panic from propagating further.
func (r *Router) RecoverPanic(ctx context.Context, msg string) {
	v := recover()
	if v == nil {
		return
	}
	trace := fmt.Sprintf("panic: %v\n%s", v, strings.TrimRight(string(debug.Stack()), "\n"))
	r.log(ctx, LevelCritical, msg, []any{slog.Any("panic", v)}, traceAttr(trace)...)
}

func (r *Router) log(ctx context.Context, level slog.Level, msg string, args []any, extra ...slog.Attr) {
	if r == nil || r.state.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !r.handler.Enabled(ctx, level) {
		return
	}
	chain, frame := r.chain.resolve(Capture(1))
	record := slog.NewRecord(r.clock.Now(), level, msg, 0)
	record.AddAttrs(
		slog.Any(keyChain, chain),
		slog.String(keyThread, ThreadName(ctx)),
		slog.Any(keySource, &slog.Source{Function: frame.Function, File: frame.File, Line: frame.Line}),
	)
	if label := r.stack.Current(ctx); label != "" {
		record.AddAttrs(slog.String(keyContext, label))
	}
	record.Add(args...)
	record.AddAttrs(extra...)
	_ = r.handler.Handle(ctx, record)
}

// Close finishes the newest open progress indicator, detaches any overlay
// and releases the file sinks. Records
// logged afterwards are dropped. Safe to call more than once.
func (r *Router) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	r.state.closeOnce.Do(func() {
		if p := r.state.takeLatest(); p != nil {
			p.Close()
		}
		if p := r.term.active(); p != nil {
			p.Close()
		}
		r.state.closed.Store(true)
		for _, c := range r.state.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Context runs fn inside a named scope; every record logged with the
// context passed to fn carries the scope label.
func (r *Router) Context(ctx context.Context, name string, fn func(context.Context) error) error {
	if r == nil {
		return fn(ctx)
	}
	return r.stack.Scope(ctx, name, fn)
}

// PushContext opens a scope without a closure. Pass the token to
// PopContext to get back the context that was active before.
func (r *Router) PushContext(ctx context.Context, name string) (context.Context, Token) {
	return r.stack.Push(ctx, name)
}

// PopContext restores the context captured by PushContext.
func (r *Router) PopContext(tok Token) context.Context {
	return r.stack.Pop(tok)
}

// CurrentContext renders the scope label carried by ctx.
func (r *Router) CurrentContext(ctx context.Context) string {
	return r.stack.Current(ctx)
}

// Timer starts a named timer. The returned function stops it on first call,
// logs the elapsed time at DEBUG, records it with the metrics recorder, and
// returns the same duration on every call.
func (r *Router) Timer(ctx context.Context, name string) func() time.Duration {
	if r == nil {
		return func() time.Duration { return 0 }
	}
	start := r.clock.Now()
	var (
		once    sync.Once
		elapsed time.Duration
	)
	return func() time.Duration {
		once.Do(func() {
			elapsed = r.clock.Since(start)
			r.log(ctx, LevelDebug, fmt.Sprintf("[⏱️ %s] elapsed: %.3fs", name, elapsed.Seconds()), nil)
			if r.metrics != nil {
				r.metrics.ObserveDuration(name, elapsed)
			}
		})
		return elapsed
	}
}

// Time runs fn under a named timer and returns its elapsed time.
func (r *Router) Time(ctx context.Context, name string, fn func(context.Context) error) (time.Duration, error) {
	stop := r.Timer(ctx, name)
	err := fn(ctx)
	return stop(), err
}

// Count adds delta to a named counter.
func (r *Router) Count(name string, delta int64) {
	if r != nil && r.metrics != nil {
		r.metrics.Add(name, delta)
	}
}

// Sleep logs the wait and blocks for d or until ctx is done.
func (r *Router) Sleep(ctx context.Context, d time.Duration, reason string) error {
	if r == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	msg := fmt.Sprintf("💤 Sleeping %s", d)
	if reason = strings.TrimSpace(reason); reason != "" {
		msg += ": " + reason
	}
	r.log(ctx, LevelDebug, msg, nil)
	select {
	case <-r.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type stackTracer interface {
	StackTrace() []byte
}

type stackError struct {
	err   error
	stack []byte
}

func (e *stackError) Error() string      { return e.err.Error() }
func (e *stackError) Unwrap() error      { return e.err }
func (e *stackError) StackTrace() []byte { return e.stack }

// WithStack annotates err with the current goroutine stack, which Error and
// Critical render beneath the record.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var tracer stackTracer
	if errors.As(err, &tracer) {
		return err
	}
	return &stackError{err: err, stack: debug.Stack()}
}

func errorTrace(args []any) string {
	var trace string
	for _, arg := range args {
		var err error
		switch v := arg.(type) {
		case error:
			err = v
		case slog.Attr:
			err, _ = v.Value.Any().(error)
		}
		if err == nil {
			continue
		}
		entry := "error: " + safeErrorText(err)
		var tracer stackTracer
		if errors.As(err, &tracer) {
			entry += "\n" + strings.TrimRight(string(tracer.StackTrace()), "\n")
		}
		trace = joinTrace(trace, entry)
	}
	return trace
}

func safeErrorText(err error) (text string) {
	defer func() {
		if recover() != nil {
			text = fmt.Sprintf("%T (Error method panicked)", err)
		}
	}()
	return err.Error()
}

func joinTrace(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n" + b
	}
}

func traceAttr(trace string) []slog.Attr {
	if trace == "" {
		return nil
	}
	return []slog.Attr{slog.String(keyTrace, trace)}
}
