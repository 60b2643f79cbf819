package logging

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultPrintPrefix marks records that came from captured standard output.
const DefaultPrintPrefix = "👉 Print: "

// maxCapturedLine caps the bytes of one captured line that reach the log.
const maxCapturedLine = 1024 * 1024

// ErrCaptureActive is returned when another redirect already owns stdout.
var ErrCaptureActive = errors.New("print capture already active")

var captureOwned atomic.Bool

// PrintRedirect replaces os.Stdout with a pipe and logs every line written
// to it until Release restores the original stream.
type PrintRedirect struct {
	router *Router
	ctx    context.Context
	level  slog.Level
	prefix string

	orig   *os.File
	reader *os.File
	writer *os.File
	done   chan struct{}
	once   sync.Once
	err    error
}

// CapturePrints redirects os.Stdout into the router. Only one redirect may
// be active per process. The console sink keeps writing to the stream it
// was built with, so captured lines are not captured twice.
func (r *Router) CapturePrints(ctx context.Context, level slog.Level, prefix string) (*PrintRedirect, error) {
	if r == nil {
		return nil, errors.New("print capture: nil router")
	}
	if !captureOwned.CompareAndSwap(false, true) {
		return nil, ErrCaptureActive
	}
	reader, writer, err := os.Pipe()
	if err != nil {
		captureOwned.Store(false)
		return nil, fmt.Errorf("print capture pipe: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p := &PrintRedirect{
		router: r,
		ctx:    ctx,
		level:  level,
		prefix: prefix,
		orig:   os.Stdout,
		reader: reader,
		writer: writer,
		done:   make(chan struct{}),
	}
	os.Stdout = writer
	go p.pump()
	return p, nil
}

// pump logs captured lines until the write end closes. Lines longer than
// maxCapturedLine are cut and logged with a truncation note. The pipe is
// drained to the end in every case so application writes never block.
func (p *PrintRedirect) pump() {
	defer close(p.done)
	br := bufio.NewReaderSize(p.reader, 64*1024)
	var (
		line    []byte
		dropped int
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if room := maxCapturedLine - len(line); room > 0 {
			keep := min(room, len(chunk))
			line = append(line, chunk[:keep]...)
			dropped += len(chunk) - keep
		} else {
			dropped += len(chunk)
		}
		if err != nil {
			if len(line) > 0 || dropped > 0 {
				p.emit(line, dropped)
			}
			if !errors.Is(err, io.EOF) {
				_, _ = io.Copy(io.Discard, p.reader)
			}
			return
		}
		if isPrefix {
			continue
		}
		p.emit(line, dropped)
		line, dropped = line[:0], 0
	}
}

func (p *PrintRedirect) emit(line []byte, dropped int) {
	msg := p.prefix + string(line)
	if dropped > 0 {
		msg += fmt.Sprintf(" … [truncated %d bytes]", dropped)
	}
	p.router.log(p.ctx, p.level, msg, nil)
}

// Release restores the original stdout and waits until every captured line
// has been logged. Later calls return the first result.
func (p *PrintRedirect) Release() error {
	if p == nil {
		return nil
	}
	p.once.Do(func() {
		os.Stdout = p.orig
		p.err = p.writer.Close()
		<-p.done
		if err := p.reader.Close(); err != nil && p.err == nil {
			p.err = err
		}
		captureOwned.Store(false)
	})
	return p.err
}

// WithPrintCapture runs fn with stdout captured at INFO and releases the
// redirect afterwards, even when fn panics.
func (r *Router) WithPrintCapture(ctx context.Context, fn func() error) error {
	p, err := r.CapturePrints(ctx, LevelInfo, DefaultPrintPrefix)
	if err != nil {
		return err
	}
	defer func() { _ = p.Release() }()
	return fn()
}
