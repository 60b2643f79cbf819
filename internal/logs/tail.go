package logs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"k8s.io/utils/clock"
)

const (
	// readChunk is the block size used when scanning backwards from the end.
	readChunk    = 64 * 1024
	pollInterval = 250 * time.Millisecond
)

// TailOptions selects what Tail reads. A negative Offset reads the last
// Limit lines; otherwise reading starts at Offset. With Follow and a
// positive Wait, Tail polls until new lines arrive or Wait elapses.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
	Clock  clock.WithTicker
}

// TailResult holds the lines read and the offset to resume from. The offset
// always sits just past a newline, so a record still being written is
// returned whole on a later call.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from path. A missing file yields no lines and offset 0.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return TailResult{}, nil
	}
	if err != nil {
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{}, fmt.Errorf("log path %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(f, info.Size(), opts.Limit)
	} else {
		result, err = linesFrom(f, min(opts.Offset, info.Size()))
	}
	if err != nil || len(result.Lines) > 0 || !opts.Follow || opts.Wait <= 0 {
		return result, err
	}
	return waitForLines(ctx, opts.Clock, f, result.Offset, opts.Wait)
}

// lastLines returns up to limit complete lines ending at the last newline
// before size, reading backwards one chunk at a time.
func lastLines(f *os.File, size int64, limit int) (TailResult, error) {
	end, err := lastNewlineEnd(f, size)
	if err != nil {
		return TailResult{}, err
	}
	result := TailResult{Offset: end}
	if limit <= 0 || end == 0 {
		return result, nil
	}

	var tail []byte
	pos := end
	// limit lines need limit+1 newlines unless the file start is reached.
	for pos > 0 && bytes.Count(tail, []byte{'\n'}) <= limit {
		n := min(int64(readChunk), pos)
		pos -= n
		chunk := make([]byte, n)
		if _, err := f.ReadAt(chunk, pos); err != nil {
			return result, fmt.Errorf("read log file: %w", err)
		}
		tail = append(chunk, tail...)
	}

	lines := splitLines(tail)
	if pos > 0 {
		// The first element starts mid-line.
		lines = lines[1:]
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	result.Lines = lines
	return result, nil
}

// lastNewlineEnd returns the offset just past the final newline in the
// first size bytes, or 0 when there is none.
func lastNewlineEnd(f *os.File, size int64) (int64, error) {
	buf := make([]byte, readChunk)
	for pos := size; pos > 0; {
		n := min(int64(readChunk), pos)
		pos -= n
		if _, err := f.ReadAt(buf[:n], pos); err != nil {
			return 0, fmt.Errorf("read log file: %w", err)
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return pos + int64(i) + 1, nil
		}
	}
	return 0, nil
}

// linesFrom reads the complete lines between offset and the end of file.
func linesFrom(f *os.File, offset int64) (TailResult, error) {
	data, err := io.ReadAll(io.NewSectionReader(f, offset, 1<<62))
	if err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("read log file: %w", err)
	}
	complete := bytes.LastIndexByte(data, '\n') + 1
	return TailResult{
		Lines:  splitLines(data[:complete]),
		Offset: offset + int64(complete),
	}, nil
}

func splitLines(data []byte) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func waitForLines(ctx context.Context, clk clock.WithTicker, f *os.File, offset int64, wait time.Duration) (TailResult, error) {
	deadline := clk.Now().Add(wait)
	ticker := clk.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-ticker.C():
		}

		result, err := linesFrom(f, offset)
		if err != nil || len(result.Lines) > 0 || !clk.Now().Before(deadline) {
			return result, err
		}
	}
}
