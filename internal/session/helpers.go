package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"

	"devlog/internal/deps"
	"devlog/internal/logging"
	"devlog/internal/textutil"
)

const captureStampLayout = "20060102-150405.000"

// Screen logs msg at SCREEN level and, when a screenshot tool is installed
// and file sinks are enabled, saves a capture into the screenshots
// directory. It returns the capture path, or "" when none was taken.
func (s *Session) Screen(ctx context.Context, msg string, args ...any) string {
	dir := s.Router.Paths().ScreensDir
	if dir == "" {
		s.Log(ctx, logging.LevelScreen, msg, args...)
		return ""
	}
	tool, ok := deps.FirstAvailable(deps.CheckBinaries(deps.ScreenshotTools()))
	if !ok {
		s.Log(ctx, logging.LevelScreen, msg, args...)
		return ""
	}

	name := fmt.Sprintf("%s_%s.png", textutil.SanitizeToken(s.cfg.Logging.Name), s.Clock().Now().Format(captureStampLayout))
	path := filepath.Join(dir, name)
	if err := s.runner(ctx, tool.Path, deps.ScreenshotArgs(tool.Name, path)...); err != nil {
		s.WarnContext(ctx, "screenshot failed", logging.String("tool", tool.Name), logging.Error(err), logging.FileOnly())
		s.Log(ctx, logging.LevelScreen, msg, args...)
		return ""
	}
	s.Log(ctx, logging.LevelScreen, msg, append(args[:len(args):len(args)], logging.String("screenshot", path))...)
	return path
}

// Pause writes prompt to the console and waits for one line of input. The
// answer is logged at DEBUG.
func (s *Session) Pause(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		prompt = "Press Enter to continue... "
	}
	if err := s.Terminal().WriteLine(prompt); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}
	line, err := s.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	answer := strings.TrimRight(line, "\r\n")
	s.DebugContext(ctx, "User response: "+answer)
	return answer, nil
}

// ClearScreen wipes an interactive console.
func (s *Session) ClearScreen() error {
	return s.Terminal().Clear()
}

// Profile runs fn under the CPU profiler and writes the profile next to the
// logs, or to the temp directory when file sinks are disabled.
func (s *Session) Profile(ctx context.Context, name string, fn func(context.Context) error) (string, error) {
	dir := s.Router.Paths().DebugDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.pprof", textutil.SanitizeToken(name), s.Clock().Now().Format(captureStampLayout)))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("start cpu profile: %w", err)
	}

	runErr := fn(ctx)
	pprof.StopCPUProfile()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close profile: %w", err)
	}
	s.InfoContext(ctx, "📈 CPU profile written", logging.String("name", name), logging.String("path", path))
	return path, runErr
}
