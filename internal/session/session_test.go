package session

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"devlog/internal/config"
	"devlog/internal/logging"
	"devlog/internal/netcheck"
	"devlog/internal/testsupport"
)

var testEpoch = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.Local)

type testSession struct {
	*Session
	console *bytes.Buffer
	clock   *testingclock.FakeClock
}

func newTestSession(t *testing.T, mutate func(*config.Config, *Options), cfgOpts ...testsupport.ConfigOption) testSession {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithName("session test")}, cfgOpts...)...)

	var buf bytes.Buffer
	clk := testingclock.NewFakeClock(testEpoch)
	opts := Options{
		Config:  cfg,
		Console: &buf,
		Input:   strings.NewReader(""),
		Clock:   clk,
		Script:  "demo",
	}
	if mutate != nil {
		mutate(cfg, &opts)
	}
	s, err := Open(opts)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return testSession{Session: s, console: &buf, clock: clk}
}

func TestStartAndCloseEmitBannersOnce(t *testing.T) {
	ts := newTestSession(t, nil)
	ctx := context.Background()

	ts.Start(ctx, 0)
	out := ts.console.String()
	for _, want := range []string{"🚦 START", "🚀 PROCESS STARTED", "Date: 14/03/2026 • Time: 09:26:53", "Script: demo", ts.RunID()} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in start banner:\n%s", want, out)
		}
	}

	ts.clock.Step(1500 * time.Millisecond)
	if err := ts.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ts.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	out = ts.console.String()
	if n := strings.Count(out, "🏁 PROCESS FINISHED"); n != 1 {
		t.Fatalf("expected one end banner, got %d:\n%s", n, out)
	}
	if !strings.Contains(out, "Elapsed: 1.5s") {
		t.Fatalf("expected elapsed time in end banner:\n%s", out)
	}
}

func TestCloseWithoutStartSkipsEndBanner(t *testing.T) {
	ts := newTestSession(t, nil)
	if err := ts.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if strings.Contains(ts.console.String(), "PROCESS FINISHED") {
		t.Fatalf("unexpected end banner:\n%s", ts.console.String())
	}
}

func TestExplicitEndIsNotRepeatedByClose(t *testing.T) {
	ts := newTestSession(t, nil)
	ctx := context.Background()
	ts.Start(ctx, 0)
	ts.End(ctx, 0)
	_ = ts.Close()
	if n := strings.Count(ts.console.String(), "PROCESS FINISHED"); n != 1 {
		t.Fatalf("expected one end banner, got %d", n)
	}
}

func TestVerboseStartIncludesStatusAndEnvironment(t *testing.T) {
	ts := newTestSession(t, nil)
	ts.Start(context.Background(), 2)
	out := ts.console.String()
	for _, want := range []string{"SYSTEM STATUS", "ENVIRONMENT", "Go: go", "Memory snapshot recorded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestReportMetrics(t *testing.T) {
	ts := newTestSession(t, nil)
	ctx := context.Background()

	ts.ResetMetrics()
	stop := ts.Timer(ctx, "download")
	ts.clock.Step(2 * time.Second)
	stop()
	ts.Count("files", 3)
	ts.ReportMetrics(ctx)

	out := ts.console.String()
	for _, want := range []string{"⏱️ Total duration: 2.0s", "METRICS", "download", "files"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	ts.ResetMetrics()
	if !ts.Metrics().Snapshot().Empty() {
		t.Fatal("expected metrics to be cleared")
	}
}

func TestCheckMemoryLeakLogsBlock(t *testing.T) {
	ts := newTestSession(t, nil)
	ctx := context.Background()
	ts.MemorySnapshot(ctx)
	rep := ts.CheckMemoryLeak(ctx)
	if rep.Threshold != 1000 {
		t.Fatalf("unexpected threshold %d", rep.Threshold)
	}
	if !strings.Contains(ts.console.String(), "MEMORY LEAK CHECK") {
		t.Fatalf("expected leak block:\n%s", ts.console.String())
	}
}

func TestCheckConnectivity(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	ts := newTestSession(t, func(_ *config.Config, o *Options) {
		o.Checker = netcheck.New(netcheck.Options{Target: ln.Addr().String(), Timeout: time.Second})
	})
	conn := ts.CheckConnectivity(context.Background(), srv.URL)
	if !conn.Reachable {
		t.Fatalf("expected reachable target, got %+v", conn)
	}
	out := ts.console.String()
	for _, want := range []string{"CONNECTIVITY", "Status: connected", "URL: " + srv.URL, "Status: 200"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if stats := ts.Network().Stats(); len(stats) != 1 || stats[0].Requests != 1 {
		t.Fatalf("unexpected network stats %+v", stats)
	}
}

func TestPause(t *testing.T) {
	ts := newTestSession(t, func(_ *config.Config, o *Options) {
		o.Input = strings.NewReader("yes\r\nlast")
	})
	ctx := context.Background()

	got, err := ts.Pause(ctx, "Continue? ")
	if err != nil || got != "yes" {
		t.Fatalf("Pause = %q, %v", got, err)
	}
	got, err = ts.Pause(ctx, "")
	if err != nil || got != "last" {
		t.Fatalf("Pause at EOF with data = %q, %v", got, err)
	}
	if _, err := ts.Pause(ctx, ""); err == nil {
		t.Fatal("expected error on exhausted input")
	}
	out := ts.console.String()
	if !strings.Contains(out, "Continue? ") || !strings.Contains(out, "User response: yes") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPathsPointAtLogFiles(t *testing.T) {
	ts := newTestSession(t, nil)
	ts.Info("hello file")
	if ts.Path() == "" || ts.DebugPath() == "" {
		t.Fatal("expected log paths")
	}
	if filepath.Base(filepath.Dir(ts.DebugPath())) != logging.DebugDirName {
		t.Fatalf("debug file outside debug dir: %s", ts.DebugPath())
	}
	_ = ts.Close()
	data, err := os.ReadFile(ts.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected message in file:\n%s", data)
	}
}

func TestScreenSavesCapture(t *testing.T) {
	var ran []string
	ts := newTestSession(t, func(_ *config.Config, o *Options) {
		o.Runner = func(_ context.Context, name string, args ...string) error {
			ran = append([]string{name}, args...)
			return os.WriteFile(args[len(args)-1], []byte("png"), 0o644)
		}
	}, testsupport.WithStubbedBinaries("grim"))

	path := ts.Screen(context.Background(), "login page")
	if path == "" {
		t.Fatal("expected a capture path")
	}
	if filepath.Dir(path) != ts.Paths().ScreensDir {
		t.Fatalf("capture outside screens dir: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("capture missing: %v", err)
	}
	if len(ran) != 2 || filepath.Base(ran[0]) != "grim" {
		t.Fatalf("unexpected command %q", ran)
	}
	out := ts.console.String()
	if !strings.Contains(out, "[SCREEN]") || !strings.Contains(out, "login page") {
		t.Fatalf("expected screen record:\n%s", out)
	}
}

func TestScreenWithoutToolOnlyLogs(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	ts := newTestSession(t, func(_ *config.Config, o *Options) {
		o.Runner = func(context.Context, string, ...string) error {
			t.Fatal("runner should not be called")
			return nil
		}
	})
	if path := ts.Screen(context.Background(), "no tool"); path != "" {
		t.Fatalf("unexpected capture %q", path)
	}
	if !strings.Contains(ts.console.String(), "no tool") {
		t.Fatal("expected screen record")
	}
}

func TestProfileWritesFile(t *testing.T) {
	ts := newTestSession(t, nil)
	path, err := ts.Profile(context.Background(), "hot loop", func(context.Context) error {
		sum := 0
		for i := range 1000 {
			sum += i
		}
		_ = sum
		return nil
	})
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "hot_loop_") {
		t.Fatalf("unexpected profile name %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("profile missing: %v", err)
	}
}

func TestCapturePrintsFromConfig(t *testing.T) {
	ts := newTestSession(t, func(c *config.Config, _ *Options) {
		c.Logging.CapturePrints = true
	})
	fmt.Println("stray print")
	if err := ts.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(ts.console.String(), logging.DefaultPrintPrefix+"stray print") {
		t.Fatalf("expected captured print:\n%s", ts.console.String())
	}
}

func TestOpenWithoutConfigDisablesFiles(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(Options{Console: &buf, Clock: testingclock.NewFakeClock(testEpoch)})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.Path() != "" {
		t.Fatalf("expected no file sinks, got %q", s.Path())
	}
	if s.RunID() == "" {
		t.Fatal("expected run id")
	}
}
