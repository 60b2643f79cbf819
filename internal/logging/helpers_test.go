package logging

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

var testEpoch = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.Local)

type testRouter struct {
	*Router
	console *bytes.Buffer
	clock   *testingclock.FakeClock
}

func newTestRouter(t *testing.T, mutate func(*Options)) testRouter {
	t.Helper()
	var buf bytes.Buffer
	clk := testingclock.NewFakeClock(testEpoch)
	opts := Options{
		Name:         "test",
		ConsoleLevel: "debug",
		FileLevel:    "debug",
		Color:        ModeNever,
		Interactive:  ModeNever,
		Console:      &buf,
		Clock:        clk,
	}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return testRouter{Router: r, console: &buf, clock: clk}
}

func (tr testRouter) lines() []string {
	text := strings.TrimRight(ansiPattern.ReplaceAllString(tr.console.String(), ""), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func countContaining(lines []string, needle string) int {
	n := 0
	for _, line := range lines {
		if strings.Contains(line, needle) {
			n++
		}
	}
	return n
}
