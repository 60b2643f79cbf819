package logging_test

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"devlog/internal/logging"
)

var extractor = logging.NewCallChainExtractor(
	"TestCallChainNested",
	"TestCallChainRecursionRuns",
	"TestCallChainSelfRecursion",
	"TestRouterRendersCallChain",
	"TestCallChainSkipsTrackedLoopFrames",
)

//go:noinline
func stepOne() []string { return stepTwo() }

//go:noinline
func stepTwo() []string { return stepThree() }

//go:noinline
func stepThree() []string { return extractor.Extract(logging.Capture(0)) }

func TestCallChainNested(t *testing.T) {
	got := strings.Join(stepOne(), logging.ChainSeparator)
	if got != "stepOne>stepTwo>stepThree" {
		t.Fatalf("chain = %q, want stepOne>stepTwo>stepThree", got)
	}
}

//go:noinline
func pingA(depth int) []string {
	if depth == 0 {
		return extractor.Extract(logging.Capture(0))
	}
	return pingB(depth)
}

//go:noinline
func pingB(depth int) []string { return pingA(depth - 1) }

func TestCallChainRecursionRuns(t *testing.T) {
	got := strings.Join(pingA(1), logging.ChainSeparator)
	if got != "pingA>pingB>pingA" {
		t.Fatalf("chain = %q, want pingA>pingB>pingA", got)
	}
}

//go:noinline
func countdown(n int) []string {
	if n == 0 {
		return extractor.Extract(logging.Capture(0))
	}
	return countdown(n - 1)
}

func TestCallChainSelfRecursion(t *testing.T) {
	got := strings.Join(countdown(4), logging.ChainSeparator)
	if got != "countdown" {
		t.Fatalf("chain = %q, want countdown", got)
	}
}

func TestCallChainEmptyStack(t *testing.T) {
	got := extractor.Extract(nil)
	if len(got) != 1 || got[0] == "" {
		t.Fatalf("expected single fallback entry, got %q", got)
	}
}

func TestCallChainFallsBackToCaller(t *testing.T) {
	only := logging.NewCallChainExtractor("TestCallChainFallsBackToCaller")
	got := only.Extract(logging.Capture(0))
	if len(got) != 1 || got[0] != "TestCallChainFallsBackToCaller" {
		t.Fatalf("expected fallback to immediate caller, got %q", got)
	}
}

var chainSink *logging.Router

//go:noinline
func funcao1() { funcao2() }

//go:noinline
func funcao2() { funcao3() }

//go:noinline
func funcao3() { chainSink.Info("inside funcao3") }

func TestRouterRendersCallChain(t *testing.T) {
	dir := t.TempDir()
	r, err := logging.New(logging.Options{
		Name:         "chain",
		Dir:          dir,
		ConsoleLevel: "critical",
		FileLevel:    "info",
		Verbosity:    logging.VerbosityChain,
		Color:        logging.ModeNever,
		Interactive:  logging.ModeNever,
		Console:      &strings.Builder{},
		ExcludeFuncs: []string{"TestRouterRendersCallChain"},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	chainSink = r
	funcao1()
	if err := r.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	content, err := os.ReadFile(r.Paths().InfoFile)
	if err != nil {
		t.Fatalf("read info file: %v", err)
	}
	want := "<> [funcao1>funcao2>funcao3] - inside funcao3"
	if !strings.Contains(string(content), want) {
		t.Fatalf("expected %q in info file, got %q", want, content)
	}
}

//go:noinline
func walkTracked(r *logging.Router, items []string) []string {
	var chain []string
	for range logging.TrackSlice(context.Background(), r, items, "walk") {
		chain = extractor.Extract(logging.Capture(0))
	}
	return chain
}

func TestCallChainSkipsTrackedLoopFrames(t *testing.T) {
	r, err := logging.New(logging.Options{
		Name:        "track",
		Color:       logging.ModeNever,
		Interactive: logging.ModeNever,
		Console:     io.Discard,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	got := strings.Join(walkTracked(r, []string{"a", "b"}), logging.ChainSeparator)
	if got != "walkTracked" {
		t.Fatalf("chain = %q, want walkTracked", got)
	}
}
