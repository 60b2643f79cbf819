package report

import (
	"strings"
	"testing"
)

func TestBlockBoxesTitleAndLines(t *testing.T) {
	out := Block("Session start", []string{"Date: 2026-03-14", "Run: abc\nsecond row"})
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "╭") {
		t.Fatalf("expected rounded box, got %q", lines[0])
	}
	for _, want := range []string{"Session start", "Date: 2026-03-14", "Run: abc", "second row"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in block:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(lines[len(lines)-1], "╰") {
		t.Fatalf("expected closed box, got %q", lines[len(lines)-1])
	}
}

func TestBlockWithoutLines(t *testing.T) {
	out := Block("", nil)
	if !strings.Contains(out, "(empty)") {
		t.Fatalf("expected placeholder row, got:\n%s", out)
	}
}

func TestCombineSkipsEmpty(t *testing.T) {
	got := Combine("a", "  ", "", "b")
	if got != "a\nb" {
		t.Fatalf("Combine = %q", got)
	}
}

func TestTablePadsShortRows(t *testing.T) {
	out := Table([]string{"Check", "Status", "Detail"}, [][]string{
		{"Log directory", "ok", "/tmp"},
		{"Connectivity"},
	}, []Alignment{AlignLeft, AlignRight})
	if !strings.Contains(out, "Log directory") || !strings.Contains(out, "Connectivity") {
		t.Fatalf("missing rows:\n%s", out)
	}
	if Table(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}
