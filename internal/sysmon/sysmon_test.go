package sysmon

import (
	"runtime"
	"strings"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

func TestCompare(t *testing.T) {
	base := Snapshot{Taken: time.Unix(0, 0), HeapAlloc: 1 << 20, HeapObjects: 5000, Goroutines: 4}
	tests := []struct {
		name      string
		after     Snapshot
		threshold int64
		suspected bool
		delta     int64
	}{
		{name: "stable", after: Snapshot{HeapObjects: 5100, Goroutines: 4}, threshold: 1000, delta: 100},
		{name: "at threshold", after: Snapshot{HeapObjects: 6000}, threshold: 1000, delta: 1000},
		{name: "above threshold", after: Snapshot{HeapObjects: 6001}, threshold: 1000, suspected: true, delta: 1001},
		{name: "custom threshold", after: Snapshot{HeapObjects: 5200}, threshold: 100, suspected: true, delta: 200},
		{name: "shrinking", after: Snapshot{HeapObjects: 100}, threshold: 1000, delta: -4900},
		{name: "default threshold", after: Snapshot{HeapObjects: 6500}, threshold: 0, delta: 1500, suspected: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Compare(base, tt.after, tt.threshold)
			if report.ObjectDelta != tt.delta {
				t.Fatalf("ObjectDelta = %d, want %d", report.ObjectDelta, tt.delta)
			}
			if report.Suspected != tt.suspected {
				t.Fatalf("Suspected = %v, want %v", report.Suspected, tt.suspected)
			}
		})
	}
}

func TestLeakReportLines(t *testing.T) {
	report := Compare(Snapshot{HeapObjects: 10}, Snapshot{HeapObjects: 5000, Goroutines: 2}, 100)
	text := strings.Join(report.Lines(), "\n")
	for _, want := range []string{"Heap objects: +4990", "Goroutines: +2", "possible leak"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestMonitorSnapshotsUseBaseline(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := New(Options{LeakThreshold: 1 << 40, Clock: clk})
	first := m.TakeSnapshot()
	clk.Step(time.Minute)
	report := m.CheckLeak()
	if !report.Before.Taken.Equal(first.Taken) {
		t.Fatalf("expected baseline from first snapshot, got %v", report.Before.Taken)
	}
	if report.After.Taken.Sub(report.Before.Taken) != time.Minute {
		t.Fatalf("unexpected interval %v", report.After.Taken.Sub(report.Before.Taken))
	}
	if report.Suspected {
		t.Fatalf("huge threshold should never flag a leak: %+v", report)
	}
	if m.LeakThreshold() != 1<<40 {
		t.Fatalf("LeakThreshold() = %d", m.LeakThreshold())
	}
}

func TestMonitorStatus(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("procfs sampling requires linux")
	}
	m := New(Options{})
	first, err := m.Status()
	if err != nil {
		t.Skipf("procfs unavailable: %v", err)
	}
	if first.RSSBytes == 0 {
		t.Fatal("expected non-zero resident memory")
	}
	if first.ProcessCPUPercent != 0 {
		t.Fatalf("first sample has no baseline, got %.2f%%", first.ProcessCPUPercent)
	}
	if len(first.Lines()) != 5 {
		t.Fatalf("unexpected lines %q", first.Lines())
	}
}

func TestMonitorWithoutProcfs(t *testing.T) {
	m := New(Options{ProcRoot: t.TempDir() + "/missing"})
	status, err := m.Status()
	if err == nil {
		t.Fatal("expected error for missing procfs")
	}
	if status.NumCPU == 0 {
		t.Fatal("expected runtime fields even without procfs")
	}
	_ = m.TakeSnapshot()
}
