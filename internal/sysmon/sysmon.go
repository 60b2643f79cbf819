// Package sysmon samples process and host resource usage and compares heap
// snapshots to flag suspected leaks.
package sysmon

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/procfs"
	"k8s.io/utils/clock"
)

// DefaultLeakThreshold is the heap object growth treated as a suspected leak.
const DefaultLeakThreshold int64 = 1000

// Status is one resource sample.
type Status struct {
	RSSBytes          uint64
	SystemMemPercent  float64
	ProcessCPUPercent float64
	SystemCPUPercent  float64
	Goroutines        int
	NumCPU            int
}

// Lines renders the sample for a report block.
func (s Status) Lines() []string {
	return []string{
		fmt.Sprintf("Process memory: %s", humanize.IBytes(s.RSSBytes)),
		fmt.Sprintf("System memory used: %.1f%%", s.SystemMemPercent),
		fmt.Sprintf("Process CPU: %.1f%%", s.ProcessCPUPercent),
		fmt.Sprintf("System CPU: %.1f%%", s.SystemCPUPercent),
		fmt.Sprintf("Goroutines: %d (CPUs: %d)", s.Goroutines, s.NumCPU),
	}
}

// Snapshot captures heap state for leak comparison.
type Snapshot struct {
	Taken       time.Time
	HeapAlloc   uint64
	HeapObjects uint64
	Goroutines  int
}

// LeakReport is the difference between two snapshots.
type LeakReport struct {
	Before         Snapshot
	After          Snapshot
	ObjectDelta    int64
	HeapDelta      int64
	GoroutineDelta int
	Threshold      int64
	Suspected      bool
}

// Lines renders the comparison for a report block.
func (r LeakReport) Lines() []string {
	verdict := "no significant growth"
	if r.Suspected {
		verdict = fmt.Sprintf("possible leak: heap objects grew by more than %d", r.Threshold)
	}
	return []string{
		fmt.Sprintf("Heap objects: %+d (%d -> %d)", r.ObjectDelta, r.Before.HeapObjects, r.After.HeapObjects),
		fmt.Sprintf("Heap size: %s -> %s", humanize.IBytes(r.Before.HeapAlloc), humanize.IBytes(r.After.HeapAlloc)),
		fmt.Sprintf("Goroutines: %+d", r.GoroutineDelta),
		fmt.Sprintf("Interval: %s", r.After.Taken.Sub(r.Before.Taken).Round(time.Millisecond)),
		verdict,
	}
}

// Compare diffs two snapshots. Growth in heap objects strictly above
// threshold marks the report as a suspected leak.
func Compare(before, after Snapshot, threshold int64) LeakReport {
	if threshold <= 0 {
		threshold = DefaultLeakThreshold
	}
	report := LeakReport{
		Before:         before,
		After:          after,
		ObjectDelta:    int64(after.HeapObjects) - int64(before.HeapObjects),
		HeapDelta:      int64(after.HeapAlloc) - int64(before.HeapAlloc),
		GoroutineDelta: after.Goroutines - before.Goroutines,
		Threshold:      threshold,
	}
	report.Suspected = report.ObjectDelta > threshold
	return report
}

// Options configures a Monitor.
type Options struct {
	LeakThreshold int64
	// ProcRoot overrides the procfs mount point.
	ProcRoot string
	Clock    clock.PassiveClock
}

// Monitor samples /proc for the current process and host. CPU percentages
// are computed against the previous sample.
type Monitor struct {
	fs        procfs.FS
	proc      procfs.Proc
	procErr   error
	clock     clock.PassiveClock
	threshold int64

	mu       sync.Mutex
	baseline *Snapshot
	prev     cpuSample
}

type cpuSample struct {
	at        time.Time
	procCPU   float64
	hostBusy  float64
	hostTotal float64
	valid     bool
}

// New opens procfs. The monitor remains usable for snapshots when procfs is
// unavailable; Status then returns the open error.
func New(opts Options) *Monitor {
	m := &Monitor{clock: opts.Clock, threshold: opts.LeakThreshold}
	if m.clock == nil {
		m.clock = clock.RealClock{}
	}
	if m.threshold <= 0 {
		m.threshold = DefaultLeakThreshold
	}
	root := opts.ProcRoot
	if root == "" {
		root = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(root)
	if err != nil {
		m.procErr = fmt.Errorf("open procfs: %w", err)
		return m
	}
	m.fs = fs
	proc, err := fs.Self()
	if err != nil {
		m.procErr = fmt.Errorf("open /proc/self: %w", err)
		return m
	}
	m.proc = proc
	return m
}

// LeakThreshold returns the configured object growth threshold.
func (m *Monitor) LeakThreshold() int64 { return m.threshold }

// Status samples memory and CPU usage.
func (m *Monitor) Status() (Status, error) {
	status := Status{Goroutines: runtime.NumGoroutine(), NumCPU: runtime.NumCPU()}
	if m.procErr != nil {
		return status, m.procErr
	}

	var errs []error
	now := m.clock.Now()
	sample := cpuSample{at: now}

	if stat, err := m.proc.Stat(); err != nil {
		errs = append(errs, fmt.Errorf("process stat: %w", err))
	} else {
		status.RSSBytes = uint64(stat.ResidentMemory())
		sample.procCPU = stat.CPUTime()
	}
	if info, err := m.fs.Meminfo(); err != nil {
		errs = append(errs, fmt.Errorf("meminfo: %w", err))
	} else if info.MemTotal != nil && info.MemAvailable != nil && *info.MemTotal > 0 {
		used := *info.MemTotal - min(*info.MemAvailable, *info.MemTotal)
		status.SystemMemPercent = float64(used) * 100 / float64(*info.MemTotal)
	}
	if host, err := m.fs.Stat(); err != nil {
		errs = append(errs, fmt.Errorf("host stat: %w", err))
	} else {
		c := host.CPUTotal
		idle := c.Idle + c.Iowait
		total := c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal
		sample.hostBusy = total - idle
		sample.hostTotal = total
	}
	sample.valid = len(errs) == 0

	m.mu.Lock()
	prev := m.prev
	m.prev = sample
	m.mu.Unlock()

	if prev.valid && sample.valid {
		if wall := sample.at.Sub(prev.at).Seconds(); wall > 0 {
			status.ProcessCPUPercent = (sample.procCPU - prev.procCPU) / wall * 100
		}
		if dt := sample.hostTotal - prev.hostTotal; dt > 0 {
			status.SystemCPUPercent = (sample.hostBusy - prev.hostBusy) / dt * 100
		}
	}
	return status, errors.Join(errs...)
}

// TakeSnapshot reads heap statistics. The first snapshot becomes the
// baseline used by CheckLeak.
func (m *Monitor) TakeSnapshot() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap := Snapshot{
		Taken:       m.clock.Now(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		Goroutines:  runtime.NumGoroutine(),
	}
	m.mu.Lock()
	if m.baseline == nil {
		b := snap
		m.baseline = &b
	}
	m.mu.Unlock()
	return snap
}

// CheckLeak compares a fresh snapshot with the baseline, taking the
// baseline first when none exists yet.
func (m *Monitor) CheckLeak() LeakReport {
	m.mu.Lock()
	baseline := m.baseline
	m.mu.Unlock()
	if baseline == nil {
		b := m.TakeSnapshot()
		baseline = &b
	}
	runtime.GC()
	return Compare(*baseline, m.TakeSnapshot(), m.threshold)
}
