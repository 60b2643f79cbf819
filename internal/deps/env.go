package deps

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultEnvTTL is how long a collected environment stays cached.
const DefaultEnvTTL = 5 * time.Minute

// Module is one dependency recorded in the binary's build info.
type Module struct {
	Path    string
	Version string
}

// Environment describes the process and the modules it was built from.
type Environment struct {
	GoVersion  string
	OS         string
	Arch       string
	Hostname   string
	NumCPU     int
	Executable string
	WorkDir    string
	MainModule Module
	Modules    []Module
	Collected  time.Time
}

// Lines renders the environment for a report block. Dependencies are
// limited to limit entries; zero shows all.
func (e Environment) Lines(limit int) []string {
	lines := []string{
		fmt.Sprintf("Go: %s (%s/%s)", e.GoVersion, e.OS, e.Arch),
		fmt.Sprintf("Host: %s, CPUs: %d", e.Hostname, e.NumCPU),
		fmt.Sprintf("Executable: %s", e.Executable),
		fmt.Sprintf("Working directory: %s", e.WorkDir),
	}
	if e.MainModule.Path != "" {
		lines = append(lines, fmt.Sprintf("Module: %s %s", e.MainModule.Path, e.MainModule.Version))
	}
	mods := e.Modules
	if limit > 0 && len(mods) > limit {
		mods = mods[:limit]
	}
	for _, m := range mods {
		lines = append(lines, fmt.Sprintf("  %s %s", m.Path, m.Version))
	}
	if hidden := len(e.Modules) - len(mods); hidden > 0 {
		lines = append(lines, fmt.Sprintf("  + %d more", hidden))
	}
	return lines
}

// EnvCache collects the environment once per TTL.
type EnvCache struct {
	clock clock.PassiveClock
	ttl   time.Duration
	mu    sync.Mutex
	value *Environment
	read  func() (*debug.BuildInfo, bool)
}

// NewEnvCache returns a cache refreshing after ttl; DefaultEnvTTL when ttl
// is not positive.
func NewEnvCache(clk clock.PassiveClock, ttl time.Duration) *EnvCache {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if ttl <= 0 {
		ttl = DefaultEnvTTL
	}
	return &EnvCache{clock: clk, ttl: ttl, read: debug.ReadBuildInfo}
}

// Get returns the cached environment, collecting it when missing or stale.
func (c *EnvCache) Get() Environment {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if c.value != nil && now.Sub(c.value.Collected) < c.ttl {
		return *c.value
	}
	env := collect(c.read)
	env.Collected = now
	c.value = &env
	return env
}

func collect(read func() (*debug.BuildInfo, bool)) Environment {
	env := Environment{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
	env.Hostname, _ = os.Hostname()
	env.Executable, _ = os.Executable()
	env.WorkDir, _ = os.Getwd()
	if info, ok := read(); ok && info != nil {
		env.MainModule = Module{Path: info.Main.Path, Version: info.Main.Version}
		for _, dep := range info.Deps {
			m := Module{Path: dep.Path, Version: dep.Version}
			if dep.Replace != nil {
				m.Version = dep.Replace.Version
			}
			env.Modules = append(env.Modules, m)
		}
		slices.SortFunc(env.Modules, func(a, b Module) int { return strings.Compare(a.Path, b.Path) })
	}
	return env
}
