// Package testsupport builds configs and fixture files for tests across
// the module.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"devlog/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose log directory lives in a per-test temp
// directory. Console output is uncolored, non-interactive and at debug.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Logging.Name = "test"
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Logging.ConsoleLevel = "debug"
	cfgVal.Logging.Color = "never"
	cfgVal.Logging.Interactive = "never"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithName sets the run name used for log file names.
func WithName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Name = name
	}
}

// WithoutFiles disables file logging.
func WithoutFiles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Dir = ""
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH for the duration of the test.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Logging.Dir)
}
