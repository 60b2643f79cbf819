package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains configuration for the console and file sinks.
type Logging struct {
	Name          string   `toml:"name"`
	Dir           string   `toml:"dir"`
	ConsoleLevel  string   `toml:"console_level"`
	FileLevel     string   `toml:"file_level"`
	Verbosity     int      `toml:"verbosity"`
	Color         string   `toml:"color"`
	Interactive   string   `toml:"interactive"`
	CapturePrints bool     `toml:"capture_prints"`
	PrintLevel    string   `toml:"print_level"`
	RetentionDays int      `toml:"retention_days"`
	MaxSizeMB     int      `toml:"max_size_mb"`
	MaxBackups    int      `toml:"max_backups"`
	Compress      bool     `toml:"compress"`
	ExcludeFuncs  []string `toml:"exclude_funcs"`
}

// Progress contains configuration for progress reporting.
type Progress struct {
	LogIntervalMS    int    `toml:"log_interval_ms"`
	RedrawIntervalMS int    `toml:"redraw_interval_ms"`
	Unit             string `toml:"unit"`
}

// Monitor contains configuration for process and memory monitoring.
type Monitor struct {
	LeakThreshold int    `toml:"leak_threshold"`
	ProcRoot      string `toml:"proc_root"`
}

// Network contains configuration for connectivity checks.
type Network struct {
	Target      string   `toml:"target"`
	URLs        []string `toml:"urls"`
	TimeoutMS   int      `toml:"timeout_ms"`
	Concurrency int      `toml:"concurrency"`
	LogLevel    string   `toml:"log_level"`
}

// Metrics contains configuration for the timer and counter tracker.
type Metrics struct {
	Namespace  string `toml:"namespace"`
	ListenAddr string `toml:"listen_addr"`
}

// Config encapsulates all configuration values for devlog.
//
// Configuration sections by subsystem:
//   - Logging: sinks, levels, verbosity, rotation and retention
//   - Progress: throttling intervals and default unit
//   - Monitor: leak threshold and procfs root
//   - Network: connectivity target and probe URLs
//   - Metrics: collector namespace and optional /metrics listener
type Config struct {
	Logging  Logging  `toml:"logging"`
	Progress Progress `toml:"progress"`
	Monitor  Monitor  `toml:"monitor"`
	Network  Network  `toml:"network"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("devlog.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory when file logging is enabled.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Logging.Dir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Logging.Dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Logging.Dir, err)
	}
	return nil
}

// LogInterval returns the minimum spacing between logged progress records.
func (p Progress) LogInterval() time.Duration {
	return time.Duration(p.LogIntervalMS) * time.Millisecond
}

// RedrawInterval returns the minimum spacing between progress bar redraws.
func (p Progress) RedrawInterval() time.Duration {
	return time.Duration(p.RedrawIntervalMS) * time.Millisecond
}

// Timeout returns the per-check network timeout.
func (n Network) Timeout() time.Duration {
	return time.Duration(n.TimeoutMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
