package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables that take precedence over file values.
const (
	EnvConsoleLevel = "DEVLOG_CONSOLE_LEVEL"
	EnvFileLevel    = "DEVLOG_FILE_LEVEL"
	EnvLogDir       = "DEVLOG_LOG_DIR"
	EnvVerbosity    = "DEVLOG_VERBOSITY"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeProgress()
	c.normalizeMonitor()
	c.normalizeNetwork()
	c.normalizeMetrics()
	return nil
}

func (c *Config) applyEnv() error {
	if value, ok := os.LookupEnv(EnvConsoleLevel); ok {
		c.Logging.ConsoleLevel = value
	}
	if value, ok := os.LookupEnv(EnvFileLevel); ok {
		c.Logging.FileLevel = value
	}
	if value, ok := os.LookupEnv(EnvLogDir); ok {
		c.Logging.Dir = value
	}
	if value, ok := os.LookupEnv(EnvVerbosity); ok && strings.TrimSpace(value) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVerbosity, err)
		}
		c.Logging.Verbosity = n
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Name = strings.TrimSpace(c.Logging.Name)
	if c.Logging.Name == "" {
		c.Logging.Name = defaultLogName
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	c.Logging.ConsoleLevel = lowerOr(c.Logging.ConsoleLevel, defaultConsoleLevel)
	c.Logging.FileLevel = lowerOr(c.Logging.FileLevel, defaultFileLevel)
	c.Logging.PrintLevel = lowerOr(c.Logging.PrintLevel, defaultPrintLevel)
	c.Logging.Color = lowerOr(c.Logging.Color, defaultColorMode)
	c.Logging.Interactive = lowerOr(c.Logging.Interactive, defaultInteractiveMode)
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	funcs := c.Logging.ExcludeFuncs[:0]
	for _, name := range c.Logging.ExcludeFuncs {
		if name = strings.TrimSpace(name); name != "" {
			funcs = append(funcs, name)
		}
	}
	c.Logging.ExcludeFuncs = funcs
	return nil
}

func (c *Config) normalizeProgress() {
	if c.Progress.LogIntervalMS <= 0 {
		c.Progress.LogIntervalMS = defaultProgressLogMS
	}
	if c.Progress.RedrawIntervalMS <= 0 {
		c.Progress.RedrawIntervalMS = defaultProgressRedrawMS
	}
	c.Progress.Unit = strings.TrimSpace(c.Progress.Unit)
	if c.Progress.Unit == "" {
		c.Progress.Unit = defaultProgressUnit
	}
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.LeakThreshold <= 0 {
		c.Monitor.LeakThreshold = defaultLeakThreshold
	}
	c.Monitor.ProcRoot = strings.TrimSpace(c.Monitor.ProcRoot)
	if c.Monitor.ProcRoot == "" {
		c.Monitor.ProcRoot = defaultProcRoot
	}
}

func (c *Config) normalizeNetwork() {
	c.Network.Target = strings.TrimSpace(c.Network.Target)
	if c.Network.Target == "" {
		c.Network.Target = defaultNetworkTarget
	}
	urls := make([]string, 0, len(c.Network.URLs))
	for _, u := range c.Network.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	c.Network.URLs = urls
	if c.Network.TimeoutMS <= 0 {
		c.Network.TimeoutMS = defaultNetworkTimeoutMS
	}
	if c.Network.Concurrency <= 0 {
		c.Network.Concurrency = defaultNetworkConcurrency
	}
	c.Network.LogLevel = lowerOr(c.Network.LogLevel, defaultNetworkLogLevel)
}

func (c *Config) normalizeMetrics() {
	c.Metrics.Namespace = strings.TrimSpace(c.Metrics.Namespace)
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = defaultMetricsNamespace
	}
	c.Metrics.ListenAddr = strings.TrimSpace(c.Metrics.ListenAddr)
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
