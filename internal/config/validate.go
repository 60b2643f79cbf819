package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"devlog/internal/logging"
)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateIntervals(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	for key, value := range map[string]string{
		"logging.console_level": c.Logging.ConsoleLevel,
		"logging.file_level":    c.Logging.FileLevel,
		"logging.print_level":   c.Logging.PrintLevel,
	} {
		if _, err := logging.ParseLevel(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.Logging.Verbosity < logging.VerbosityMessage || c.Logging.Verbosity > logging.MaxFileVerbosity {
		return fmt.Errorf("logging.verbosity must be between %d and %d", logging.VerbosityMessage, logging.MaxFileVerbosity)
	}
	if err := validateMode("logging.color", c.Logging.Color); err != nil {
		return err
	}
	return validateMode("logging.interactive", c.Logging.Interactive)
}

func validateMode(key, value string) error {
	switch logging.Mode(value) {
	case logging.ModeAuto, logging.ModeAlways, logging.ModeNever:
		return nil
	}
	return fmt.Errorf("%s must be one of auto, always, never (got %q)", key, value)
}

func (c *Config) validateIntervals() error {
	if err := ensurePositiveMap(map[string]int{
		"progress.log_interval_ms":    c.Progress.LogIntervalMS,
		"progress.redraw_interval_ms": c.Progress.RedrawIntervalMS,
		"monitor.leak_threshold":      c.Monitor.LeakThreshold,
		"network.timeout_ms":          c.Network.TimeoutMS,
		"network.concurrency":         c.Network.Concurrency,
	}); err != nil {
		return err
	}
	if c.Network.Concurrency > maxNetworkConcurrencyLimit {
		return fmt.Errorf("network.concurrency must be at most %d", maxNetworkConcurrencyLimit)
	}
	return nil
}

func (c *Config) validateNetwork() error {
	if _, err := logging.ParseLevel(c.Network.LogLevel); err != nil {
		return fmt.Errorf("network.log_level: %w", err)
	}
	for _, raw := range c.Network.URLs {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("network.urls: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("network.urls: %q must use http or https", raw)
		}
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !namespacePattern.MatchString(c.Metrics.Namespace) {
		return errors.New("metrics.namespace must be a valid metric name prefix")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
