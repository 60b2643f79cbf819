// Package config loads, normalizes, and validates devlog configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// DEVLOG_CONSOLE_LEVEL and DEVLOG_LOG_DIR. The Config type centralizes the
// knobs the logging router, monitors, and CLI need.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical level names, and clear validation errors.
package config
