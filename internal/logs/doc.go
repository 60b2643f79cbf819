// Package logs reads the files written by the logging router.
//
// It tails log files with bounded memory usage, supports negative offsets
// for "last N lines" reads, polls for appended lines in follow mode, finds
// the newest file of a log directory, and filters lines by record level.
// `devlog tail` is built on it.
package logs
