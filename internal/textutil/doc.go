// Package textutil provides filename sanitization for log files,
// screenshots, and profiles written next to the logs.
package textutil
