// Package session ties the logging router to the monitoring helpers that
// surround a script run.
//
// Open builds the router from configuration and attaches a metrics tracker,
// a resource monitor, a connectivity checker, and the cached environment
// report. Start and End print the run banners; Close emits the end banner
// once if Start ran and End was never called, then releases every sink.
//
// Session embeds *logging.Router, so the leveled methods, scopes, progress
// bars, and timers are available directly on it.
package session
