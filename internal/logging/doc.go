// Package logging is a developer-convenience layer over log/slog.
//
// A Router fans every leveled call out to a colored, emoji-coded console
// sink and two plain file sinks. Each record is annotated with the call
// chain that produced it, the logical thread carried by its context, and the
// label of any scopes opened with Router.Context. The console sink shares a
// lock with the active Progress overlay so ordinary records are written
// above the live progress line instead of through it.
//
// Nothing in this package returns logging failures to the caller: render
// errors fall back to a minimal line and sink write errors are reported
// through the remaining sinks.
package logging
