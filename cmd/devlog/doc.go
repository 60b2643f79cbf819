// Package main hosts the devlog CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the feature demo, prints an environment
// status report, scaffolds and shows configuration, prunes old log files
// and tails the newest one. Configuration is resolved once per invocation through
// commandContext so subcommands only deal with presentation.
package main
