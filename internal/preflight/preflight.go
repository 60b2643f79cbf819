package preflight

import (
	"context"

	"devlog/internal/config"
	"devlog/internal/netcheck"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Network checks run only when a checker is supplied.
func RunAll(ctx context.Context, cfg *config.Config, checker *netcheck.Checker) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Log directory (file sinks disabled when empty)
	if cfg.Logging.Dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	}

	results = append(results, CheckScreenshotTool())

	if checker != nil {
		results = append(results, CheckConnectivity(ctx, checker))
		for _, url := range cfg.Network.URLs {
			results = append(results, CheckEndpoint(ctx, checker, url))
		}
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
