package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"golang.org/x/sys/unix"

	"devlog/internal/deps"
	"devlog/internal/netcheck"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckConnectivity verifies the checker's TCP target is reachable.
func CheckConnectivity(ctx context.Context, checker *netcheck.Checker) Result {
	const name = "Connectivity"

	res := checker.CheckConnection(ctx)
	if !res.Reachable {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%s)", res.Target, summarizeNetError(res.Err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable in %dms", res.Target, res.Latency.Milliseconds())}
}

// CheckEndpoint probes url and reports its status and latency.
func CheckEndpoint(ctx context.Context, checker *netcheck.Checker, url string) Result {
	probe := checker.MeasureLatency(ctx, url)
	name := "Endpoint " + probe.Domain
	switch {
	case probe.Status == 0:
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%s)", summarizeNetError(probe.Err))}
	case probe.Status >= 200 && probe.Status < 400 && probe.Err == nil:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d in %dms", probe.Status, probe.Latency.Milliseconds())}
	case probe.Status == http.StatusUnauthorized || probe.Status == http.StatusForbidden:
		return Result{Name: name, Detail: fmt.Sprintf("reachable but refused (%d)", probe.Status)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status (%d)", probe.Status)}
	}
}

// CheckScreenshotTool reports whether a screenshot command is installed.
// The tool is optional, so a missing one still passes.
func CheckScreenshotTool() Result {
	const name = "Screenshot tool"

	if status, ok := deps.FirstAvailable(CheckSystemDeps()); ok {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", status.Name, status.Path)}
	}
	return Result{Name: name, Passed: true, Detail: "none found (optional, Screen skips captures)"}
}

// CheckSystemDeps evaluates the external binaries the helpers can use.
func CheckSystemDeps() []deps.Status {
	return deps.CheckBinaries(deps.ScreenshotTools())
}

func summarizeNetError(err error) string {
	if err == nil {
		return "unknown error"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
