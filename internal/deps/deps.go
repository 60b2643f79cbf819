// Package deps reports the runtime environment and the external binaries the
// logging helpers can make use of.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary a helper can use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// ScreenshotTools lists the capture commands tried in order.
func ScreenshotTools() []Requirement {
	return []Requirement{
		{Name: "grim", Command: "grim", Description: "Wayland screenshots", Optional: true},
		{Name: "scrot", Command: "scrot", Description: "X11 screenshots", Optional: true},
		{Name: "gnome-screenshot", Command: "gnome-screenshot", Description: "GNOME screenshots", Optional: true},
		{Name: "import", Command: "import", Description: "ImageMagick screenshots", Optional: true},
		{Name: "screencapture", Command: "screencapture", Description: "macOS screenshots", Optional: true},
	}
}

// FirstAvailable returns the first available status, if any.
func FirstAvailable(statuses []Status) (Status, bool) {
	for _, s := range statuses {
		if s.Available {
			return s, true
		}
	}
	return Status{}, false
}

// ScreenshotArgs returns the arguments that make tool write a capture to
// path.
func ScreenshotArgs(tool, path string) []string {
	switch tool {
	case "gnome-screenshot":
		return []string{"-f", path}
	case "import":
		return []string{"-window", "root", path}
	case "screencapture":
		return []string{"-x", path}
	default:
		return []string{path}
	}
}
