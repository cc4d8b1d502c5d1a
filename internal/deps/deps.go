package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external binary the renderer shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement was found. Detail holds the resolved
// path for available binaries and the reason otherwise.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// RenderRequirements lists the binaries every render needs.
func RenderRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Composites the timeline and encodes the MP4"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Measures narration audio and source media"},
	}
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch resolved, err := lookPath(status.Command); {
		case status.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		default:
			status.Available = true
			status.Detail = "found at " + resolved
		}
		results = append(results, status)
	}
	return results
}

func lookPath(command string) (string, error) {
	if command == "" {
		return "", exec.ErrNotFound
	}
	return exec.LookPath(command)
}
