package deps

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// RequiredFilters are the ffmpeg filters the render graphs use.
var RequiredFilters = []string{
	"adelay", "amix", "asetpts", "atrim", "color", "crop", "fps",
	"overlay", "pad", "scale", "setpts", "setsar", "volume",
}

// RequiredEncoders are the encoders of the delivery profile.
var RequiredEncoders = []string{"libx264", "aac"}

// Lister runs a binary and returns its standard output.
type Lister func(ctx context.Context, binary string, args ...string) ([]byte, error)

func execLister(ctx context.Context, binary string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
}

// CheckFFmpegCapabilities verifies that binary was built with every filter
// and encoder the renderer needs. A nil lister runs the binary.
func CheckFFmpegCapabilities(ctx context.Context, binary string, list Lister) Status {
	status := Status{
		Name:        "FFmpeg capabilities",
		Command:     strings.TrimSpace(binary),
		Description: "Filters and encoders used by the render graphs",
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if list == nil {
		list = execLister
	}

	var missing []string
	for _, probe := range []struct {
		flag  string
		names []string
	}{
		{"-filters", RequiredFilters},
		{"-encoders", RequiredEncoders},
	} {
		out, err := list(ctx, status.Command, "-hide_banner", probe.flag)
		if err != nil {
			status.Detail = fmt.Sprintf("%s %s failed: %v", status.Command, probe.flag, err)
			return status
		}
		available := listedNames(string(out))
		for _, name := range probe.names {
			if _, ok := available[name]; !ok {
				missing = append(missing, name)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		status.Detail = "missing " + strings.Join(missing, ", ")
		return status
	}
	status.Available = true
	return status
}

// listedNames extracts the second column of ffmpeg -filters / -encoders
// listings, which is where both put the component name.
func listedNames(listing string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasSuffix(fields[0], ":") || fields[1] == "=" {
			continue
		}
		names[fields[1]] = struct{}{}
	}
	return names
}
