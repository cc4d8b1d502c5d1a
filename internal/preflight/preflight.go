package preflight

import (
	"context"

	"github.com/liyanghua/xhs-video-tool/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Detail})
	}

	results = append(results,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckNarrationCredentials(cfg),
		CheckBackground(cfg),
	)
	if cfg.Publish.Enabled {
		results = append(results, CheckPublish(cfg))
	}
	return results
}

// Failures returns the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
