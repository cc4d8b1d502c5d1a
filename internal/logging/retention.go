package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogPattern matches the per-run log files written by the pipeline.
const RunLogPattern = "process_*.log"

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files matching the provided targets that are older
// than retentionDays and returns how many were removed. A retentionDays value
// of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, now time.Time, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	exclusions := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				if abs, err := filepath.Abs(trimmed); err == nil {
					exclusions[abs] = struct{}{}
				}
			}
		}
	}

	removed := 0
	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		pattern := strings.TrimSpace(target.Pattern)
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if pattern != "" {
				if matched, err := filepath.Match(pattern, entry.Name()); err != nil || !matched {
					continue
				}
			}
			fullPath := filepath.Join(dir, entry.Name())
			if abs, err := filepath.Abs(fullPath); err == nil {
				fullPath = abs
			}
			if _, skip := exclusions[fullPath]; skip {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(fullPath); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", fullPath),
					Error(err),
					String(FieldErrorHint, "check file permissions and log_dir ownership"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("log pruned", String("path", fullPath), String(FieldEventType, "log_pruned"))
			}
		}
	}
	return removed
}
