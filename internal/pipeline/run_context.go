package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/services"
)

// TimestampLayout names the per-run directories and log file.
const TimestampLayout = "20060102_150405"

const lockFileName = ".xhsvideo.lock"

// Dirs are the directories a run writes into.
type Dirs struct {
	Debug  string
	Audio  string
	Temp   string
	Output string
	Logs   string
}

// RunContext carries the state of a single render.
type RunContext struct {
	ID        string
	Timestamp string
	StartedAt time.Time
	Dirs      Dirs
	LogPath   string
	Logger    *slog.Logger

	runLog    *logging.RunLog
	lock      *flock.Flock
	closeOnce sync.Once
	closeErr  error
}

// RunLogName is the per-run log file name for a timestamp.
func RunLogName(timestamp string) string {
	return "process_" + timestamp + ".log"
}

// NewRunContext creates the run directories, takes the output lock and opens
// the run log. The returned logger writes to base and to the run log.
func NewRunContext(cfg *config.Config, base *slog.Logger, now time.Time) (*RunContext, error) {
	ts := now.Format(TimestampLayout)
	rc := &RunContext{
		ID:        uuid.NewString(),
		Timestamp: ts,
		StartedAt: now,
		Dirs: Dirs{
			Debug:  filepath.Join(cfg.Paths.DebugDir, ts),
			Audio:  filepath.Join(cfg.Paths.AudioDir, ts),
			Temp:   filepath.Join(cfg.Paths.TempDir, ts),
			Output: cfg.Paths.OutputDir,
			Logs:   cfg.Paths.LogDir,
		},
	}
	for _, dir := range []string{rc.Dirs.Output, rc.Dirs.Logs, rc.Dirs.Debug, rc.Dirs.Audio, rc.Dirs.Temp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "run", "create directories", dir, err)
		}
	}

	lock := flock.New(filepath.Join(rc.Dirs.Output, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "acquire output lock", rc.Dirs.Output, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "run", "acquire output lock",
			fmt.Sprintf("another render is writing to %s", rc.Dirs.Output), nil)
	}
	rc.lock = lock

	runLog, err := logging.OpenRunLog(filepath.Join(rc.Dirs.Logs, RunLogName(ts)), rc.ID, logging.Options{Format: cfg.Logging.Format})
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrConfiguration, "run", "open run log", "", err)
	}
	rc.runLog = runLog
	rc.LogPath = runLog.Path
	if base == nil {
		base = logging.NewNop()
	}
	rc.Logger = logging.TeeLogger(base, runLog.Handler)
	return rc, nil
}

// Context tags ctx with the run id.
func (rc *RunContext) Context(ctx context.Context) context.Context {
	return services.WithRunID(ctx, rc.ID)
}

// Close flushes the run log and releases the output lock. It is safe to call
// more than once.
func (rc *RunContext) Close() error {
	rc.closeOnce.Do(func() {
		var errs []error
		if err := rc.runLog.Close(); err != nil {
			errs = append(errs, err)
		}
		if rc.lock != nil {
			if err := rc.lock.Unlock(); err != nil {
				errs = append(errs, fmt.Errorf("release output lock: %w", err))
			}
		}
		rc.closeErr = errors.Join(errs...)
	})
	return rc.closeErr
}
