package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/services"
)

// StagePrepareVisuals runs alongside narration synthesis.
const StagePrepareVisuals = "prepare-visuals"

// StageAttachAudio pairs the composited video with the soundtrack.
const StageAttachAudio = "attach-audio"

// runStage logs the start, completion or failure of fn under the stage name.
// Errors are returned unchanged.
func runStage(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, logger)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := time.Now()
	if err := fn(stageCtx); err != nil {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure", err,
			logging.Duration("stage_elapsed", time.Since(started).Round(time.Millisecond)),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}
