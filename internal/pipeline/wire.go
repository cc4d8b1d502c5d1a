package pipeline

import (
	"context"
	"log/slog"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/export"
	"github.com/liyanghua/xhs-video-tool/internal/history"
	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/media/ffprobe"
	"github.com/liyanghua/xhs-video-tool/internal/narration"
	"github.com/liyanghua/xhs-video-tool/internal/publish"
	"github.com/liyanghua/xhs-video-tool/internal/services"
)

// Wire builds the production dependencies for cfg. The history ledger is
// optional: when it cannot be opened the run continues without it. The
// returned cleanup closes whatever was opened.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Dependencies, func(), error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	synth, err := narration.NewSynthesizer(ctx, cfg.Narration)
	if err != nil {
		return Dependencies{}, func() {}, services.Wrap(services.ErrConfiguration, "run", "narration provider", "", err)
	}
	deps := Dependencies{
		Synthesizer: synth,
		Prober:      ffprobe.New(cfg.FFmpeg.FFprobeBinary),
		Runner:      export.ExecRunner,
	}

	if store, err := history.Open(cfg.Paths.HistoryDB); err != nil {
		logging.WarnWithContext(logger, "history ledger unavailable", "history_unavailable",
			logging.Error(err),
			logging.String("history_db", cfg.Paths.HistoryDB),
			logging.String(logging.FieldImpact, "runs will not be recorded"),
		)
	} else {
		deps.History = store
	}

	if cfg.Publish.Enabled {
		publisher, err := publish.NewS3(ctx, cfg.Publish, publish.WithLogger(logger))
		if err != nil {
			_ = deps.History.Close()
			return Dependencies{}, func() {}, err
		}
		deps.Publisher = publisher
	}

	cleanup := func() {
		if err := deps.History.Close(); err != nil {
			logger.Debug("history close failed", logging.Error(err))
		}
	}
	return deps, cleanup, nil
}
