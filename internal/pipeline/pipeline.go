package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"

	"github.com/liyanghua/xhs-video-tool/internal/audiomix"
	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/export"
	"github.com/liyanghua/xhs-video-tool/internal/fileutil"
	"github.com/liyanghua/xhs-video-tool/internal/history"
	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/media/ffprobe"
	"github.com/liyanghua/xhs-video-tool/internal/narration"
	"github.com/liyanghua/xhs-video-tool/internal/publish"
	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
	"github.com/liyanghua/xhs-video-tool/internal/visual"
)

// VideoExtensions are the source clip containers looked up in the video dir.
var VideoExtensions = []string{".mp4", ".mov", ".m4v", ".mkv", ".webm"}

// IntroClipName is the debug render of the first slot.
const IntroClipName = "video_intro_debug.mp4"

// Publisher uploads the finished artifact.
type Publisher interface {
	Publish(ctx context.Context, localPath, runFolder string) (publish.Result, error)
}

// Dependencies are the collaborators a Pipeline drives. History and
// Publisher are optional.
type Dependencies struct {
	Synthesizer narration.Synthesizer
	Prober      ffprobe.Prober
	Runner      export.CommandRunner
	History     *history.Store
	Publisher   Publisher
}

// Pipeline renders projects with a fixed configuration.
type Pipeline struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the console logger runs tee into.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds a Pipeline.
func New(cfg *config.Config, deps Dependencies, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, deps: deps, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result summarizes a run. RunID and LogPath are set even when the run fails
// after its context was created.
type Result struct {
	RunID         string
	LogPath       string
	OutputPath    string
	IntroClipPath string
	Narration     []timeline.NarrationTrack
	Slots         []timeline.Slot
	Background    audiomix.Background
	TotalDuration float64
	Reproduced    *bool
	Published     *publish.Result
}

// Run renders project end to end. The first failing stage aborts the run and
// its error is returned unchanged.
func (p *Pipeline) Run(ctx context.Context, project *config.Project) (*Result, error) {
	if project == nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "load project", "project is required", nil)
	}
	if p.deps.Synthesizer == nil || p.deps.Prober == nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "wire dependencies", "synthesizer and prober are required", nil)
	}
	if len(project.Segments) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "run", "load project", "caption list is empty", nil)
	}
	videoPath, err := fileutil.FindFirstByExtension(project.VideoDir, VideoExtensions...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "locate source video", "no usable video file found", err)
	}

	rc, err := NewRunContext(p.cfg, p.logger, p.now())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ctx = rc.Context(ctx)
	logger := rc.Logger
	result := &Result{RunID: rc.ID, LogPath: rc.LogPath}

	logger.Info("render started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("project", project.Path),
		logging.Int("segment_count", len(project.Segments)),
		logging.Int("image_count", len(project.Images)),
		logging.String("canvas", p.cfg.CanvasSize().String()),
		logging.String("log_path", rc.LogPath),
	)
	p.housekeeping(logger, rc, project)
	p.beginHistory(ctx, logger, rc, project)

	runErr := p.render(ctx, logger, rc, project, videoPath, result)
	p.finishHistory(ctx, logger, rc, project, result, runErr)
	if runErr != nil {
		logging.ErrorWithContext(logger, "render failed", "run_failure", runErr,
			logging.String("log_path", rc.LogPath),
		)
		return result, runErr
	}

	if p.cfg.Publish.Enabled && p.deps.Publisher != nil {
		published, err := p.deps.Publisher.Publish(ctx, result.OutputPath, rc.Timestamp)
		if err != nil {
			logging.WarnWithContext(logger, "publish failed", "publish_failure",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "the render is available locally only"),
			)
		} else {
			result.Published = &published
		}
	}

	logger.Info("render completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output_path", result.OutputPath),
		logging.Seconds("total_duration", result.TotalDuration),
		logging.Duration("run_elapsed", time.Since(rc.StartedAt).Round(time.Millisecond)),
	)
	return result, nil
}

func (p *Pipeline) render(ctx context.Context, logger *slog.Logger, rc *RunContext, project *config.Project, videoPath string, result *Result) error {
	segments := project.TimelineSegments()
	images := project.Images[:visual.ImagesNeeded(len(segments), len(project.Images))]

	builder := narration.NewBuilder(p.deps.Synthesizer, p.deps.Prober, rc.Dirs.Audio,
		narration.WithLanguage(p.cfg.Narration.Language),
		narration.WithTimeout(p.cfg.NarrationTimeout()),
		narration.WithLogger(logger),
	)
	compositor := visual.NewCompositor(p.deps.Prober, p.cfg.CanvasSize(), p.cfg.Canvas.FrameRate, rc.Dirs.Temp,
		visual.WithLogger(logger),
	)
	mixer := audiomix.NewMixer(p.deps.Prober, audiomix.WithLogger(logger))
	exporter := p.newExporter(logger)

	var tracks []timeline.NarrationTrack
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runStage(gctx, logger, narration.Stage, func(ctx context.Context) error {
			var err error
			tracks, err = builder.Build(ctx, segments)
			return err
		})
	})
	g.Go(func() error {
		return runStage(gctx, logger, StagePrepareVisuals, func(ctx context.Context) error {
			return compositor.Prepare(ctx, videoPath, images)
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}
	result.Narration = tracks
	result.TotalDuration = timeline.TotalDuration(tracks)

	if err := runStage(ctx, logger, visual.StageBuild, func(ctx context.Context) error {
		slots, err := compositor.Slots(ctx, tracks, videoPath, images)
		result.Slots = slots
		return err
	}); err != nil {
		return err
	}

	var video *ffmpeg.Stream
	if err := runStage(ctx, logger, visual.StageComposite, func(ctx context.Context) error {
		video = visual.Composite(result.Slots, compositor.Canvas(), compositor.FrameRate(), result.TotalDuration)
		if !p.cfg.Debug.WriteIntroClip {
			return nil
		}
		intro, ok := visual.IntroStream(result.Slots)
		if !ok {
			return nil
		}
		clip, err := exporter.Export(ctx, intro, nil, filepath.Join(rc.Dirs.Debug, IntroClipName))
		if err != nil {
			return err
		}
		result.IntroClipPath = clip.Path
		return nil
	}); err != nil {
		return err
	}

	var mix audiomix.Result
	if err := runStage(ctx, logger, audiomix.Stage, func(ctx context.Context) error {
		var err error
		mix, err = mixer.Mix(ctx, tracks, p.backgroundPath(project))
		result.Background = mix.Background
		return err
	}); err != nil {
		return err
	}

	if err := runStage(ctx, logger, StageAttachAudio, func(ctx context.Context) error {
		if math.Abs(mix.RequiredDuration-result.TotalDuration) > 1e-6 {
			return services.Wrap(services.ErrEncoding, StageAttachAudio, "attach", fmt.Sprintf(
				"soundtrack lasts %.3fs but the video lasts %.3fs", mix.RequiredDuration, result.TotalDuration), nil)
		}
		logging.WithContext(ctx, logger).Info("soundtrack attached",
			logging.String(logging.FieldEventType, "audio_attached"),
			logging.Seconds("video_duration", result.TotalDuration),
			logging.Seconds("audio_duration", mix.RequiredDuration),
			logging.Bool("background_present", mix.Background.Present),
		)
		return nil
	}); err != nil {
		return err
	}

	return runStage(ctx, logger, export.Stage, func(ctx context.Context) error {
		out, err := exporter.Export(ctx, video, mix.Stream, filepath.Join(rc.Dirs.Output, project.OutputName()))
		if err != nil {
			return err
		}
		result.OutputPath = out.Path
		return nil
	})
}

func (p *Pipeline) newExporter(logger *slog.Logger) *export.Exporter {
	profile := export.DefaultProfile()
	profile.FrameRate = p.cfg.Canvas.FrameRate
	profile.VideoBitrate = p.cfg.Canvas.VideoBitrate
	opts := []export.Option{
		export.WithProfile(profile),
		export.WithTimeout(p.cfg.FFmpegTimeout()),
		export.WithLogger(logger),
	}
	if p.deps.Runner != nil {
		opts = append(opts, export.WithRunner(p.deps.Runner))
	}
	return export.New(p.cfg.FFmpeg.FFmpegBinary, opts...)
}

// backgroundPath prefers the project's own bed over the configured default.
func (p *Pipeline) backgroundPath(project *config.Project) string {
	if project.Background != "" {
		return project.Background
	}
	return p.cfg.BackgroundPath()
}

// housekeeping copies the project file into the debug dir and prunes old run
// logs. Failures are logged and never abort the run.
func (p *Pipeline) housekeeping(logger *slog.Logger, rc *RunContext, project *config.Project) {
	if project.Path != "" {
		dst := filepath.Join(rc.Dirs.Debug, filepath.Base(project.Path))
		if err := fileutil.CopyFile(project.Path, dst); err != nil {
			logging.WarnWithContext(logger, "project snapshot failed", "project_snapshot_failure",
				logging.Error(err),
				logging.String(logging.FieldImpact, "debug directory lacks the project file"),
			)
		}
	}
	removed := logging.CleanupOldLogs(logger, p.cfg.Logging.RetentionDays, rc.StartedAt, logging.RetentionTarget{
		Dir:     rc.Dirs.Logs,
		Pattern: logging.RunLogPattern,
		Exclude: []string{rc.LogPath},
	})
	if removed > 0 {
		logger.Debug("old run logs pruned", logging.Int("removed", removed))
	}
}

func (p *Pipeline) beginHistory(ctx context.Context, logger *slog.Logger, rc *RunContext, project *config.Project) {
	if p.deps.History == nil {
		return
	}
	if err := p.deps.History.BeginRun(ctx, history.Run{
		ID:          rc.ID,
		ProjectPath: project.Path,
		LogPath:     rc.LogPath,
		StartedAt:   rc.StartedAt,
	}); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_failure",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in xhsvideo history"),
		)
	}
}

func (p *Pipeline) finishHistory(ctx context.Context, logger *slog.Logger, rc *RunContext, project *config.Project, result *Result, runErr error) {
	store := p.deps.History
	if store == nil {
		return
	}
	// Record with a fresh context so a cancelled run still lands in the ledger.
	ctx = context.WithoutCancel(ctx)
	warn := func(err error) {
		logging.WarnWithContext(logger, "history record failed", "history_failure",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history is incomplete"),
		)
	}

	segments := historySegments(result)
	if len(segments) > 0 {
		if err := store.RecordSegments(ctx, rc.ID, segments); err != nil {
			warn(err)
		}
	}
	if err := store.FinishRun(ctx, rc.ID, result.OutputPath, result.TotalDuration, services.Category(runErr), runErr); err != nil {
		warn(err)
	}
	if runErr != nil || len(segments) == 0 {
		return
	}

	previous, err := store.LastSucceeded(ctx, project.Path, rc.ID)
	if err != nil || previous == nil {
		return
	}
	prior, err := store.Segments(ctx, previous.ID)
	if err != nil {
		warn(err)
		return
	}
	same := history.SameBoundaries(prior, segments)
	result.Reproduced = &same
	if same {
		logger.Info("segment boundaries match previous run",
			logging.String(logging.FieldEventType, "timeline_reproduced"),
			logging.String("previous_run_id", previous.ID),
		)
		return
	}
	logging.WarnWithContext(logger, "segment boundaries differ from previous run", "timeline_drift",
		logging.String("previous_run_id", previous.ID),
		logging.String(logging.FieldErrorHint, "narration provider returned different audio for the same captions"),
		logging.String(logging.FieldImpact, "visual timing differs between renders"),
	)
}

func historySegments(result *Result) []history.Segment {
	segments := make([]history.Segment, 0, len(result.Narration))
	for i, track := range result.Narration {
		seg := history.Segment{Index: track.Index, Name: track.Segment, Start: track.Start, Duration: track.Duration}
		if i < len(result.Slots) && result.Slots[i].HasVisual {
			seg.VisualKind = string(result.Slots[i].Visual.Kind)
		}
		segments = append(segments, seg)
	}
	return segments
}
