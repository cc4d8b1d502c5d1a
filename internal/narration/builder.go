package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/media/ffprobe"
	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/textutil"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

// Stage is the pipeline stage name used in logs and errors.
const Stage = "synthesize-narration"

// Builder produces placed narration tracks from captions.
type Builder struct {
	synth    Synthesizer
	prober   ffprobe.Prober
	audioDir string
	language string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLanguage sets the language tag passed to the synthesizer.
func WithLanguage(lang string) Option {
	return func(b *Builder) {
		if lang != "" {
			b.language = lang
		}
	}
}

// WithTimeout bounds each caption's synthesis and probe. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		b.timeout = d
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder wires a Builder that writes audio into audioDir.
func NewBuilder(synth Synthesizer, prober ffprobe.Prober, audioDir string, opts ...Option) *Builder {
	b := &Builder{
		synth:    synth,
		prober:   prober,
		audioDir: audioDir,
		language: "zh-CN",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "narration")
	return b
}

// AudioFileName returns the per-caption audio file name.
func AudioFileName(index int, segment string) string {
	return fmt.Sprintf("%d_%s_voice.mp3", index, textutil.SanitizeToken(segment))
}

// Build synthesizes every caption in order and returns tracks whose start
// offsets are the running sum of measured durations. The first failure aborts
// the build; nothing is retried.
func (b *Builder) Build(ctx context.Context, segments []timeline.Segment) ([]timeline.NarrationTrack, error) {
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, Stage, "build", "caption list is empty", nil)
	}
	if b.synth == nil || b.prober == nil {
		return nil, services.Wrap(services.ErrConfiguration, Stage, "build", "synthesizer and prober are required", nil)
	}
	if err := os.MkdirAll(b.audioDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrSynthesis, Stage, "prepare", "create audio directory", err)
	}

	logger := logging.WithContext(ctx, b.logger)
	logger.Info("narration synthesis started",
		logging.String(logging.FieldEventType, "narration_start"),
		logging.String("provider", b.synth.Name()),
		logging.String("language", b.language),
		logging.Int("track_count", len(segments)),
	)

	tracks := make([]timeline.NarrationTrack, 0, len(segments))
	for i, seg := range segments {
		track, err := b.synthesizeOne(ctx, i, seg)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	tracks = timeline.Place(tracks)

	for _, track := range tracks {
		segLogger := logging.WithContext(services.WithSegment(ctx, track.Segment), b.logger)
		segLogger.Info("narration placed",
			logging.String(logging.FieldEventType, "narration_placed"),
			logging.Seconds("narration_start", track.Start),
			logging.Seconds("narration_duration", track.Duration),
			logging.String("audio_path", track.AudioPath),
		)
	}
	logger.Info("narration synthesis completed",
		logging.String(logging.FieldEventType, "narration_complete"),
		logging.Int("track_count", len(tracks)),
		logging.Seconds("total_duration", timeline.TotalDuration(tracks)),
	)
	return tracks, nil
}

func (b *Builder) synthesizeOne(parent context.Context, index int, seg timeline.Segment) (timeline.NarrationTrack, error) {
	ctx := services.WithSegment(parent, seg.Name)
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	fail := func(operation string, err error) (timeline.NarrationTrack, error) {
		if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", services.ErrTimeout, b.timeout, err)
		}
		return timeline.NarrationTrack{}, services.Wrap(services.ErrSynthesis, Stage, seg.Name, operation, err)
	}

	audio, err := b.synth.Synthesize(ctx, seg.Text, b.language)
	if err != nil {
		return fail("synthesize speech", err)
	}
	if len(audio) == 0 {
		return fail("synthesize speech", errors.New("provider returned no audio"))
	}
	path := filepath.Join(b.audioDir, AudioFileName(index, seg.Name))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return fail("write audio", err)
	}
	info, err := b.prober.Probe(ctx, path)
	if err != nil {
		return fail("probe audio", err)
	}

	logging.WithContext(ctx, b.logger).Debug("narration measured",
		logging.Args(append(logging.MediaAttrs(info), logging.String("audio_path", path), logging.Int("audio_bytes", len(audio)))...)...,
	)
	return timeline.NarrationTrack{
		Index:     index,
		Segment:   seg.Name,
		Text:      seg.Text,
		AudioPath: path,
		Info:      info,
		Duration:  info.Duration,
	}, nil
}
