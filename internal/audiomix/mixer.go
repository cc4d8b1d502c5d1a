package audiomix

import (
	"context"
	"log/slog"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/liyanghua/xhs-video-tool/internal/fileutil"
	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/media/ffprobe"
	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

const Stage = "mix-audio"

// BackgroundGain attenuates the music bed. Narration is mixed at unity gain
// and never passes through a volume filter.
const BackgroundGain = 0.3

// Mixer assembles the soundtrack graph for one run.
type Mixer struct {
	prober ffprobe.Prober
	logger *slog.Logger
}

// Option customizes a Mixer.
type Option func(*Mixer)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mixer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMixer wires a Mixer around the prober used for the background bed.
func NewMixer(prober ffprobe.Prober, opts ...Option) *Mixer {
	m := &Mixer{prober: prober, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "audiomix")
	return m
}

// Result is the final soundtrack and the facts needed to log it.
type Result struct {
	Stream           *ffmpeg.Stream
	Background       Background
	RequiredDuration float64
	TrackCount       int
}

// Mix builds the soundtrack for tracks with an optional background bed.
func (m *Mixer) Mix(ctx context.Context, tracks []timeline.NarrationTrack, backgroundPath string) (Result, error) {
	if len(tracks) == 0 {
		return Result{}, services.Wrap(services.ErrConfiguration, Stage, "mix", "no narration tracks", nil)
	}
	for _, track := range tracks {
		if err := fileutil.RequireFile(track.AudioPath); err != nil {
			return Result{}, services.Wrap(services.ErrAsset, Stage, track.Segment, "load narration audio", err)
		}
	}
	required := timeline.TotalDuration(tracks)
	bg, err := m.ResolveBackground(ctx, backgroundPath, required)
	if err != nil {
		return Result{}, err
	}

	narration := NarrationStream(tracks)
	stream := narration
	if bg.Present {
		stream = FinalMix(narration, BackgroundStream(bg.Track))
	}
	logging.WithContext(ctx, m.logger).Info("soundtrack assembled",
		logging.String(logging.FieldEventType, "audio_mixed"),
		logging.Int("track_count", len(tracks)),
		logging.Seconds("required_duration", required),
		logging.Bool("background_present", bg.Present),
	)
	return Result{Stream: stream, Background: bg, RequiredDuration: required, TrackCount: len(tracks)}, nil
}

// DelayMillis is the adelay value that places a track at start seconds.
func DelayMillis(start float64) int64 {
	if start <= 0 {
		return 0
	}
	return int64(start*1000 + 0.5)
}

// NarrationStream delays every track to its start and sums them without
// normalization so each clip keeps unity gain.
func NarrationStream(tracks []timeline.NarrationTrack) *ffmpeg.Stream {
	streams := make([]*ffmpeg.Stream, 0, len(tracks))
	for _, track := range tracks {
		streams = append(streams, ffmpeg.Input(track.AudioPath).Audio().
			Filter("adelay", ffmpeg.Args{}, ffmpeg.KwArgs{
				"delays": strconv.FormatInt(DelayMillis(track.Start), 10),
				"all":    "1",
			}))
	}
	if len(streams) == 1 {
		return streams[0]
	}
	return ffmpeg.Filter(streams, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
		"inputs":             strconv.Itoa(len(streams)),
		"duration":           "longest",
		"dropout_transition": "0",
		"normalize":          "0",
	})
}

// BackgroundStream loops the bed by concatenation, trims it to exactly the
// required duration and attenuates it.
func BackgroundStream(track timeline.BackgroundTrack) *ffmpeg.Stream {
	kwargs := ffmpeg.KwArgs{}
	if track.Repeats > 1 {
		kwargs["stream_loop"] = strconv.Itoa(track.Repeats - 1)
	}
	return ffmpeg.Input(track.Path, kwargs).Audio().
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": timeline.FormatSeconds(track.RequiredDuration)}).
		Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"}).
		Filter("volume", ffmpeg.Args{strconv.FormatFloat(track.Attenuation, 'f', -1, 64)})
}

// FinalMix lays the attenuated bed under the narration, both starting at
// zero. The narration decides the output length.
func FinalMix(narration, background *ffmpeg.Stream) *ffmpeg.Stream {
	return ffmpeg.Filter([]*ffmpeg.Stream{narration, background}, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
		"inputs":             "2",
		"duration":           "first",
		"dropout_transition": "0",
		"normalize":          "0",
	})
}
