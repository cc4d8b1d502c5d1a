package visual

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/media/ffprobe"
	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/textutil"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

const (
	StageBuild     = "build-visual-tracks"
	StageComposite = "composite-visual"
)

// durationTolerance absorbs container rounding when comparing the source
// clip length with the intro narration.
const durationTolerance = 0.001

// Compositor builds visual tracks for the slots of one run. Results of Prepare
// are cached so the slot pass only assembles tracks.
type Compositor struct {
	prober    ffprobe.Prober
	canvas    timeline.Canvas
	frameRate int
	tempDir   string
	logger    *slog.Logger

	mu      sync.Mutex
	videos  map[string]timeline.MediaInfo
	resized map[string]string
}

// Option customizes a Compositor.
type Option func(*Compositor)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compositor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCompositor wires a Compositor that writes resized stills into tempDir.
func NewCompositor(prober ffprobe.Prober, canvas timeline.Canvas, frameRate int, tempDir string, opts ...Option) *Compositor {
	c := &Compositor{
		prober:    prober,
		canvas:    canvas,
		frameRate: frameRate,
		tempDir:   tempDir,
		logger:    logging.NewNop(),
		videos:    make(map[string]timeline.MediaInfo),
		resized:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "visual")
	return c
}

// Canvas returns the canvas every track conforms to.
func (c *Compositor) Canvas() timeline.Canvas { return c.canvas }

// FrameRate returns the fixed output frame rate.
func (c *Compositor) FrameRate() int { return c.frameRate }

// ResizedName is the temp file name for the still shown in slot index.
func ResizedName(index int, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if token := textutil.SanitizeToken(base); token != "" {
		return fmt.Sprintf("slot_%02d_%s.jpg", index, token)
	}
	return fmt.Sprintf("slot_%02d.jpg", index)
}

// Prepare probes the source video and resizes the images ahead of
// narration, so it can run while speech is being synthesized. images[i] is
// resized for slot i+1.
func (c *Compositor) Prepare(ctx context.Context, videoPath string, images []string) error {
	if _, err := c.probeVideo(ctx, videoPath); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.NumCPU()))
	for i, image := range images {
		i, image := i, image
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := c.resize(gctx, i+1, image); err != nil {
				return services.Wrap(services.ErrAsset, StageBuild, "resize image", image, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// VideoSegment cover-fits the source clip onto the canvas for the duration of
// the narration track. A source shorter than the narration is an asset error.
func (c *Compositor) VideoSegment(ctx context.Context, videoPath string, narr timeline.NarrationTrack) (timeline.VisualTrack, error) {
	info, err := c.probeVideo(ctx, videoPath)
	if err != nil {
		return timeline.VisualTrack{}, err
	}
	if info.Duration+durationTolerance < narr.Duration {
		return timeline.VisualTrack{}, services.Wrap(services.ErrAsset, StageBuild, narr.Segment,
			fmt.Sprintf("source video lasts %.2fs but the narration needs %.2fs", info.Duration, narr.Duration), nil)
	}
	track := timeline.VisualTrack{
		Index:      narr.Index,
		Segment:    narr.Segment,
		Kind:       timeline.VisualVideo,
		SourcePath: videoPath,
		Canvas:     c.canvas,
		FrameRate:  c.frameRate,
		Start:      narr.Start,
		Duration:   narr.Duration,
		Fit:        CoverFit(info.Width, info.Height, c.canvas),
	}
	logger := logging.WithContext(services.WithSegment(ctx, narr.Segment), c.logger)
	logger.Info("video segment ready", logging.Args(append(logging.MediaAttrs(info),
		logging.String(logging.FieldEventType, "segment_ready"),
		logging.Seconds("segment_start", track.Start),
		logging.Seconds("segment_duration", track.Duration),
		logging.String("scaled_size", fmt.Sprintf("%dx%d", track.Fit.ScaledWidth, track.Fit.ScaledHeight)),
		logging.Bool("padded", track.Fit.NeedsPad(c.canvas)),
		logging.Bool("cropped", track.Fit.NeedsCrop(c.canvas)),
	)...)...)
	return track, nil
}

// ImageSegment resizes the image to the canvas and holds it for the
// narration track.
func (c *Compositor) ImageSegment(ctx context.Context, imagePath string, narr timeline.NarrationTrack) (timeline.VisualTrack, error) {
	resized, err := c.resize(ctx, narr.Index, imagePath)
	if err != nil {
		return timeline.VisualTrack{}, services.Wrap(services.ErrAsset, StageBuild, narr.Segment, "resize image", err)
	}
	track := timeline.VisualTrack{
		Index:      narr.Index,
		Segment:    narr.Segment,
		Kind:       timeline.VisualImage,
		SourcePath: resized,
		Canvas:     c.canvas,
		FrameRate:  c.frameRate,
		Start:      narr.Start,
		Duration:   narr.Duration,
		Fit:        exactFit(c.canvas),
	}
	logging.WithContext(services.WithSegment(ctx, narr.Segment), c.logger).Info("image segment ready",
		logging.String(logging.FieldEventType, "segment_ready"),
		logging.Seconds("segment_start", track.Start),
		logging.Seconds("segment_duration", track.Duration),
		logging.String("image_source", imagePath),
		logging.String("resized_path", resized),
	)
	return track, nil
}

// Slots pairs every narration track with its visual. Slots past the last
// image carry narration only.
func (c *Compositor) Slots(ctx context.Context, tracks []timeline.NarrationTrack, videoPath string, images []string) ([]timeline.Slot, error) {
	if len(tracks) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, StageBuild, "assign", "no narration tracks", nil)
	}
	slots := make([]timeline.Slot, 0, len(tracks))
	for _, a := range Assign(tracks, len(images)) {
		slot := timeline.Slot{Narration: a.Narration}
		var err error
		switch {
		case a.Kind == timeline.VisualVideo:
			slot.Visual, err = c.VideoSegment(ctx, videoPath, a.Narration)
			slot.HasVisual = err == nil
		case a.HasVisual:
			slot.Visual, err = c.ImageSegment(ctx, images[a.ImageIndex], a.Narration)
			slot.HasVisual = err == nil
		default:
			logging.WithContext(services.WithSegment(ctx, a.Narration.Segment), c.logger).Info("no image for segment",
				logging.String(logging.FieldEventType, "segment_narration_only"),
				logging.Seconds("segment_start", a.Narration.Start),
				logging.Seconds("segment_duration", a.Narration.Duration),
			)
		}
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (c *Compositor) probeVideo(ctx context.Context, path string) (timeline.MediaInfo, error) {
	c.mu.Lock()
	info, ok := c.videos[path]
	c.mu.Unlock()
	if ok {
		return info, nil
	}
	if c.prober == nil {
		return timeline.MediaInfo{}, services.Wrap(services.ErrConfiguration, StageBuild, "probe video", "prober is required", nil)
	}
	info, err := c.prober.Probe(ctx, path)
	if err != nil {
		return timeline.MediaInfo{}, services.Wrap(services.ErrAsset, StageBuild, "probe video", path, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return timeline.MediaInfo{}, services.Wrap(services.ErrAsset, StageBuild, "probe video", path+" has no video stream", nil)
	}
	c.mu.Lock()
	c.videos[path] = info
	c.mu.Unlock()
	logging.WithContext(ctx, c.logger).Debug("source video probed",
		logging.Args(append(logging.MediaAttrs(info), logging.String("video_path", path))...)...)
	return info, nil
}

func (c *Compositor) resize(ctx context.Context, index int, source string) (string, error) {
	dst := filepath.Join(c.tempDir, ResizedName(index, source))
	c.mu.Lock()
	_, ok := c.resized[dst]
	c.mu.Unlock()
	if ok {
		return dst, nil
	}
	info, err := ResizeImage(source, dst, c.canvas)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.resized[dst] = source
	c.mu.Unlock()
	logging.WithContext(ctx, c.logger).Debug("image resized",
		logging.String("image_source", source),
		logging.String("original_size", fmt.Sprintf("%dx%d", info.Width, info.Height)),
		logging.String("resized_size", c.canvas.String()),
		logging.String("resized_path", dst),
	)
	return dst, nil
}
