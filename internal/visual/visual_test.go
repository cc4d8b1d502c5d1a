package visual

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/testsupport"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

var scenarioDurations = []float64{3.0, 2.5, 3.2, 2.8, 3.0, 2.9, 3.1}

type fakeProber struct {
	mu    sync.Mutex
	infos map[string]timeline.MediaInfo
	err   error
	calls int
}

func (f *fakeProber) Probe(_ context.Context, path string) (timeline.MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return timeline.MediaInfo{}, f.err
	}
	info, ok := f.infos[path]
	if !ok {
		return timeline.MediaInfo{}, errors.New("no such file")
	}
	return info, nil
}

func narrationTracks(durations []float64) []timeline.NarrationTrack {
	names := []string{"intro", "bronze", "silver", "gold", "platinum", "diamond", "king"}
	tracks := make([]timeline.NarrationTrack, len(durations))
	for i, d := range durations {
		tracks[i] = timeline.NarrationTrack{Index: i, Segment: names[i%len(names)], Duration: d}
	}
	return timeline.Place(tracks)
}

func writeImages(t *testing.T, dir string, count int) []string {
	t.Helper()
	paths := make([]string, count)
	for i := range paths {
		ext := ".png"
		if i%2 == 1 {
			ext = ".jpg"
		}
		paths[i] = filepath.Join(dir, "img"+string(rune('a'+i))+ext)
		testsupport.WriteImage(t, paths[i], 40+i*30, 90-i*10)
	}
	return paths
}

func newTestCompositor(t *testing.T, videoDuration float64) (*Compositor, *fakeProber, string) {
	t.Helper()
	video := filepath.Join(t.TempDir(), "source.mp4")
	prober := &fakeProber{infos: map[string]timeline.MediaInfo{
		video: {Duration: videoDuration, Width: 1920, Height: 1080, FrameRate: 30, HasAudio: true},
	}}
	c := NewCompositor(prober, timeline.Canvas{Width: 108, Height: 144}, 24, t.TempDir())
	return c, prober, video
}

func TestResizeImageMatchesCanvasForAnyAspect(t *testing.T) {
	dir := t.TempDir()
	canvas := timeline.Canvas{Width: 108, Height: 144}
	sources := map[string][2]int{
		"wide.png": {300, 100},
		"tall.jpg": {100, 300},
		"tiny.png": {3, 2},
	}
	for name, size := range sources {
		src := filepath.Join(dir, name)
		testsupport.WriteImage(t, src, size[0], size[1])
		dst := filepath.Join(dir, "out", name+".jpg")
		info, err := ResizeImage(src, dst, canvas)
		if err != nil {
			t.Fatalf("resize %s: %v", name, err)
		}
		if info.Width != size[0] || info.Height != size[1] {
			t.Fatalf("%s: reported original %dx%d", name, info.Width, info.Height)
		}
		if w, h := testsupport.ImageSize(t, dst); w != canvas.Width || h != canvas.Height {
			t.Fatalf("%s: resized to %dx%d, want %s", name, w, h, canvas)
		}
		if _, err := os.Stat(dst + ".tmp"); !os.IsNotExist(err) {
			t.Fatalf("%s: temp file left behind", name)
		}
	}
}

func TestResizeImageRejectsUndecodable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	testsupport.WriteFile(t, src, 32)
	if _, err := ResizeImage(src, filepath.Join(dir, "out.jpg"), timeline.Canvas{Width: 10, Height: 10}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestAssign(t *testing.T) {
	tracks := narrationTracks(scenarioDurations)

	full := Assign(tracks, 6)
	for i, a := range full {
		if !a.HasVisual {
			t.Fatalf("slot %d: expected visual with 6 images", i)
		}
	}
	if full[0].Kind != timeline.VisualVideo || full[0].ImageIndex != -1 {
		t.Fatalf("slot 0 should be the video, got %+v", full[0])
	}
	if full[6].Kind != timeline.VisualImage || full[6].ImageIndex != 5 {
		t.Fatalf("slot 6 should use image 5, got %+v", full[6])
	}

	short := Assign(tracks, 4)
	for i, a := range short {
		want := i <= 4
		if a.HasVisual != want {
			t.Fatalf("slot %d: HasVisual=%v, want %v", i, a.HasVisual, want)
		}
	}
	if got := ImagesNeeded(7, 10); got != 6 {
		t.Fatalf("ImagesNeeded(7,10) = %d", got)
	}
	if got := ImagesNeeded(0, 3); got != 0 {
		t.Fatalf("ImagesNeeded(0,3) = %d", got)
	}
}

func TestSlotsScenarioAllImages(t *testing.T) {
	c, _, video := newTestCompositor(t, 10)
	images := writeImages(t, t.TempDir(), 6)
	tracks := narrationTracks(scenarioDurations)

	slots, err := c.Slots(context.Background(), tracks, video, images)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(slots))
	}
	wantStarts := []float64{0, 3.0, 5.5, 8.7, 11.5, 14.5, 17.4}
	for i, slot := range slots {
		if !slot.HasVisual {
			t.Fatalf("slot %d missing visual", i)
		}
		v := slot.Visual
		if math.Abs(v.Start-wantStarts[i]) > 1e-9 || math.Abs(v.Duration-scenarioDurations[i]) > 1e-9 {
			t.Fatalf("slot %d: start/duration = %.3f/%.3f", i, v.Start, v.Duration)
		}
		if v.Canvas != c.Canvas() || v.FrameRate != 24 {
			t.Fatalf("slot %d: canvas %s fps %d", i, v.Canvas, v.FrameRate)
		}
		if i > 0 {
			if v.Kind != timeline.VisualImage {
				t.Fatalf("slot %d: kind %s", i, v.Kind)
			}
			if w, h := testsupport.ImageSize(t, v.SourcePath); w != 108 || h != 144 {
				t.Fatalf("slot %d: still is %dx%d", i, w, h)
			}
		}
	}
	if slots[0].Visual.Kind != timeline.VisualVideo || slots[0].Visual.SourcePath != video {
		t.Fatalf("slot 0 should be the source video, got %+v", slots[0].Visual)
	}
	if math.Abs(timeline.TotalDuration(tracks)-20.5) > 1e-9 {
		t.Fatalf("total duration = %v", timeline.TotalDuration(tracks))
	}
}

func TestSlotsScenarioFewerImages(t *testing.T) {
	c, _, video := newTestCompositor(t, 10)
	images := writeImages(t, t.TempDir(), 4)

	slots, err := c.Slots(context.Background(), narrationTracks(scenarioDurations), video, images)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	for i, slot := range slots {
		if want := i <= 4; slot.HasVisual != want {
			t.Fatalf("slot %d: HasVisual=%v, want %v", i, slot.HasVisual, want)
		}
	}
	if slots[6].Narration.Segment != "king" || math.Abs(slots[6].Narration.Start-17.4) > 1e-9 {
		t.Fatalf("narration-only slot lost its narration: %+v", slots[6].Narration)
	}
}

func TestVideoSegmentShorterThanNarrationIsAssetError(t *testing.T) {
	c, _, video := newTestCompositor(t, 2.0)
	_, err := c.VideoSegment(context.Background(), video, timeline.NarrationTrack{Segment: "intro", Duration: 3.0})
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
	if !strings.Contains(err.Error(), "intro") {
		t.Fatalf("error should name the segment: %v", err)
	}
}

func TestVideoSegmentProbeFailureIsAssetError(t *testing.T) {
	c, prober, video := newTestCompositor(t, 5)
	prober.err = errors.New("moov atom not found")
	_, err := c.VideoSegment(context.Background(), video, timeline.NarrationTrack{Segment: "intro", Duration: 3.0})
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
}

func TestPrepareCachesProbeAndStills(t *testing.T) {
	c, prober, video := newTestCompositor(t, 10)
	images := writeImages(t, t.TempDir(), 3)

	if err := c.Prepare(context.Background(), video, images); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	for i, img := range images {
		if _, err := os.Stat(filepath.Join(c.tempDir, ResizedName(i+1, img))); err != nil {
			t.Fatalf("image %d not resized: %v", i, err)
		}
	}
	if _, err := c.Slots(context.Background(), narrationTracks(scenarioDurations[:4]), video, images); err != nil {
		t.Fatalf("slots: %v", err)
	}
	if prober.calls != 1 {
		t.Fatalf("expected a single probe, got %d", prober.calls)
	}
}

func TestPrepareMissingImageIsAssetError(t *testing.T) {
	c, _, video := newTestCompositor(t, 10)
	err := c.Prepare(context.Background(), video, []string{filepath.Join(t.TempDir(), "missing.png")})
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
}

func TestCompositeGraph(t *testing.T) {
	c, _, video := newTestCompositor(t, 10)
	images := writeImages(t, t.TempDir(), 4)
	tracks := narrationTracks(scenarioDurations)
	slots, err := c.Slots(context.Background(), tracks, video, images)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}

	stream := Composite(slots, c.Canvas(), c.FrameRate(), timeline.TotalDuration(tracks))
	args := ffmpeg.Output([]*ffmpeg.Stream{stream}, "out.mp4").GetArgs()
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-f lavfi -i "+BaseSource(c.Canvas(), 24, 20.5)) {
		t.Fatalf("missing black base source: %s", joined)
	}
	if got := strings.Count(joined, "eof_action=pass"); got != 5 {
		t.Fatalf("expected 5 overlays, got %d: %s", got, joined)
	}
	loops := 0
	for _, arg := range args {
		if arg == "-loop" {
			loops++
		}
	}
	if loops != 4 {
		t.Fatalf("expected 4 looped stills, got %d", loops)
	}
	for _, want := range []string{
		"scale=256:144",
		"crop=108:144:74:0",
		"setsar=1",
		"fps=24",
		"setpts=PTS-STARTPTS+3.000/TB",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("filter graph missing %q: %s", want, joined)
		}
	}
}

func TestIntroStreamStartsAtZero(t *testing.T) {
	slots := []timeline.Slot{{
		HasVisual: true,
		Visual: timeline.VisualTrack{
			Kind: timeline.VisualVideo, SourcePath: "in.mp4", Canvas: timeline.Canvas{Width: 108, Height: 144},
			FrameRate: 24, Start: 4, Duration: 3, Fit: CoverFit(1920, 1080, timeline.Canvas{Width: 108, Height: 144}),
		},
	}}
	stream, ok := IntroStream(slots)
	if !ok {
		t.Fatal("expected an intro stream")
	}
	joined := strings.Join(ffmpeg.Output([]*ffmpeg.Stream{stream}, "intro.mp4").GetArgs(), " ")
	if !strings.Contains(joined, "setpts=PTS-STARTPTS+0.000/TB") {
		t.Fatalf("intro should start at zero: %s", joined)
	}
	if _, ok := IntroStream(nil); ok {
		t.Fatal("expected no intro stream for empty slots")
	}
}
