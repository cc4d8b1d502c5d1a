package audiomix

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/liyanghua/xhs-video-tool/internal/services"
	"github.com/liyanghua/xhs-video-tool/internal/testsupport"
	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

type stubProber struct {
	info timeline.MediaInfo
	err  error
}

func (s stubProber) Probe(context.Context, string) (timeline.MediaInfo, error) {
	return s.info, s.err
}

func scenarioTracks(t *testing.T) []timeline.NarrationTrack {
	t.Helper()
	dir := t.TempDir()
	durations := []float64{3.0, 2.5, 3.2, 2.8, 3.0, 2.9, 3.1}
	tracks := make([]timeline.NarrationTrack, len(durations))
	for i, d := range durations {
		path := filepath.Join(dir, string(rune('a'+i))+"_voice.mp3")
		testsupport.WriteFile(t, path, 64)
		tracks[i] = timeline.NarrationTrack{Index: i, Segment: string(rune('a' + i)), AudioPath: path, Duration: d}
	}
	return timeline.Place(tracks)
}

func argsOf(stream *ffmpeg.Stream) string {
	return strings.Join(ffmpeg.Output([]*ffmpeg.Stream{stream}, "mix.m4a").GetArgs(), " ")
}

func TestRepeats(t *testing.T) {
	tests := []struct {
		original, required float64
		want               int
	}{
		{5, 20.5, 5},
		{5, 20, 4},
		{30, 20.5, 1},
		{20.5, 20.5, 1},
		{0, 10, 1},
		{7, 7.001, 2},
	}
	for _, tt := range tests {
		if got := Repeats(tt.original, tt.required); got != tt.want {
			t.Fatalf("Repeats(%v, %v) = %d, want %d", tt.original, tt.required, got, tt.want)
		}
	}
}

func TestPlanBackgroundScenario(t *testing.T) {
	track := PlanBackground("bgm.mp3", 5, 20.5)
	if track.Repeats != 5 {
		t.Fatalf("repeats = %d, want 5", track.Repeats)
	}
	if track.LoopedDuration() != 25 {
		t.Fatalf("looped duration = %v, want 25", track.LoopedDuration())
	}
	if track.Duration() != 20.5 {
		t.Fatalf("processed duration = %v, want 20.5", track.Duration())
	}
	if track.Attenuation != 0.3 {
		t.Fatalf("attenuation = %v, want 0.3", track.Attenuation)
	}
}

func TestDelayMillis(t *testing.T) {
	cases := map[float64]int64{0: 0, -1: 0, 3.0: 3000, 11.499999999999998: 11500, 17.4: 17400}
	for in, want := range cases {
		if got := DelayMillis(in); got != want {
			t.Fatalf("DelayMillis(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestResolveBackgroundSkipsAbsentMusic(t *testing.T) {
	m := NewMixer(stubProber{err: errors.New("should not probe")})
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.mp3")} {
		bg, err := m.ResolveBackground(context.Background(), path, 20.5)
		if err != nil {
			t.Fatalf("path %q: unexpected error %v", path, err)
		}
		if bg.Present || bg.Reason == "" {
			t.Fatalf("path %q: expected a skipped background with a reason, got %+v", path, bg)
		}
	}
}

func TestResolveBackgroundProbeFailureIsAssetError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bgm.mp3")
	testsupport.WriteFile(t, path, 16)
	m := NewMixer(stubProber{err: errors.New("invalid data")})
	if _, err := m.ResolveBackground(context.Background(), path, 10); !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
}

func TestMixWithoutBackground(t *testing.T) {
	tracks := scenarioTracks(t)
	m := NewMixer(stubProber{})
	res, err := m.Mix(context.Background(), tracks, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if res.Background.Present {
		t.Fatal("background should be absent")
	}
	if math.Abs(res.RequiredDuration-20.5) > 1e-9 {
		t.Fatalf("required duration = %v", res.RequiredDuration)
	}
	args := argsOf(res.Stream)
	if got := strings.Count(args, "adelay="); got != 7 {
		t.Fatalf("expected 7 delayed tracks, got %d: %s", got, args)
	}
	for _, want := range []string{"delays=0", "delays=3000", "delays=17400", "inputs=7", "normalize=0"} {
		if !strings.Contains(args, want) {
			t.Fatalf("missing %q: %s", want, args)
		}
	}
	if strings.Contains(args, "volume=") || strings.Contains(args, "stream_loop") {
		t.Fatalf("unexpected background filters: %s", args)
	}
}

func TestMixWithBackgroundLoopsTrimsAndAttenuates(t *testing.T) {
	tracks := scenarioTracks(t)
	bgm := filepath.Join(t.TempDir(), "bgm.mp3")
	testsupport.WriteFile(t, bgm, 128)

	m := NewMixer(stubProber{info: timeline.MediaInfo{Duration: 5, HasAudio: true}})
	res, err := m.Mix(context.Background(), tracks, bgm)
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if !res.Background.Present || res.Background.Track.Repeats != 5 {
		t.Fatalf("unexpected background: %+v", res.Background)
	}
	raw := ffmpeg.Output([]*ffmpeg.Stream{res.Stream}, "mix.m4a").GetArgs()
	idx := slices.Index(raw, "-stream_loop")
	if idx < 0 || raw[idx+1] != "4" {
		t.Fatalf("expected -stream_loop 4: %v", raw)
	}
	args := strings.Join(raw, " ")
	for _, want := range []string{"atrim=duration=20.500", "volume=0.3", "duration=first", "inputs=2"} {
		if !strings.Contains(args, want) {
			t.Fatalf("missing %q: %s", want, args)
		}
	}
	if got := strings.Count(args, "volume="); got != 1 {
		t.Fatalf("only the background may be attenuated, found %d volume filters: %s", got, args)
	}
}

func TestMixMissingNarrationIsAssetError(t *testing.T) {
	tracks := scenarioTracks(t)
	tracks[2].AudioPath = filepath.Join(t.TempDir(), "gone.mp3")
	_, err := NewMixer(stubProber{}).Mix(context.Background(), tracks, "")
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
	if !strings.Contains(err.Error(), tracks[2].Segment) {
		t.Fatalf("error should name the segment: %v", err)
	}
}

func TestMixRejectsEmptyTrackList(t *testing.T) {
	if _, err := NewMixer(stubProber{}).Mix(context.Background(), nil, ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSingleTrackSkipsAmix(t *testing.T) {
	stream := NarrationStream([]timeline.NarrationTrack{{AudioPath: "a.mp3", Duration: 2}})
	if args := argsOf(stream); strings.Contains(args, "amix") {
		t.Fatalf("single track should not be mixed: %s", args)
	}
}
