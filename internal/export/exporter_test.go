package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/liyanghua/xhs-video-tool/internal/services"
)

type recordingRunner struct {
	name   string
	args   []string
	output []byte
	err    error
	write  bool
}

func (r *recordingRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	if r.write {
		for _, arg := range args {
			if strings.HasSuffix(arg, ".partial.mp4") {
				if err := os.WriteFile(arg, []byte("mp4"), 0o644); err != nil {
					return nil, err
				}
			}
		}
	}
	return r.output, r.err
}

func testStreams() (*ffmpeg.Stream, *ffmpeg.Stream) {
	video := ffmpeg.Input("color=c=black:s=108x144:r=24:d=3.000", ffmpeg.KwArgs{"f": "lavfi"}).Video()
	audio := ffmpeg.Input("voice.mp3").Audio()
	return video, audio
}

func TestPartialPath(t *testing.T) {
	if got := PartialPath("/out/final_video.mp4"); got != "/out/final_video.partial.mp4" {
		t.Fatalf("PartialPath = %q", got)
	}
}

func TestArgsCarryFixedProfile(t *testing.T) {
	video, audio := testStreams()
	args := New("ffmpeg").Args(video, audio, "/out/x.partial.mp4")
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-c:v libx264", "-profile:v high", "-level 4.2", "-pix_fmt yuv420p", "-b:v 8000k",
		"-r 24", "-c:a aac", "-preset slow", "-threads 4", "-movflags +faststart",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %s", want, joined)
		}
	}
	if !slices.Contains(args, "-y") {
		t.Fatalf("expected overwrite flag: %v", args)
	}
	if !slices.Contains(args, "/out/x.partial.mp4") {
		t.Fatalf("output path missing: %v", args)
	}
	if got := strings.Count(joined, "-map"); got != 2 {
		t.Fatalf("expected video and audio maps, got %d: %s", got, joined)
	}
}

func TestExportPromotesPartialOnSuccess(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "output", "final_video.mp4")
	runner := &recordingRunner{write: true}
	video, audio := testStreams()

	res, err := New("/usr/bin/ffmpeg", WithRunner(runner.run)).Export(context.Background(), video, audio, final)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if runner.name != "/usr/bin/ffmpeg" {
		t.Fatalf("ran %q", runner.name)
	}
	if res.Path != final || res.SizeBytes != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(PartialPath(final)); !os.IsNotExist(err) {
		t.Fatalf("partial file should be gone, stat err=%v", err)
	}
	if !slices.Contains(runner.args, PartialPath(final)) {
		t.Fatalf("ffmpeg should write the partial path: %v", runner.args)
	}
}

func TestExportFailureRemovesPartial(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "final_video.mp4")
	runner := &recordingRunner{write: true, output: []byte("Unknown encoder 'libx264'"), err: errors.New("exit status 1")}
	video, audio := testStreams()

	_, err := New("ffmpeg", WithRunner(runner.run)).Export(context.Background(), video, audio, final)
	if !errors.Is(err, services.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Unknown encoder") {
		t.Fatalf("ffmpeg output should be attached: %v", err)
	}
	for _, path := range []string{final, PartialPath(final)} {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Fatalf("%s should not exist after failure", path)
		}
	}
}

func TestExportEmptyOutputIsEncodingError(t *testing.T) {
	final := filepath.Join(t.TempDir(), "final_video.mp4")
	runner := &recordingRunner{}
	video, _ := testStreams()
	if _, err := New("ffmpeg", WithRunner(runner.run)).Export(context.Background(), video, nil, final); !errors.Is(err, services.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
}

func TestExportTimeout(t *testing.T) {
	final := filepath.Join(t.TempDir(), "final_video.mp4")
	blocking := func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	video, audio := testStreams()
	_, err := New("ffmpeg", WithRunner(blocking), WithTimeout(20*time.Millisecond)).Export(context.Background(), video, audio, final)
	if !errors.Is(err, services.ErrEncoding) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected encoding timeout, got %v", err)
	}
}

func TestExportRequiresVideo(t *testing.T) {
	if _, err := New("ffmpeg").Export(context.Background(), nil, nil, filepath.Join(t.TempDir(), "x.mp4")); !errors.Is(err, services.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
}
