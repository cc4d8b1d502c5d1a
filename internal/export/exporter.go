package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/liyanghua/xhs-video-tool/internal/logging"
	"github.com/liyanghua/xhs-video-tool/internal/services"
)

const Stage = "export"

// maxOutputTail bounds how much ffmpeg output is attached to an error.
const maxOutputTail = 2000

// CommandRunner executes a binary and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with exec.CommandContext.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

// Exporter muxes a video stream and an optional audio stream into a file.
type Exporter struct {
	binary  string
	run     CommandRunner
	profile Profile
	timeout time.Duration
	logger  *slog.Logger
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithRunner replaces the command runner.
func WithRunner(run CommandRunner) Option {
	return func(e *Exporter) {
		if run != nil {
			e.run = run
		}
	}
}

// WithProfile overrides the encoding profile.
func WithProfile(p Profile) Option {
	return func(e *Exporter) {
		e.profile = p
	}
}

// WithTimeout bounds each encode. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Exporter) {
		e.timeout = d
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New wires an Exporter around the ffmpeg binary.
func New(binary string, opts ...Option) *Exporter {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	e := &Exporter{
		binary:  binary,
		run:     ExecRunner,
		profile: DefaultProfile(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "export")
	return e
}

// Result describes a finished export.
type Result struct {
	Path      string
	SizeBytes int64
	Elapsed   time.Duration
}

// PartialPath is where an encode is written before it is promoted.
func PartialPath(final string) string {
	return strings.TrimSuffix(final, filepath.Ext(final)) + ".partial.mp4"
}

// Args returns the ffmpeg arguments that encode video (and audio when not
// nil) into path.
func (e *Exporter) Args(video, audio *ffmpeg.Stream, path string) []string {
	streams := []*ffmpeg.Stream{video}
	if audio != nil {
		streams = append(streams, audio)
	}
	args := ffmpeg.Output(streams, path, e.profile.KwArgs()).OverWriteOutput().GetArgs()
	return append([]string{"-hide_banner", "-nostdin"}, args...)
}

// Export encodes into a partial file and renames it to finalPath on success.
// Any failure removes the partial file and is reported as an encoding error.
func (e *Exporter) Export(ctx context.Context, video, audio *ffmpeg.Stream, finalPath string) (Result, error) {
	if video == nil {
		return Result{}, services.Wrap(services.ErrEncoding, Stage, "export", "video stream is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrEncoding, Stage, "prepare", "create output directory", err)
	}
	partial := PartialPath(finalPath)
	if err := os.Remove(partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Result{}, services.Wrap(services.ErrEncoding, Stage, "prepare", "remove stale partial output", err)
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := e.Args(video, audio, partial)
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("encoding started",
		logging.String(logging.FieldEventType, "encode_start"),
		logging.String("output_path", finalPath),
		logging.String("video_codec", e.profile.VideoCodec),
		logging.String("video_bitrate", e.profile.VideoBitrate),
		logging.Bool("has_audio", audio != nil),
	)
	logger.Debug("ffmpeg command", logging.String("command", e.binary+" "+strings.Join(args, " ")))

	started := time.Now()
	output, err := e.run(runCtx, e.binary, args...)
	if err == nil {
		err = checkOutput(partial)
	}
	if err != nil {
		_ = os.Remove(partial)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", services.ErrTimeout, e.timeout, err)
		}
		if tail := outputTail(output); tail != "" {
			err = fmt.Errorf("%w\n%s", err, tail)
		}
		return Result{}, services.Wrap(services.ErrEncoding, Stage, "ffmpeg", filepath.Base(finalPath), err)
	}

	if err := os.Rename(partial, finalPath); err != nil {
		_ = os.Remove(partial)
		return Result{}, services.Wrap(services.ErrEncoding, Stage, "finalize", "rename partial output", err)
	}
	info, err := os.Stat(finalPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrEncoding, Stage, "finalize", "stat output", err)
	}
	result := Result{Path: finalPath, SizeBytes: info.Size(), Elapsed: time.Since(started)}
	logger.Info("encoding completed",
		logging.String(logging.FieldEventType, "encode_complete"),
		logging.String("output_path", result.Path),
		logging.Int64("output_bytes", result.SizeBytes),
		logging.Duration("encode_elapsed", result.Elapsed),
	)
	return result, nil
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("ffmpeg produced an empty file")
	}
	return nil
}

func outputTail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) <= maxOutputTail {
		return text
	}
	return "..." + text[len(text)-maxOutputTail:]
}
