package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Runner executes ffprobe and returns its standard output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Prober measures media files.
type Prober interface {
	Probe(ctx context.Context, path string) (timeline.MediaInfo, error)
}

// Client is the ffprobe-backed Prober.
type Client struct {
	binary string
	run    Runner
}

// Option customizes a Client.
type Option func(*Client)

// WithRunner overrides the command execution, mainly for tests.
func WithRunner(run Runner) Option {
	return func(c *Client) {
		if run != nil {
			c.run = run
		}
	}
}

// New builds a Client using the given ffprobe binary.
func New(binary string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	c := &Client{binary: binary, run: defaultRunner}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe inspects path and returns its media metrics. A file without a usable
// duration is an error.
func (c *Client) Probe(ctx context.Context, path string) (timeline.MediaInfo, error) {
	result, err := c.Inspect(ctx, path)
	if err != nil {
		return timeline.MediaInfo{}, err
	}
	info := result.MediaInfo()
	if info.Duration <= 0 {
		return timeline.MediaInfo{}, fmt.Errorf("ffprobe %s: no usable duration", path)
	}
	return info, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (c *Client) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := c.run(ctx, c.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse %s: %w", path, err)
	}
	return result, nil
}

func defaultRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// MediaInfo summarizes the result. Duration prefers the container value and
// falls back to the longest stream.
func (r Result) MediaInfo() timeline.MediaInfo {
	info := timeline.MediaInfo{Duration: r.DurationSeconds()}
	if math.IsNaN(info.Duration) || info.Duration <= 0 {
		info.Duration = 0
		for _, stream := range r.Streams {
			if d := parseFloat(stream.Duration); !math.IsNaN(d) && d > info.Duration {
				info.Duration = d
			}
		}
	}
	if video, ok := r.firstStream("video"); ok {
		info.Width = video.Width
		info.Height = video.Height
		info.FrameRate = parseRate(video.AvgFrameRate)
		if info.FrameRate == 0 {
			info.FrameRate = parseRate(video.RFrameRate)
		}
	}
	info.HasAudio = r.AudioStreamCount() > 0
	return info
}

func (r Result) firstStream(codecType string) (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, 0 when absent
// and NaN when unparseable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

// parseRate reads ffprobe rationals such as "24/1" or "30000/1001".
func parseRate(value string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(value), "/")
	n := parseFloat(num)
	if math.IsNaN(n) {
		return 0
	}
	if !found {
		return n
	}
	d := parseFloat(den)
	if math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}
