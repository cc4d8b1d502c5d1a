package export

import (
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Profile is the output encoding profile.
type Profile struct {
	VideoCodec   string
	H264Profile  string
	Level        string
	PixelFormat  string
	VideoBitrate string
	FrameRate    int
	AudioCodec   string
	Preset       string
	Threads      int
	MovFlags     string
}

// DefaultProfile is the fixed delivery profile.
func DefaultProfile() Profile {
	return Profile{
		VideoCodec:   "libx264",
		H264Profile:  "high",
		Level:        "4.2",
		PixelFormat:  "yuv420p",
		VideoBitrate: "8000k",
		FrameRate:    24,
		AudioCodec:   "aac",
		Preset:       "slow",
		Threads:      4,
		MovFlags:     "+faststart",
	}
}

// KwArgs renders the profile as ffmpeg output options.
func (p Profile) KwArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"c:v":       p.VideoCodec,
		"profile:v": p.H264Profile,
		"level":     p.Level,
		"pix_fmt":   p.PixelFormat,
		"b:v":       p.VideoBitrate,
		"r":         strconv.Itoa(p.FrameRate),
		"c:a":       p.AudioCodec,
		"preset":    p.Preset,
		"threads":   strconv.Itoa(p.Threads),
		"movflags":  p.MovFlags,
		"f":         "mp4",
	}
}
