package logging

import (
	"strconv"

	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

// MediaAttrs flattens probed media metadata into log attributes.
func MediaAttrs(info timeline.MediaInfo) []Attr {
	attrs := []Attr{Seconds("media_duration", info.Duration)}
	if info.Width > 0 && info.Height > 0 {
		attrs = append(attrs, String("media_resolution", strconv.Itoa(info.Width)+"x"+strconv.Itoa(info.Height)))
	}
	if info.FrameRate > 0 {
		attrs = append(attrs, Float64("media_frame_rate", info.FrameRate))
	}
	attrs = append(attrs, Bool("media_has_audio", info.HasAudio))
	return attrs
}
