package visual

import (
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

// SegmentStream builds the canvas-sized stream for one track, shifted so its
// first frame lands at the track start.
func SegmentStream(track timeline.VisualTrack) *ffmpeg.Stream {
	var stream *ffmpeg.Stream
	switch track.Kind {
	case timeline.VisualImage:
		stream = ffmpeg.Input(track.SourcePath, ffmpeg.KwArgs{
			"loop":      "1",
			"framerate": strconv.Itoa(track.FrameRate),
			"t":         timeline.FormatSeconds(track.Duration),
		}).Video()
		stream = fitStream(stream, exactFit(track.Canvas), track.Canvas)
	default:
		stream = ffmpeg.Input(track.SourcePath, ffmpeg.KwArgs{
			"ss": timeline.FormatSeconds(track.SourceStart),
			"t":  timeline.FormatSeconds(track.Duration),
		}).Video()
		stream = fitStream(stream, track.Fit, track.Canvas)
	}
	return stream.
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{strconv.Itoa(track.FrameRate)}).
		Filter("setpts", ffmpeg.Args{fmt.Sprintf("PTS-STARTPTS+%s/TB", timeline.FormatSeconds(track.Start))})
}

// fitStream scales to the fitted size, pads any short axis with black and
// crops any overflowing axis so the result is exactly the canvas.
func fitStream(stream *ffmpeg.Stream, fit timeline.Fit, canvas timeline.Canvas) *ffmpeg.Stream {
	stream = stream.Filter("scale", ffmpeg.Args{strconv.Itoa(fit.ScaledWidth), strconv.Itoa(fit.ScaledHeight)})
	if fit.NeedsPad(canvas) {
		stream = stream.Filter("pad", ffmpeg.Args{
			strconv.Itoa(max(fit.ScaledWidth, canvas.Width)),
			strconv.Itoa(max(fit.ScaledHeight, canvas.Height)),
			strconv.Itoa(max(fit.OffsetX, 0)),
			strconv.Itoa(max(fit.OffsetY, 0)),
		}, ffmpeg.KwArgs{"color": "black"})
	}
	if fit.NeedsCrop(canvas) {
		stream = stream.Filter("crop", ffmpeg.Args{
			strconv.Itoa(canvas.Width),
			strconv.Itoa(canvas.Height),
			strconv.Itoa(max(-fit.OffsetX, 0)),
			strconv.Itoa(max(-fit.OffsetY, 0)),
		})
	}
	return stream
}

// BaseSource is the lavfi source for the black canvas under every track.
func BaseSource(canvas timeline.Canvas, frameRate int, total float64) string {
	return fmt.Sprintf("color=c=black:s=%s:r=%d:d=%s", canvas, frameRate, timeline.FormatSeconds(total))
}

// Composite overlays every present visual onto a black canvas lasting total
// seconds. Each overlay is enabled only inside its narration window and
// passes the base through once its clip ends.
func Composite(slots []timeline.Slot, canvas timeline.Canvas, frameRate int, total float64) *ffmpeg.Stream {
	out := ffmpeg.Input(BaseSource(canvas, frameRate, total), ffmpeg.KwArgs{"f": "lavfi"}).Video()
	for _, slot := range slots {
		if !slot.HasVisual {
			continue
		}
		track := slot.Visual
		out = ffmpeg.Filter([]*ffmpeg.Stream{out, SegmentStream(track)}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
			"x":          "0",
			"y":          "0",
			"enable":     fmt.Sprintf("between(t,%s,%s)", timeline.FormatSeconds(track.Start), timeline.FormatSeconds(track.End())),
			"eof_action": "pass",
		})
	}
	return out
}

// IntroStream returns the first slot's visual rebased to start at zero, used
// for the standalone debug render.
func IntroStream(slots []timeline.Slot) (*ffmpeg.Stream, bool) {
	if len(slots) == 0 || !slots[0].HasVisual {
		return nil, false
	}
	track := slots[0].Visual
	track.Start = 0
	return SegmentStream(track), true
}
