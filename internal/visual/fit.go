package visual

import (
	"math"

	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

// CoverFit scales a srcW x srcH frame uniformly so that it covers the canvas.
// Offsets center the scaled frame; a negative offset is the amount cropped
// from that side.
func CoverFit(srcW, srcH int, canvas timeline.Canvas) timeline.Fit {
	if srcW <= 0 || srcH <= 0 || !canvas.Valid() {
		return timeline.Fit{}
	}
	scale := math.Max(float64(canvas.Width)/float64(srcW), float64(canvas.Height)/float64(srcH))
	sw := int(math.Round(float64(srcW) * scale))
	sh := int(math.Round(float64(srcH) * scale))
	return timeline.Fit{
		Scale:        scale,
		ScaledWidth:  sw,
		ScaledHeight: sh,
		OffsetX:      floorHalf(canvas.Width - sw),
		OffsetY:      floorHalf(canvas.Height - sh),
	}
}

// floorHalf divides by two rounding toward negative infinity.
func floorHalf(v int) int {
	if v >= 0 {
		return v / 2
	}
	return -((-v + 1) / 2)
}

// exactFit describes a source already resized to the canvas.
func exactFit(canvas timeline.Canvas) timeline.Fit {
	return timeline.Fit{Scale: 1, ScaledWidth: canvas.Width, ScaledHeight: canvas.Height}
}
