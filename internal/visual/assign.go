package visual

import "github.com/liyanghua/xhs-video-tool/internal/timeline"

// Assignment says which visual source backs a narration slot.
type Assignment struct {
	Narration  timeline.NarrationTrack
	Kind       timeline.VisualKind
	ImageIndex int
	HasVisual  bool
}

// Assign maps narration slots to visual sources: slot 0 is the source video,
// slot i uses image i-1 when one exists and is narration only otherwise.
func Assign(tracks []timeline.NarrationTrack, imageCount int) []Assignment {
	out := make([]Assignment, len(tracks))
	for i, track := range tracks {
		a := Assignment{Narration: track, ImageIndex: -1}
		switch {
		case i == 0:
			a.Kind = timeline.VisualVideo
			a.HasVisual = true
		case i-1 < imageCount:
			a.Kind = timeline.VisualImage
			a.ImageIndex = i - 1
			a.HasVisual = true
		}
		out[i] = a
	}
	return out
}

// ImagesNeeded is how many images a timeline of segmentCount slots can show.
func ImagesNeeded(segmentCount, imageCount int) int {
	return max(0, min(imageCount, segmentCount-1))
}
