package timeline

import (
	"fmt"
	"math"
	"strconv"
)

// Segment is one configured timeline unit. NominalStart and TargetDuration
// are advisory and must not be used for placement.
type Segment struct {
	Name           string
	Text           string
	NominalStart   float64
	TargetDuration float64
}

// Canvas is the fixed output resolution every visual track conforms to.
type Canvas struct {
	Width  int
	Height int
}

// String renders the canvas as WxH.
func (c Canvas) String() string {
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}

// Valid reports whether both dimensions are positive.
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0
}

// MediaInfo captures the asset metrics each stage reports to the log.
type MediaInfo struct {
	Duration  float64
	Width     int
	Height    int
	FrameRate float64
	HasAudio  bool
}

// NarrationTrack is a synthesized caption placed on the timeline.
type NarrationTrack struct {
	Index     int
	Segment   string
	Text      string
	AudioPath string
	Info      MediaInfo
	Start     float64
	Duration  float64
}

// End returns the track end time in seconds.
func (t NarrationTrack) End() float64 {
	return t.Start + t.Duration
}

// VisualKind distinguishes video-derived tracks from still images.
type VisualKind string

const (
	VisualVideo VisualKind = "video"
	VisualImage VisualKind = "image"
)

// Fit describes how a source frame is scaled and positioned on the canvas.
// Negative offsets mean the scaled frame overflows and is center-cropped.
type Fit struct {
	Scale        float64
	ScaledWidth  int
	ScaledHeight int
	OffsetX      int
	OffsetY      int
}

// NeedsPad reports whether the scaled frame is smaller than the canvas on any axis.
func (f Fit) NeedsPad(c Canvas) bool {
	return f.ScaledWidth < c.Width || f.ScaledHeight < c.Height
}

// NeedsCrop reports whether the scaled frame is larger than the canvas on any axis.
func (f Fit) NeedsCrop(c Canvas) bool {
	return f.ScaledWidth > c.Width || f.ScaledHeight > c.Height
}

// VisualTrack is a canvas-sized clip anchored to a narration entry.
type VisualTrack struct {
	Index       int
	Segment     string
	Kind        VisualKind
	SourcePath  string
	SourceStart float64
	Canvas      Canvas
	FrameRate   int
	Start       float64
	Duration    float64
	Fit         Fit
}

// End returns the track end time in seconds.
func (t VisualTrack) End() float64 {
	return t.Start + t.Duration
}

// Slot pairs a narration entry with its visual, which may be absent.
type Slot struct {
	Narration NarrationTrack
	Visual    VisualTrack
	HasVisual bool
}

// BackgroundTrack is the looped, trimmed, attenuated music bed.
type BackgroundTrack struct {
	Path             string
	OriginalDuration float64
	RequiredDuration float64
	Repeats          int
	Attenuation      float64
}

// LoopedDuration is the raw duration after concatenating Repeats copies.
func (b BackgroundTrack) LoopedDuration() float64 {
	return b.OriginalDuration * float64(b.Repeats)
}

// Duration is the processed duration, which always equals RequiredDuration.
func (b BackgroundTrack) Duration() float64 {
	return math.Min(b.LoopedDuration(), b.RequiredDuration)
}

// Offsets returns the start offset of each entry as the running sum of all
// prior durations.
func Offsets(durations []float64) []float64 {
	offsets := make([]float64, len(durations))
	current := 0.0
	for i, d := range durations {
		offsets[i] = current
		current += d
	}
	return offsets
}

// TotalDuration is the maximum end time over all narration tracks.
func TotalDuration(tracks []NarrationTrack) float64 {
	total := 0.0
	for _, t := range tracks {
		if end := t.End(); end > total {
			total = end
		}
	}
	return total
}

// Place assigns cumulative start offsets to tracks in slice order.
func Place(tracks []NarrationTrack) []NarrationTrack {
	durations := make([]float64, len(tracks))
	for i, t := range tracks {
		durations[i] = t.Duration
	}
	offsets := Offsets(durations)
	placed := make([]NarrationTrack, len(tracks))
	for i, t := range tracks {
		t.Start = offsets[i]
		placed[i] = t
	}
	return placed
}

// FormatSeconds renders a timestamp with millisecond precision for filter
// graphs and command lines.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
