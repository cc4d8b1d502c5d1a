package history

import (
	"math"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID            string
	ProjectPath   string
	Status        Status
	OutputPath    string
	LogPath       string
	TotalDuration float64
	ErrorKind     string
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Segment is a placed timeline slot recorded for a run.
type Segment struct {
	Index      int
	Name       string
	Start      float64
	Duration   float64
	VisualKind string
}

// boundaryTolerance absorbs float noise when comparing stored boundaries.
const boundaryTolerance = 1e-6

// SameBoundaries reports whether two runs placed identical segments.
func SameBoundaries(a, b []Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Index != b[i].Index {
			return false
		}
		if math.Abs(a[i].Start-b[i].Start) > boundaryTolerance || math.Abs(a[i].Duration-b[i].Duration) > boundaryTolerance {
			return false
		}
	}
	return true
}
