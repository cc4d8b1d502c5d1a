package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

//go:embed sample_project.toml
var sampleProject string

// DefaultProjectFile is the project file name looked up in the working directory.
const DefaultProjectFile = "project.toml"

// SegmentSpec is one caption entry of a project file.
type SegmentSpec struct {
	Name           string  `toml:"name"`
	Text           string  `toml:"text"`
	Start          float64 `toml:"start"`
	TargetDuration float64 `toml:"target_duration"`
}

// Project describes the inputs of one render. Relative paths are resolved
// against the directory holding the project file.
type Project struct {
	Path       string        `toml:"-"`
	VideoDir   string        `toml:"video_dir"`
	Images     []string      `toml:"images"`
	Background string        `toml:"background"`
	Output     string        `toml:"output"`
	Segments   []SegmentSpec `toml:"segments"`
}

// LoadProject parses and validates a project file.
func LoadProject(path string) (*Project, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var project Project
	if err := toml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", expanded, err)
	}
	project.Path = expanded
	project.resolvePaths(filepath.Dir(expanded))
	if err := project.Validate(); err != nil {
		return nil, err
	}
	return &project, nil
}

func (p *Project) resolvePaths(base string) {
	resolve := func(value string) string {
		value = strings.TrimSpace(value)
		if value == "" || filepath.IsAbs(value) || strings.HasPrefix(value, "~") {
			if expanded, err := expandPath(value); err == nil {
				return expanded
			}
			return value
		}
		return filepath.Join(base, value)
	}
	p.VideoDir = resolve(p.VideoDir)
	p.Background = resolve(p.Background)
	for i, image := range p.Images {
		p.Images[i] = resolve(image)
	}
	p.Output = strings.TrimSpace(p.Output)
	for i := range p.Segments {
		p.Segments[i].Name = strings.TrimSpace(p.Segments[i].Name)
		p.Segments[i].Text = strings.TrimSpace(p.Segments[i].Text)
	}
}

// Validate checks the project for missing fields and duplicate segment names.
// An empty segment list is left to the narration builder, which reports it
// as a configuration error.
func (p *Project) Validate() error {
	if p.VideoDir == "" {
		return errors.New("project.video_dir must be set")
	}
	if p.Output != "" && (strings.ContainsRune(p.Output, os.PathSeparator) || filepath.Ext(p.Output) != ".mp4") {
		return fmt.Errorf("project.output %q must be a bare .mp4 file name", p.Output)
	}
	seen := make(map[string]int, len(p.Segments))
	for i, seg := range p.Segments {
		if seg.Name == "" {
			return fmt.Errorf("segments[%d].name must be set", i)
		}
		if seg.Text == "" {
			return fmt.Errorf("segments[%d] (%s): text must be set", i, seg.Name)
		}
		if prev, ok := seen[seg.Name]; ok {
			return fmt.Errorf("segments[%d]: name %q duplicates segments[%d]", i, seg.Name, prev)
		}
		seen[seg.Name] = i
	}
	for i, image := range p.Images {
		if image == "" {
			return fmt.Errorf("images[%d] must not be empty", i)
		}
	}
	return nil
}

// TimelineSegments converts the project captions into timeline segments.
func (p *Project) TimelineSegments() []timeline.Segment {
	segments := make([]timeline.Segment, len(p.Segments))
	for i, seg := range p.Segments {
		segments[i] = timeline.Segment{
			Name:           seg.Name,
			Text:           seg.Text,
			NominalStart:   seg.Start,
			TargetDuration: seg.TargetDuration,
		}
	}
	return segments
}

// OutputName returns the final artifact file name.
func (p *Project) OutputName() string {
	if p.Output != "" {
		return p.Output
	}
	return "final_video.mp4"
}

// CreateSampleProject writes the sample project file to path.
func CreateSampleProject(path string) error {
	return writeSample(path, sampleProject, "project")
}
