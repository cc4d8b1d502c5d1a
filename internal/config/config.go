package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the working directory layout. Empty entries are derived from
// WorkDir during normalization.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	AudioDir  string `toml:"audio_dir"`
	TempDir   string `toml:"temp_dir"`
	DebugDir  string `toml:"debug_dir"`
	HistoryDB string `toml:"history_db"`
}

// Canvas describes the fixed output frame.
type Canvas struct {
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	FrameRate    int    `toml:"frame_rate"`
	VideoBitrate string `toml:"video_bitrate"`
}

// Narration selects and configures the text-to-speech provider.
type Narration struct {
	Provider        string `toml:"provider"`
	Language        string `toml:"language"`
	TranslateTLD    string `toml:"translate_tld"`
	CredentialsFile string `toml:"credentials_file"`
	Voice           string `toml:"voice"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Background points at the optional music bed.
type Background struct {
	Path string `toml:"path"`
}

// FFmpeg contains external tool settings.
type FFmpeg struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Debug toggles diagnostic artifacts.
type Debug struct {
	WriteIntroClip bool `toml:"write_intro_clip"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Publish configures the optional S3 upload of finished renders.
type Publish struct {
	Enabled      bool   `toml:"enabled"`
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Prefix       string `toml:"prefix"`
	Profile      string `toml:"profile"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// Config encapsulates all configuration values for xhsvideo.
//
// Configuration sections by subsystem:
//   - Paths: working directory layout and the history database
//   - Canvas: output resolution, frame rate and bitrate
//   - Narration: text-to-speech provider and language
//   - Background: optional background music
//   - FFmpeg: binaries and encode timeout
//   - Debug: diagnostic renders
//   - Logging: log format, level, and retention
//   - Publish: S3 upload of the final artifact
type Config struct {
	Paths      Paths      `toml:"paths"`
	Canvas     Canvas     `toml:"canvas"`
	Narration  Narration  `toml:"narration"`
	Background Background `toml:"background"`
	FFmpeg     FFmpeg     `toml:"ffmpeg"`
	Debug      Debug      `toml:"debug"`
	Logging    Logging    `toml:"logging"`
	Publish    Publish    `toml:"publish"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(localConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the long-lived directories a render writes into.
// Per-run subdirectories are created by the pipeline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.AudioDir, c.Paths.TempDir, c.Paths.DebugDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.HistoryDB); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	return nil
}

// CanvasSize returns the configured output resolution.
func (c *Config) CanvasSize() timeline.Canvas {
	return timeline.Canvas{Width: c.Canvas.Width, Height: c.Canvas.Height}
}

// NarrationTimeout bounds a single caption synthesis.
func (c *Config) NarrationTimeout() time.Duration {
	return time.Duration(c.Narration.TimeoutSeconds) * time.Second
}

// FFmpegTimeout bounds every ffmpeg or ffprobe invocation of a run.
func (c *Config) FFmpegTimeout() time.Duration {
	return time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second
}

// BackgroundPath returns the configured background music path, or "" when
// none is set.
func (c *Config) BackgroundPath() string {
	return strings.TrimSpace(c.Background.Path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	return writeSample(path, sampleConfig, "config")
}

func writeSample(path, content, kind string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", kind, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write sample %s: %w", kind, err)
	}
	return nil
}
