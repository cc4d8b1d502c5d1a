package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/liyanghua/xhs-video-tool/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a fresh temp directory with every
// path derived from it. Options run after the defaults are applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		WorkDir:   base,
		InputDir:  filepath.Join(base, "input"),
		OutputDir: filepath.Join(base, "output"),
		LogDir:    filepath.Join(base, "logs"),
		AudioDir:  filepath.Join(base, "audio"),
		TempDir:   filepath.Join(base, "temp"),
		DebugDir:  filepath.Join(base, "debug"),
		HistoryDB: filepath.Join(base, "history.db"),
	}
	cfg.Logging.RetentionDays = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCanvas overrides the output canvas.
func WithCanvas(width, height int) ConfigOption {
	return func(c *config.Config) {
		c.Canvas.Width = width
		c.Canvas.Height = height
	}
}

// WithBackground sets the background music path.
func WithBackground(path string) ConfigOption {
	return func(c *config.Config) {
		c.Background.Path = path
	}
}

// WithIntroClip enables the debug intro render.
func WithIntroClip() ConfigOption {
	return func(c *config.Config) {
		c.Debug.WriteIntroClip = true
	}
}
