package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCanvas()
	if err := c.normalizeNarration(); err != nil {
		return err
	}
	if err := c.normalizeBackground(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeLogging()
	c.normalizePublish()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	derived := []struct {
		key   string
		value *string
		name  string
	}{
		{"paths.input_dir", &c.Paths.InputDir, "input"},
		{"paths.output_dir", &c.Paths.OutputDir, "output"},
		{"paths.log_dir", &c.Paths.LogDir, "logs"},
		{"paths.audio_dir", &c.Paths.AudioDir, "audio"},
		{"paths.temp_dir", &c.Paths.TempDir, "temp"},
		{"paths.debug_dir", &c.Paths.DebugDir, "debug"},
		{"paths.history_db", &c.Paths.HistoryDB, "history.db"},
	}
	for _, d := range derived {
		if err := c.resolveUnderWorkDir(d.value, d.name); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}
	return nil
}

// resolveUnderWorkDir fills an empty path with work_dir/name and anchors
// relative paths at work_dir.
func (c *Config) resolveUnderWorkDir(value *string, name string) error {
	trimmed := strings.TrimSpace(*value)
	switch {
	case trimmed == "":
		trimmed = filepath.Join(c.Paths.WorkDir, name)
	case !strings.HasPrefix(trimmed, "~") && !filepath.IsAbs(trimmed):
		trimmed = filepath.Join(c.Paths.WorkDir, trimmed)
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return err
	}
	*value = expanded
	return nil
}

func (c *Config) normalizeCanvas() {
	if c.Canvas.FrameRate == 0 {
		c.Canvas.FrameRate = defaultFrameRate
	}
	c.Canvas.VideoBitrate = strings.ToLower(strings.TrimSpace(c.Canvas.VideoBitrate))
	if c.Canvas.VideoBitrate == "" {
		c.Canvas.VideoBitrate = defaultVideoBitrate
	}
}

func (c *Config) normalizeNarration() error {
	c.Narration.Provider = strings.ToLower(strings.TrimSpace(c.Narration.Provider))
	if c.Narration.Provider == "" {
		c.Narration.Provider = defaultProvider
	}
	c.Narration.Language = strings.TrimSpace(c.Narration.Language)
	if c.Narration.Language == "" {
		c.Narration.Language = defaultLanguage
	}
	c.Narration.TranslateTLD = strings.Trim(strings.TrimSpace(c.Narration.TranslateTLD), ".")
	if c.Narration.TranslateTLD == "" {
		c.Narration.TranslateTLD = defaultTranslateTLD
	}
	c.Narration.Voice = strings.TrimSpace(c.Narration.Voice)
	if strings.TrimSpace(c.Narration.CredentialsFile) == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Narration.CredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.Narration.CredentialsFile != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Narration.CredentialsFile))
		if err != nil {
			return fmt.Errorf("narration.credentials_file: %w", err)
		}
		c.Narration.CredentialsFile = expanded
	}
	if c.Narration.TimeoutSeconds == 0 {
		c.Narration.TimeoutSeconds = defaultNarrationTimeout
	}
	return nil
}

func (c *Config) normalizeBackground() error {
	if strings.TrimSpace(c.Background.Path) == "" {
		if value, ok := os.LookupEnv("XHSVIDEO_BGM"); ok {
			c.Background.Path = value
		}
	}
	if strings.TrimSpace(c.Background.Path) == "" {
		c.Background.Path = ""
		return nil
	}
	if err := c.resolveUnderWorkDir(&c.Background.Path, ""); err != nil {
		return fmt.Errorf("background.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	if c.FFmpeg.FFmpegBinary == "" {
		c.FFmpeg.FFmpegBinary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if c.FFmpeg.TimeoutSeconds == 0 {
		c.FFmpeg.TimeoutSeconds = defaultFFmpegTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizePublish() {
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	c.Publish.Region = strings.TrimSpace(c.Publish.Region)
	c.Publish.Profile = strings.TrimSpace(c.Publish.Profile)
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	if c.Publish.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.Publish.Region = strings.TrimSpace(value)
		}
	}
}
