package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var bitratePattern = regexp.MustCompile(`^[1-9][0-9]*[km]?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if err := c.validateNarration(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCanvas() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas.width and canvas.height must be positive (got %dx%d)", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.Width%2 != 0 || c.Canvas.Height%2 != 0 {
		return errors.New("canvas.width and canvas.height must be even for yuv420p output")
	}
	if c.Canvas.FrameRate <= 0 {
		return errors.New("canvas.frame_rate must be positive")
	}
	if !bitratePattern.MatchString(c.Canvas.VideoBitrate) {
		return fmt.Errorf("canvas.video_bitrate %q must look like 8000k", c.Canvas.VideoBitrate)
	}
	return nil
}

func (c *Config) validateNarration() error {
	switch c.Narration.Provider {
	case ProviderTranslate, ProviderGoogleCloud:
	default:
		return fmt.Errorf("narration.provider must be %q or %q (got %q)", ProviderTranslate, ProviderGoogleCloud, c.Narration.Provider)
	}
	if c.Narration.TimeoutSeconds < 0 {
		return errors.New("narration.timeout_seconds must be non-negative")
	}
	if strings.ContainsAny(c.Narration.TranslateTLD, "/: ") {
		return fmt.Errorf("narration.translate_tld %q must be a bare domain suffix such as com or com.hk", c.Narration.TranslateTLD)
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.TimeoutSeconds < 0 {
		return errors.New("ffmpeg.timeout_seconds must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be non-negative")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.Bucket == "" {
		return errors.New("publish.bucket must be set when publish.enabled is true")
	}
	if c.Publish.Region == "" {
		return errors.New("publish.region must be set when publish.enabled is true (or export AWS_REGION)")
	}
	return nil
}
