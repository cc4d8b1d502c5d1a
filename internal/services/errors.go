package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrSynthesis     = errors.New("synthesis error")
	ErrAsset         = errors.New("asset error")
	ErrEncoding      = errors.New("encoding error")
	ErrExternalTool  = errors.New("external tool error")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Category returns a short label for the marker carried by err.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSynthesis):
		return "synthesis"
	case errors.Is(err, ErrAsset):
		return "asset"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "external_tool"
	}
}

// Hint returns operator guidance for the failure class.
func Hint(err error) string {
	switch Category(err) {
	case "configuration":
		return "check config.toml and the project file"
	case "synthesis":
		return "verify network access and narration provider credentials"
	case "asset":
		return "verify the input video, images, and background music are present and readable"
	case "encoding":
		return "inspect the ffmpeg output in the run log"
	case "timeout":
		return "raise ffmpeg.timeout_seconds or narration.timeout_seconds"
	case "":
		return ""
	default:
		return "check that ffmpeg and ffprobe are installed (xhsvideo doctor)"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
