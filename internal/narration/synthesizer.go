package narration

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/liyanghua/xhs-video-tool/internal/config"
	"github.com/liyanghua/xhs-video-tool/internal/language"
)

// Synthesizer converts caption text into MP3 audio for the given language tag.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// NewSynthesizer builds the provider selected by cfg.Provider.
func NewSynthesizer(ctx context.Context, cfg config.Narration) (Synthesizer, error) {
	if _, err := language.Canonical(cfg.Language); err != nil {
		return nil, fmt.Errorf("narration.language: %w", err)
	}
	switch cfg.Provider {
	case config.ProviderTranslate, "":
		return NewTranslateSynthesizer(WithTLD(cfg.TranslateTLD)), nil
	case config.ProviderGoogleCloud:
		return NewCloudSynthesizer(ctx, cfg.CredentialsFile, cfg.Voice)
	default:
		return nil, fmt.Errorf("narration.provider: unsupported value %q", cfg.Provider)
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
