package narration

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"

	"github.com/liyanghua/xhs-video-tool/internal/language"
	"github.com/liyanghua/xhs-video-tool/internal/textutil"
)

// cloudMaxRunes keeps each request well under the 5000 byte input limit for
// three-byte CJK text.
const cloudMaxRunes = 1500

// CloudSynthesizer speaks text through Google Cloud Text-to-Speech.
type CloudSynthesizer struct {
	svc   *texttospeech.Service
	voice string
}

// NewCloudSynthesizer authenticates with the service account in
// credentialsFile, or with application default credentials when it is empty.
func NewCloudSynthesizer(ctx context.Context, credentialsFile, voice string) (*CloudSynthesizer, error) {
	client, err := cloudHTTPClient(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	return NewCloudSynthesizerWithClient(ctx, client, voice)
}

// NewCloudSynthesizerWithClient uses an already-authorized HTTP client.
// Extra options such as option.WithEndpoint are passed to the API client.
func NewCloudSynthesizerWithClient(ctx context.Context, client *http.Client, voice string, opts ...option.ClientOption) (*CloudSynthesizer, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cloud tts: create service: %w", err)
	}
	return &CloudSynthesizer{svc: svc, voice: strings.TrimSpace(voice)}, nil
}

func cloudHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsFile == "" {
		client, err := google.DefaultClient(ctx, texttospeech.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("cloud tts: default credentials: %w", err)
		}
		return client, nil
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("cloud tts: read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, texttospeech.CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("cloud tts: parse credentials: %w", err)
	}
	return conf.Client(ctx), nil
}

// Name implements Synthesizer.
func (s *CloudSynthesizer) Name() string { return "google_cloud" }

// Synthesize implements Synthesizer.
func (s *CloudSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	code, err := language.CloudVoiceCode(lang)
	if err != nil {
		return nil, err
	}
	chunks := textutil.Chunk(text, cloudMaxRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("cloud tts: empty text")
	}
	var audio []byte
	for i, chunk := range chunks {
		req := &texttospeech.SynthesizeSpeechRequest{
			Input:       &texttospeech.SynthesisInput{Text: chunk},
			Voice:       &texttospeech.VoiceSelectionParams{LanguageCode: code, Name: s.voice},
			AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
		}
		resp, err := s.svc.Text.Synthesize(req).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("cloud tts chunk %d/%d: %w", i+1, len(chunks), err)
		}
		decoded, err := base64.StdEncoding.DecodeString(resp.AudioContent)
		if err != nil {
			return nil, fmt.Errorf("cloud tts chunk %d/%d: decode audio: %w", i+1, len(chunks), err)
		}
		audio = append(audio, decoded...)
	}
	return audio, nil
}
