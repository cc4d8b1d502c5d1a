package narration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/liyanghua/xhs-video-tool/internal/language"
	"github.com/liyanghua/xhs-video-tool/internal/textutil"
)

const (
	translateRPCID     = "jQ1olc"
	translateMaxRunes  = 100
	translateUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.2526.106 Safari/537.36"
)

var translateAudioPattern = regexp.MustCompile(`jQ1olc","\[\\"(.*)\\"]`)

// TranslateSynthesizer speaks text through the Google Translate batchexecute
// endpoint. Captions longer than 100 runes are split and the MP3 pieces are
// concatenated.
type TranslateSynthesizer struct {
	client  *http.Client
	baseURL string
}

// TranslateOption customizes a TranslateSynthesizer.
type TranslateOption func(*TranslateSynthesizer)

// WithTLD selects the translate.google.<tld> host.
func WithTLD(tld string) TranslateOption {
	return func(s *TranslateSynthesizer) {
		tld = strings.Trim(strings.TrimSpace(tld), ".")
		if tld != "" {
			s.baseURL = "https://translate.google." + tld
		}
	}
}

// WithBaseURL points the synthesizer at an alternate host.
func WithBaseURL(base string) TranslateOption {
	return func(s *TranslateSynthesizer) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			s.baseURL = base
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) TranslateOption {
	return func(s *TranslateSynthesizer) {
		if client != nil {
			s.client = client
		}
	}
}

// NewTranslateSynthesizer builds the default provider.
func NewTranslateSynthesizer(opts ...TranslateOption) *TranslateSynthesizer {
	s := &TranslateSynthesizer{client: defaultHTTPClient(), baseURL: "https://translate.google.com"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Synthesizer.
func (s *TranslateSynthesizer) Name() string { return "translate" }

// Synthesize implements Synthesizer.
func (s *TranslateSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	tag, err := language.Canonical(lang)
	if err != nil {
		return nil, err
	}
	chunks := textutil.Chunk(text, translateMaxRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("translate tts: empty text")
	}
	var audio bytes.Buffer
	for i, chunk := range chunks {
		piece, err := s.synthesizeChunk(ctx, chunk, tag)
		if err != nil {
			return nil, fmt.Errorf("translate tts chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(piece)
	}
	return audio.Bytes(), nil
}

func (s *TranslateSynthesizer) synthesizeChunk(ctx context.Context, text, lang string) ([]byte, error) {
	body, err := packageTranslateRPC(text, lang)
	if err != nil {
		return nil, err
	}
	endpoint := s.baseURL + "/_/TranslateWebserverUi/data/batchexecute"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	req.Header.Set("Referer", s.baseURL+"/")
	req.Header.Set("User-Agent", translateUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return decodeTranslateAudio(resp.Body)
}

// packageTranslateRPC builds the form body: f.req=<[[["jQ1olc","[text,lang,null,\"null\"]",null,"generic"]]]>&
func packageTranslateRPC(text, lang string) (string, error) {
	inner, err := marshalCompact([]any{text, lang, nil, "null"})
	if err != nil {
		return "", err
	}
	outer, err := marshalCompact([]any{[]any{[]any{translateRPCID, inner, nil, "generic"}}})
	if err != nil {
		return "", err
	}
	return "f.req=" + url.QueryEscape(outer) + "&", nil
}

func marshalCompact(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", fmt.Errorf("encode rpc: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeTranslateAudio(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var audio bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, translateRPCID) {
			continue
		}
		match := translateAudioPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(match[1])
		if err != nil {
			return nil, fmt.Errorf("decode audio payload: %w", err)
		}
		audio.Write(decoded)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if audio.Len() == 0 {
		return nil, fmt.Errorf("response carried no audio")
	}
	return audio.Bytes(), nil
}
