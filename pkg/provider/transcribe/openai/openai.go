// Package openai provides a transcription Provider backed by the OpenAI
// audio/transcriptions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/echoinstone/echoinstone/pkg/provider/transcribe"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

// DefaultModel is the transcription model used when none is configured.
// whisper-1 is the only OpenAI model that supports verbose JSON output with
// segment timestamps, which the alignment engine requires.
const DefaultModel = "whisper-1"

// Provider implements transcribe.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// OpenAI-compatible servers and for tests.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout. Transcription of long audio
// can take minutes; the default client timeout is 10 minutes.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI transcription Provider. An empty apiKey defers
// to the SDK's OPENAI_API_KEY environment lookup.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{timeout: 10 * time.Minute}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}),
	}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// verboseTranscription is the verbose_json response shape. The SDK's typed
// response only carries the plain text, so the segment timestamps are
// decoded from the raw response body.
type verboseTranscription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file at audioPath and returns the transcript
// with one chunk per returned segment.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (*types.TranscriptResult, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("openai: open audio %q: %w", audioPath, err)
	}
	defer f.Close()

	resp, err := p.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		Model:          oai.AudioModel(p.model),
		File:           f,
		ResponseFormat: oai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: transcribe %q: %w", audioPath, err)
	}

	var verbose verboseTranscription
	if err := json.Unmarshal([]byte(resp.RawJSON()), &verbose); err != nil {
		return nil, fmt.Errorf("openai: decode verbose transcription: %w", err)
	}

	result := &types.TranscriptResult{
		Text:     strings.TrimSpace(verbose.Text),
		Language: verbose.Language,
		Duration: time.Duration(verbose.Duration * float64(time.Second)),
	}
	for _, seg := range verbose.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Chunks = append(result.Chunks, types.TranscriptChunk{
			Start: seg.Start,
			End:   types.Float64Ptr(seg.End),
			Text:  text,
		})
	}

	return result, nil
}
