// Package pyannote provides a diarization Provider that calls a
// pyannote.audio model served over HTTP.
//
// The expected service is a small wrapper around pyannote's speaker-diarization
// pipeline exposing POST /diarize as a multipart file upload and responding
// with JSON:
//
//	{"segments": [{"start": 0.0, "end": 4.2, "speaker": "SPEAKER_00"}, ...],
//	 "num_speakers": 2}
package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/echoinstone/echoinstone/pkg/provider/diarize"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// Compile-time assertion that Provider satisfies diarize.Provider.
var _ diarize.Provider = (*Provider)(nil)

// Provider implements diarize.Provider against a pyannote HTTP service.
type Provider struct {
	baseURL string
	client  *http.Client
}

// Option is a functional option for Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client. Diarization of long audio
// can take minutes; the default client timeout is 30 minutes.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// New constructs a Provider for the pyannote service at baseURL
// (e.g. "http://diarizer:8000").
func New(baseURL string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("pyannote: baseURL must not be empty")
	}
	p := &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Minute},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// diarizeResponse is the service's JSON response shape.
type diarizeResponse struct {
	Segments    []types.SpeakerTurn `json:"segments"`
	NumSpeakers int                 `json:"num_speakers"`
}

// Diarize uploads the audio file at audioPath and returns the speaker turns
// the service found.
func (p *Provider) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("pyannote: create form file: %w", err)
	}
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("pyannote: open audio %q: %w", audioPath, err)
	}
	defer f.Close()
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("pyannote: copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("pyannote: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/diarize", &body)
	if err != nil {
		return nil, fmt.Errorf("pyannote: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pyannote: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		const maxErr = 4096
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
		return nil, fmt.Errorf("pyannote: diarize %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pyannote: decode response: %w", err)
	}

	// Drop degenerate turns so downstream overlap maths never sees a span
	// with end <= start.
	turns := out.Segments[:0]
	for _, turn := range out.Segments {
		if turn.End > turn.Start && turn.Speaker != "" {
			turns = append(turns, turn)
		}
	}
	return turns, nil
}
