// Package whisper provides a transcription Provider backed by the whisper.cpp
// CGO bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/wav"

	"github.com/echoinstone/echoinstone/pkg/provider/transcribe"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

const defaultLanguage = "auto"

// Provider implements transcribe.Provider using whisper.cpp in-process. The
// model is loaded once at construction and shared across all Transcribe
// calls; each call creates its own whisper context, so concurrent calls do
// not interfere.
type Provider struct {
	model    whisperlib.Model
	language string
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the language code passed to whisper (e.g. "en", "fr").
// Defaults to "auto" (whisper's built-in language detection).
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// New creates a Provider that loads the whisper.cpp model from the given
// file path. The caller must call Close when the provider is no longer
// needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Provider{model: model, language: defaultLanguage}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe runs whisper.cpp inference over the WAV file at audioPath and
// returns the transcript with one chunk per whisper segment. The file must
// be 16 kHz mono 16-bit PCM, as produced by the media package.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (*types.TranscriptResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	samples, err := readWAV(audioPath)
	if err != nil {
		return nil, err
	}

	// Each whisper context is NOT thread-safe, but the model can be shared,
	// so a fresh context per call keeps Transcribe concurrency-safe.
	wctx, err := p.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("whisper: set language %q: %w", p.language, err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	result := &types.TranscriptResult{Language: wctx.DetectedLanguage()}
	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}

		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		result.Chunks = append(result.Chunks, types.TranscriptChunk{
			Start: segment.Start.Seconds(),
			End:   types.Float64Ptr(segment.End.Seconds()),
			Text:  text,
		})
		if segment.End > result.Duration {
			result.Duration = segment.End
		}
	}
	result.Text = strings.Join(parts, " ")

	return result, nil
}

// readWAV decodes the WAV file at path into normalised float32 mono samples
// suitable for whisper.cpp.
func readWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: open audio %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("whisper: %q is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("whisper: decode %q: %w", path, err)
	}
	return intToFloat32(buf.Data, int(dec.BitDepth)), nil
}
