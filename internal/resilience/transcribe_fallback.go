package resilience

import (
	"context"

	"github.com/echoinstone/echoinstone/pkg/provider/transcribe"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// TranscribeFallback implements [transcribe.Provider] with automatic failover
// across multiple transcription backends, e.g. a local whisper.cpp model with
// the OpenAI API as backup. Each backend has its own circuit breaker.
type TranscribeFallback struct {
	group *FallbackGroup[transcribe.Provider]
}

// Compile-time interface assertion.
var _ transcribe.Provider = (*TranscribeFallback)(nil)

// NewTranscribeFallback creates a [TranscribeFallback] with primary as the
// preferred backend.
func NewTranscribeFallback(primary transcribe.Provider, primaryName string, cfg FallbackConfig) *TranscribeFallback {
	return &TranscribeFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional transcription provider as a fallback.
func (f *TranscribeFallback) AddFallback(name string, provider transcribe.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe runs the transcription against the first healthy provider. If
// the primary fails or its breaker is open, subsequent fallbacks are tried.
func (f *TranscribeFallback) Transcribe(ctx context.Context, audioPath string) (*types.TranscriptResult, error) {
	return ExecuteWithResult(f.group, func(p transcribe.Provider) (*types.TranscriptResult, error) {
		return p.Transcribe(ctx, audioPath)
	})
}
