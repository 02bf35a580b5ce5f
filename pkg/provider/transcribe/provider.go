// Package transcribe defines the Provider interface for transcription
// backends.
//
// A transcription provider turns an audio file into a [types.TranscriptResult]:
// the full transcript text plus an ordered list of timestamped chunks. The
// chunk timestamps are what the alignment engine consumes; providers that
// cannot produce per-chunk timestamps are not usable for speaker attribution
// and should not implement this interface.
//
// Implementations must be safe for concurrent use: the orchestrator may
// transcribe several audio sources in parallel.
package transcribe

import (
	"context"

	"github.com/echoinstone/echoinstone/pkg/types"
)

// Provider is the abstraction over any transcription backend.
type Provider interface {
	// Transcribe transcribes the audio file at audioPath and returns the
	// transcript with per-chunk timestamps. Chunks are ordered by start time.
	//
	// The audio format each provider accepts is implementation-specific;
	// callers normally feed 16 kHz mono WAV as produced by the media package.
	// Returns a non-nil result on success.
	Transcribe(ctx context.Context, audioPath string) (*types.TranscriptResult, error)
}
