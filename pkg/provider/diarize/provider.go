// Package diarize defines the Provider interface for speaker-diarization
// backends.
//
// A diarization provider answers "who spoke when": given an audio file it
// returns a set of [types.SpeakerTurn] values, each asserting that a single
// speaker was active over a contiguous time span. Turns may arrive unordered
// and the same label may appear in multiple non-contiguous turns; the
// alignment engine indexes and orders them itself. Labels are opaque and not
// comparable across runs.
//
// Implementations must be safe for concurrent use.
package diarize

import (
	"context"

	"github.com/echoinstone/echoinstone/pkg/types"
)

// Provider is the abstraction over any diarization backend.
type Provider interface {
	// Diarize analyses the audio file at audioPath and returns the speaker
	// turns found in it. An empty slice means no speech was detected; it is
	// not an error.
	Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error)
}
