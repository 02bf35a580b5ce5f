package resilience

import (
	"context"

	"github.com/echoinstone/echoinstone/pkg/provider/diarize"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// DiarizeFallback implements [diarize.Provider] with automatic failover
// across multiple diarization backends. The usual pairing is a pyannote
// service as primary with the energy-based heuristic as last resort, so a
// diarization outage degrades speaker labels instead of failing runs.
type DiarizeFallback struct {
	group *FallbackGroup[diarize.Provider]
}

// Compile-time interface assertion.
var _ diarize.Provider = (*DiarizeFallback)(nil)

// NewDiarizeFallback creates a [DiarizeFallback] with primary as the
// preferred backend.
func NewDiarizeFallback(primary diarize.Provider, primaryName string, cfg FallbackConfig) *DiarizeFallback {
	return &DiarizeFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional diarization provider as a fallback.
func (f *DiarizeFallback) AddFallback(name string, provider diarize.Provider) {
	f.group.AddFallback(name, provider)
}

// Diarize runs diarization against the first healthy provider.
func (f *DiarizeFallback) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error) {
	return ExecuteWithResult(f.group, func(p diarize.Provider) ([]types.SpeakerTurn, error) {
		return p.Diarize(ctx, audioPath)
	})
}
