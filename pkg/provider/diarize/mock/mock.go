// Package mock provides a test double for the diarize.Provider interface.
//
// Use Provider in unit tests to feed controlled speaker timelines into the
// orchestrator without a live diarization backend.
package mock

import (
	"context"
	"sync"

	"github.com/echoinstone/echoinstone/pkg/provider/diarize"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// Compile-time assertion that Provider satisfies diarize.Provider.
var _ diarize.Provider = (*Provider)(nil)

// Call records a single invocation of Diarize.
type Call struct {
	// Ctx is the context passed to Diarize.
	Ctx context.Context
	// AudioPath is the path passed to Diarize.
	AudioPath string
}

// Provider is a mock implementation of diarize.Provider.
// A zero value returns no turns and nil error. Set Err to inject a failure.
type Provider struct {
	mu sync.Mutex

	// Turns is returned from Diarize when Err is nil.
	Turns []types.SpeakerTurn

	// Err, if non-nil, is returned from Diarize.
	Err error

	// Calls records every Diarize invocation in order.
	Calls []Call
}

// Diarize implements diarize.Provider.
func (p *Provider) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, AudioPath: audioPath})
	turns, err := p.Turns, p.Err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return turns, nil
}

// CallCount returns the number of Diarize invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
