// Package mock provides a test double for the transcribe.Provider interface.
//
// Use Provider in unit tests to feed controlled transcripts into the
// orchestrator without a live transcription backend. All fields are safe to
// set before calling any method; mutating them during a concurrent call is
// the caller's responsibility.
package mock

import (
	"context"
	"sync"

	"github.com/echoinstone/echoinstone/pkg/provider/transcribe"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// Compile-time assertion that Provider satisfies transcribe.Provider.
var _ transcribe.Provider = (*Provider)(nil)

// Call records a single invocation of Transcribe.
type Call struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// AudioPath is the path passed to Transcribe.
	AudioPath string
}

// Provider is a mock implementation of transcribe.Provider.
// A zero value returns an empty result and nil error. Set Err to inject a
// failure.
type Provider struct {
	mu sync.Mutex

	// Result is returned from Transcribe when Err is nil. When Result is
	// nil, an empty TranscriptResult is returned instead.
	Result *types.TranscriptResult

	// Err, if non-nil, is returned from Transcribe.
	Err error

	// Calls records every Transcribe invocation in order.
	Calls []Call
}

// Transcribe implements transcribe.Provider.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (*types.TranscriptResult, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, AudioPath: audioPath})
	result, err := p.Result, p.Err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if result == nil {
		return &types.TranscriptResult{}, nil
	}
	return result, nil
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
