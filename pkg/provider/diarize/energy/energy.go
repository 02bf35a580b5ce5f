// Package energy provides a local, model-free diarization Provider based on
// signal energy.
//
// It splits the audio into fixed windows, classifies each window as speech or
// silence by RMS energy, groups consecutive speech windows into turns, and
// alternates between two speaker labels whenever the silence between turns
// exceeds a switch threshold. It needs no network and no model files.
//
// This is a coarse heuristic meant for two-party recordings (interviews,
// calls) and for running the full pipeline offline; for real multi-speaker
// diarization use the pyannote provider.
package energy

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"

	"github.com/echoinstone/echoinstone/pkg/provider/diarize"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// Compile-time assertion that Provider satisfies diarize.Provider.
var _ diarize.Provider = (*Provider)(nil)

// Defaults chosen against 16 kHz mono speech recordings.
const (
	defaultWindowMs     = 100
	defaultRMSThreshold = 0.01
	defaultCloseGapSec  = 0.6
	defaultSwitchGapSec = 1.5
)

// Provider implements diarize.Provider with an RMS/silence-gap heuristic.
type Provider struct {
	windowMs     int
	rmsThreshold float64
	closeGapSec  float64
	switchGapSec float64
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithRMSThreshold sets the RMS energy above which a window counts as
// speech. Defaults to 0.01 on samples normalised to [-1, 1].
func WithRMSThreshold(v float64) Option {
	return func(p *Provider) { p.rmsThreshold = v }
}

// WithSwitchGap sets the silence duration, in seconds, after which the next
// turn is assigned to the other speaker. Defaults to 1.5 s.
func WithSwitchGap(seconds float64) Option {
	return func(p *Provider) { p.switchGapSec = seconds }
}

// New constructs an energy Provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		windowMs:     defaultWindowMs,
		rmsThreshold: defaultRMSThreshold,
		closeGapSec:  defaultCloseGapSec,
		switchGapSec: defaultSwitchGapSec,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Diarize decodes the WAV file at audioPath and returns heuristic speaker
// turns.
func (p *Provider) Diarize(ctx context.Context, audioPath string) ([]types.SpeakerTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("energy: context already cancelled: %w", err)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("energy: open audio %q: %w", audioPath, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("energy: %q is not a valid WAV file", audioPath)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("energy: decode %q: %w", audioPath, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("energy: %q has no sample rate", audioPath)
	}

	scale := math.Pow(2, float64(dec.BitDepth)-1)
	samples := make([]float64, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float64(s) / scale
	}

	return p.detectTurns(samples, buf.Format.SampleRate), nil
}

// detectTurns runs the windowed energy analysis over normalised mono
// samples.
func (p *Provider) detectTurns(samples []float64, sampleRate int) []types.SpeakerTurn {
	windowSize := sampleRate * p.windowMs / 1000
	if windowSize <= 0 || len(samples) == 0 {
		return nil
	}

	windowSec := float64(p.windowMs) / 1000

	var (
		turns     []types.SpeakerTurn
		speaker   = 0
		inTurn    bool
		turnStart float64
		turnEnd   float64
	)

	flush := func(nextSpeechAt float64) {
		if !inTurn {
			return
		}
		turns = append(turns, types.SpeakerTurn{
			Start:   turnStart,
			End:     turnEnd,
			Speaker: speakerLabel(speaker),
		})
		inTurn = false
		// A long enough silence hands the floor to the other speaker.
		if nextSpeechAt-turnEnd > p.switchGapSec {
			speaker = 1 - speaker
		}
	}

	for offset := 0; offset < len(samples); offset += windowSize {
		windowEnd := min(offset+windowSize, len(samples))
		t := float64(offset) / float64(sampleRate)

		if rms(samples[offset:windowEnd]) >= p.rmsThreshold {
			if inTurn && t-turnEnd > p.closeGapSec {
				flush(t)
			}
			if !inTurn {
				inTurn = true
				turnStart = t
			}
			turnEnd = t + windowSec
		}
	}
	flush(math.Inf(1))

	return turns
}

// rms computes the root mean square energy of a sample window.
func rms(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(window)))
}

func speakerLabel(i int) string {
	return fmt.Sprintf("SPEAKER_%02d", i)
}
