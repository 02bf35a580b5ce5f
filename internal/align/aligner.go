// Package align implements the alignment engine that fuses a timestamped
// transcript with an independently produced speaker-diarization timeline into
// one ordered, speaker-attributed transcript.
//
// The two input streams are segmented differently: transcription yields
// word/phrase chunks, diarization yields speaker turns. For each chunk the
// engine accumulates, per speaker, the total overlap between the chunk's span
// and that speaker's turns, attributes the chunk to the dominant speaker when
// its coverage ratio meets a configurable threshold, and finally merges
// consecutive same-speaker chunks within a configurable time-gap tolerance
// into larger contiguous segments.
//
// An [Aligner] is a pure function over immutable inputs: it performs no I/O,
// holds no locks, caches nothing between calls, and never mutates its inputs.
// Independent calls are safe to run concurrently. Data-quality problems
// (missing diarization, empty or malformed chunks, chunks no speaker
// dominates) degrade output completeness instead of failing the call; the
// only fatal error is an invalid [Config] at construction time.
package align

import (
	"fmt"
	"strings"

	"github.com/echoinstone/echoinstone/pkg/types"
)

// Default configuration values, matching the tuning the engine was validated
// with.
const (
	// DefaultOverlapThreshold is the minimum fraction of a chunk's duration a
	// single speaker's turns must cover for attribution to succeed.
	DefaultOverlapThreshold = 0.5

	// DefaultGapTolerance is the maximum time discrepancy, in seconds,
	// between consecutive same-speaker segments for them to merge.
	DefaultGapTolerance = 0.5
)

// Config holds the alignment engine's tuning parameters. The zero value is
// not usable; use [DefaultConfig] or set every field explicitly.
type Config struct {
	// OverlapThreshold must be in [0, 1].
	OverlapThreshold float64

	// GapTolerance is in seconds and must be >= 0.
	GapTolerance float64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		OverlapThreshold: DefaultOverlapThreshold,
		GapTolerance:     DefaultGapTolerance,
	}
}

// Aligner fuses transcript chunks with speaker turns. Construct with [New];
// the configuration is validated once and immutable for the Aligner's
// lifetime. An Aligner is stateless across calls and safe for concurrent use.
type Aligner struct {
	cfg Config
}

// New returns an Aligner with the given configuration. Configuration misuse
// is the engine's only fatal error and is rejected here, before any
// alignment is attempted.
func New(cfg Config) (*Aligner, error) {
	if cfg.OverlapThreshold < 0 || cfg.OverlapThreshold > 1 {
		return nil, fmt.Errorf("align: overlap threshold %v is outside [0, 1]", cfg.OverlapThreshold)
	}
	if cfg.GapTolerance < 0 {
		return nil, fmt.Errorf("align: gap tolerance %v is negative", cfg.GapTolerance)
	}
	return &Aligner{cfg: cfg}, nil
}

// Config returns the Aligner's configuration.
func (a *Aligner) Config() Config { return a.cfg }

// Stats summarises one alignment call for logging and metrics.
type Stats struct {
	// ChunksIn is the number of input transcript chunks.
	ChunksIn int

	// ChunksDropped is the number of chunks skipped because their text was
	// empty or no speaker reached the overlap threshold.
	ChunksDropped int

	// Segments is the number of merged segments produced.
	Segments int
}

// Align produces the ordered, speaker-attributed, merged transcript for the
// given chunks and turns.
//
// Either input being empty yields an empty (non-nil) result. Chunks whose
// text trims to the empty string are skipped. A chunk with a nil end time is
// taken to run to the diarization timeline's last known end. Chunks that no
// speaker dominates at the configured threshold are dropped silently.
//
// Output segments preserve input chunk order; every speaker label in the
// output is one that appeared in turns. Given identical inputs the output is
// identical on every call, including tie-break choices.
func (a *Aligner) Align(chunks []types.TranscriptChunk, turns []types.SpeakerTurn) []types.MergedSegment {
	segments, _ := a.AlignStats(chunks, turns)
	return segments
}

// AlignStats is [Aligner.Align] plus a [Stats] summary of the call.
func (a *Aligner) AlignStats(chunks []types.TranscriptChunk, turns []types.SpeakerTurn) ([]types.MergedSegment, Stats) {
	stats := Stats{ChunksIn: len(chunks)}
	if len(chunks) == 0 || len(turns) == 0 {
		stats.ChunksDropped = len(chunks)
		return []types.MergedSegment{}, stats
	}

	idx := NewTurnIndex(turns)
	lastEnd := idx.LastEnd()

	attributed := make([]attributedSegment, 0, len(chunks))
	for _, chunk := range chunks {
		start := chunk.Start
		end := lastEnd
		if chunk.End != nil {
			end = *chunk.End
		}

		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			continue
		}

		speaker, ok := dominantSpeaker(start, end, a.cfg.OverlapThreshold, idx)
		if !ok {
			continue
		}
		attributed = append(attributed, attributedSegment{
			speaker: speaker,
			start:   start,
			end:     end,
			text:    text,
		})
	}

	merged := mergeSegments(attributed, a.cfg.GapTolerance)
	stats.ChunksDropped = len(chunks) - len(attributed)
	stats.Segments = len(merged)
	return merged, stats
}
