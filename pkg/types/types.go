// Package types defines the shared types used across all EchoInStone packages.
//
// These types form the lingua franca between capture, the transcription and
// diarization providers, the alignment engine, and the persistence layer. Each
// package defines its own domain types, but cross-cutting data structures live
// here to avoid circular imports.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// TranscriptChunk is one unit of recognised speech from a transcription
// provider, with timestamps relative to the start of the audio.
//
// Chunks are produced once by the provider and consumed read-only downstream;
// nothing in the pipeline mutates them.
type TranscriptChunk struct {
	// Start is the chunk's start time in seconds.
	Start float64

	// End is the chunk's end time in seconds. A nil End means the chunk runs
	// to the end of the audio; the alignment engine resolves it using the
	// diarization timeline's last known end time.
	End *float64

	// Text is the recognised speech. Chunks whose text trims to the empty
	// string are dropped by the alignment engine.
	Text string
}

// SpeakerTurn is one contiguous span during which diarization asserts a
// single speaker was active. End > Start for well-formed turns. Labels are
// opaque identifiers and are not comparable across diarization runs.
//
// Multiple turns may carry the same label: a speaker who re-enters later in
// the audio produces a new, non-contiguous turn.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// MergedSegment is the final output unit of the alignment engine: a span of
// speech attributed to a single speaker. Text may be the concatenation of
// several transcript chunks and End reflects the last absorbed chunk.
//
// On the wire a MergedSegment is a 4-element JSON array
// [speaker, start, end, text] — the shape every serving surface (HTTP body,
// saved file) reuses verbatim. The named fields exist to prevent field-order
// bugs at the serialization boundary; the array shape is preserved by the
// custom JSON methods below.
type MergedSegment struct {
	Speaker string
	Start   float64
	End     float64
	Text    string
}

// MarshalJSON encodes the segment as the 4-element array wire shape.
func (s MergedSegment) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{s.Speaker, s.Start, s.End, s.Text})
}

// UnmarshalJSON decodes the 4-element array wire shape.
func (s *MergedSegment) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("types: merged segment is not an array: %w", err)
	}
	if len(arr) != 4 {
		return fmt.Errorf("types: merged segment has %d elements, want 4", len(arr))
	}
	if err := json.Unmarshal(arr[0], &s.Speaker); err != nil {
		return fmt.Errorf("types: merged segment speaker: %w", err)
	}
	if err := json.Unmarshal(arr[1], &s.Start); err != nil {
		return fmt.Errorf("types: merged segment start: %w", err)
	}
	if err := json.Unmarshal(arr[2], &s.End); err != nil {
		return fmt.Errorf("types: merged segment end: %w", err)
	}
	if err := json.Unmarshal(arr[3], &s.Text); err != nil {
		return fmt.Errorf("types: merged segment text: %w", err)
	}
	return nil
}

// TranscriptResult bundles a transcription provider's output: the full
// transcript text plus the ordered per-chunk timestamp list. The alignment
// engine consumes only Chunks; Text is kept for debug dumps and display.
type TranscriptResult struct {
	// Text is the full transcript as a single string.
	Text string

	// Chunks is the ordered list of timestamped speech units.
	Chunks []TranscriptChunk

	// Language is the detected (or configured) language code, when the
	// provider reports one.
	Language string

	// Duration is the audio duration, when the provider reports it.
	Duration time.Duration
}

// Float64Ptr returns a pointer to v. Convenience for building
// TranscriptChunk literals with a present End.
func Float64Ptr(v float64) *float64 { return &v }
