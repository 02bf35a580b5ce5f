// Package store persists finished pipeline runs: the ordered list of
// speaker-attributed transcript segments plus enough metadata to find them
// again.
//
// Two implementations exist: [FileStore] writes JSON files (the historical
// output format, one directory per run), and [PostgresStore] writes rows into
// PostgreSQL for serving setups that want queryable results. Both serialize
// segments in the 4-element array wire shape defined by
// [types.MergedSegment].
package store

import (
	"context"
	"time"

	"github.com/echoinstone/echoinstone/pkg/types"
)

// DefaultResultName is the historical file name for a run's aligned
// transcript.
const DefaultResultName = "speaker_transcriptions.json"

// Run is one completed pipeline execution.
type Run struct {
	// ID identifies the run, e.g. "run_20240102-150405".
	ID string `json:"run_id"`

	// Input is the source reference the run processed (URL or path).
	Input string `json:"input"`

	// Language is the transcript language when the provider reported one.
	Language string `json:"language,omitempty"`

	// GeneratedAt is when the run finished.
	GeneratedAt time.Time `json:"generated_at"`

	// Segments is the aligned, speaker-attributed transcript.
	Segments []types.MergedSegment `json:"transcriptions"`
}

// Store persists completed runs.
type Store interface {
	// SaveRun persists run and returns a human-readable location of the
	// stored result (a file path, a database reference).
	SaveRun(ctx context.Context, run *Run) (string, error)
}
