package align

import (
	"sort"

	"github.com/echoinstone/echoinstone/pkg/types"
)

// Overlap reports the intersection between a query interval and a single
// speaker turn.
type Overlap struct {
	// Speaker is the turn's label.
	Speaker string

	// Duration is the intersection length in seconds, always >= 0.
	Duration float64
}

// TurnIndex indexes a set of speaker turns for repeated overlap queries.
// Turns are sorted by start time once at construction so that a query can
// stop scanning as soon as it reaches turns starting at or after its end.
//
// A TurnIndex is immutable after construction and safe for concurrent use.
type TurnIndex struct {
	turns   []types.SpeakerTurn
	lastEnd float64
}

// NewTurnIndex builds an index over turns. The input slice is copied; the
// caller's slice is never mutated or retained.
func NewTurnIndex(turns []types.SpeakerTurn) *TurnIndex {
	idx := &TurnIndex{turns: make([]types.SpeakerTurn, len(turns))}
	copy(idx.turns, turns)
	sort.SliceStable(idx.turns, func(i, j int) bool {
		return idx.turns[i].Start < idx.turns[j].Start
	})
	for _, t := range idx.turns {
		if t.End > idx.lastEnd {
			idx.lastEnd = t.End
		}
	}
	return idx
}

// Len returns the number of indexed turns.
func (idx *TurnIndex) Len() int { return len(idx.turns) }

// LastEnd returns the maximum end time over all turns, or 0 when the index
// is empty. Callers resolving open-ended chunks must treat 0 from an empty
// index as "unknown".
func (idx *TurnIndex) LastEnd() float64 { return idx.lastEnd }

// Overlaps returns, for every turn intersecting [start, end), the turn's
// speaker label and the intersection duration. Turns that merely touch the
// query boundary contribute nothing and are omitted.
func (idx *TurnIndex) Overlaps(start, end float64) []Overlap {
	var out []Overlap
	for _, t := range idx.turns {
		if t.Start >= end {
			// Sorted by start: no later turn can intersect either.
			break
		}
		is := max(start, t.Start)
		ie := min(end, t.End)
		if ie > is {
			out = append(out, Overlap{Speaker: t.Speaker, Duration: ie - is})
		}
	}
	return out
}
