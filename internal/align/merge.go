package align

import (
	"math"

	"github.com/echoinstone/echoinstone/pkg/types"
)

// attributedSegment is the intermediate per-chunk result between attribution
// and merging: one retained transcript chunk with its winning speaker.
type attributedSegment struct {
	speaker    string
	start, end float64
	text       string
}

// mergeSegments coalesces consecutive same-speaker segments whose time gap is
// within gapTolerance into single larger segments, joining their text with a
// single space.
//
// The gap is computed as abs(next.start - current.end), so a slight negative
// overlap between adjacent chunks merges just like a small positive gap. The
// boundary is inclusive: a gap exactly equal to gapTolerance still merges.
//
// This is a greedy single pass over an ordered input; flushed segments are
// never revisited, so input ordering is a correctness precondition.
func mergeSegments(segments []attributedSegment, gapTolerance float64) []types.MergedSegment {
	if len(segments) == 0 {
		return []types.MergedSegment{}
	}

	merged := make([]types.MergedSegment, 0, len(segments))
	current := types.MergedSegment{
		Speaker: segments[0].speaker,
		Start:   segments[0].start,
		End:     segments[0].end,
		Text:    segments[0].text,
	}

	for _, seg := range segments[1:] {
		if seg.speaker == current.Speaker && math.Abs(seg.start-current.End) <= gapTolerance {
			current.End = seg.end
			current.Text += " " + seg.text
			continue
		}
		merged = append(merged, current)
		current = types.MergedSegment{
			Speaker: seg.speaker,
			Start:   seg.start,
			End:     seg.end,
			Text:    seg.text,
		}
	}

	return append(merged, current)
}
