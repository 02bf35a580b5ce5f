package align_test

import (
	"testing"

	"github.com/echoinstone/echoinstone/internal/align"
	"github.com/echoinstone/echoinstone/pkg/types"
)

func TestTurnIndex_Empty(t *testing.T) {
	t.Parallel()

	idx := align.NewTurnIndex(nil)
	if got := idx.LastEnd(); got != 0 {
		t.Errorf("LastEnd() = %v, want 0", got)
	}
	if got := idx.Overlaps(0, 100); len(got) != 0 {
		t.Errorf("Overlaps(0, 100) = %+v, want none", got)
	}
	if got := idx.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestTurnIndex_LastEnd(t *testing.T) {
	t.Parallel()

	idx := align.NewTurnIndex([]types.SpeakerTurn{
		{Start: 10, End: 30, Speaker: "A"},
		{Start: 0, End: 45.5, Speaker: "B"},
		{Start: 40, End: 42, Speaker: "A"},
	})
	if got := idx.LastEnd(); got != 45.5 {
		t.Errorf("LastEnd() = %v, want 45.5", got)
	}
}

func TestTurnIndex_Overlaps(t *testing.T) {
	t.Parallel()

	idx := align.NewTurnIndex([]types.SpeakerTurn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 4, End: 8, Speaker: "B"},
		{Start: 8, End: 12, Speaker: "A"},
	})

	cases := []struct {
		name       string
		start, end float64
		want       map[string]float64
	}{
		{"inside one turn", 1, 3, map[string]float64{"A": 2}},
		{"spanning two turns", 2, 6, map[string]float64{"A": 2, "B": 2}},
		{"spanning all turns", 0, 12, map[string]float64{"A": 8, "B": 4}},
		{"touching boundary only", 4, 4, nil},
		{"beyond all turns", 20, 30, nil},
		{"clamped at turn edges", 3, 9, map[string]float64{"A": 2, "B": 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := map[string]float64{}
			for _, ov := range idx.Overlaps(tc.start, tc.end) {
				if ov.Duration <= 0 {
					t.Errorf("Overlaps(%v, %v): non-positive duration %+v", tc.start, tc.end, ov)
				}
				got[ov.Speaker] += ov.Duration
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
			for speaker, d := range tc.want {
				if got[speaker] != d {
					t.Errorf("Overlaps(%v, %v)[%s] = %v, want %v", tc.start, tc.end, speaker, got[speaker], d)
				}
			}
		})
	}
}

func TestTurnIndex_CopiesInput(t *testing.T) {
	t.Parallel()

	turns := []types.SpeakerTurn{
		{Start: 5, End: 9, Speaker: "B"},
		{Start: 0, End: 5, Speaker: "A"},
	}
	idx := align.NewTurnIndex(turns)

	// Construction sorts internally; the caller's slice must keep its order.
	if turns[0].Speaker != "B" || turns[1].Speaker != "A" {
		t.Errorf("input slice reordered: %+v", turns)
	}

	// Mutating the caller's slice after construction must not affect queries.
	turns[1].Speaker = "Z"
	for _, ov := range idx.Overlaps(0, 5) {
		if ov.Speaker == "Z" {
			t.Errorf("index observed caller mutation: %+v", ov)
		}
	}
}
