package align

// dominantSpeaker computes the speaker whose turns cover the largest share of
// [start, end) and reports whether that share meets threshold.
//
// Per-speaker overlap durations are accumulated fresh on every call — no
// state is shared between attributions. When two speakers tie exactly on
// accumulated duration the lexicographically smaller label wins, so repeated
// runs over identical inputs always produce identical output regardless of
// map iteration order.
//
// A non-positive segment duration has no meaningful coverage ratio and is
// rejected outright.
func dominantSpeaker(start, end, threshold float64, idx *TurnIndex) (string, bool) {
	segmentDuration := end - start
	if segmentDuration <= 0 {
		return "", false
	}

	durations := make(map[string]float64)
	for _, ov := range idx.Overlaps(start, end) {
		durations[ov.Speaker] += ov.Duration
	}
	if len(durations) == 0 {
		return "", false
	}

	var (
		winner   string
		winnerOv float64
		first    = true
	)
	for speaker, d := range durations {
		if first || d > winnerOv || (d == winnerOv && speaker < winner) {
			winner, winnerOv = speaker, d
			first = false
		}
	}

	// >= so that a coverage ratio exactly at the threshold is accepted.
	if winnerOv/segmentDuration >= threshold {
		return winner, true
	}
	return "", false
}
