package timing

// Smoother thresholds. Gaps wider than maxGapSeconds are pulled shut down to
// the threshold; overlapping neighbours meet at the midpoint.
const (
	maxGapSeconds      = 0.5
	minDurationSeconds = 0.5
)

// Smooth removes pathological gaps and overlaps between adjacent segments in
// a single forward pass, then enforces a minimum duration. Mutates segs in
// place and returns it. Idempotent: smoothing already-smoothed segments is a
// no-op. totalDuration, when positive, caps the final segment's end.
func Smooth(segs []Segment, totalDuration float64) []Segment {
	for i := 0; i < len(segs)-1; i++ {
		cur, next := &segs[i], &segs[i+1]
		gap := next.Start - cur.End
		switch {
		case gap > maxGapSeconds:
			shift := (gap - maxGapSeconds) / 2
			cur.End += shift
			next.Start -= shift
		case gap < 0:
			mid := (cur.End + next.Start) / 2
			cur.End = mid
			next.Start = mid
		}
	}

	for i := range segs {
		seg := &segs[i]
		if seg.End-seg.Start < minDurationSeconds {
			seg.End = seg.Start + minDurationSeconds
		}
		// never run into the successor or past the audio
		if i < len(segs)-1 && seg.End > segs[i+1].Start {
			seg.End = segs[i+1].Start
		}
		if i == len(segs)-1 && totalDuration > 0 && seg.End > totalDuration {
			seg.End = totalDuration
		}
		seg.Duration = seg.End - seg.Start
	}

	return segs
}
