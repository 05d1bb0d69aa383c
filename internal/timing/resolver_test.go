package timing

import (
	"math"
	"testing"
)

func TestResolveHeuristicTwoPhrases(t *testing.T) {
	segs := ResolveHeuristic("Hello. World.", 10.0)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Text != "Hello." || segs[1].Text != "World." {
		t.Errorf("segment order does not match phrase order: %+v", segs)
	}
	for i, s := range segs {
		if s.Duration <= 0 {
			t.Errorf("segment %d has non-positive duration %.3f", i, s.Duration)
		}
		if s.End <= s.Start {
			t.Errorf("segment %d end %.3f <= start %.3f", i, s.End, s.Start)
		}
	}
	if segs[1].End > 10.0 {
		t.Errorf("last segment ends at %.3f, past the audio", segs[1].End)
	}
	if segs[0].End > segs[1].Start {
		t.Errorf("segments overlap: %.3f > %.3f", segs[0].End, segs[1].Start)
	}
}

func TestResolveHeuristicNonDecreasingStarts(t *testing.T) {
	text := "One two three, four five. Six seven eight nine ten eleven! Short. And a final clause to end things properly."
	segs := ResolveHeuristic(text, 20.0)
	if len(segs) == 0 {
		t.Fatal("no segments")
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start < segs[i-1].Start {
			t.Errorf("start order broken at %d: %.3f < %.3f", i, segs[i].Start, segs[i-1].Start)
		}
	}
	if last := segs[len(segs)-1]; last.End >= 20.0 {
		t.Errorf("layout not scaled into the audio: last end %.3f", last.End)
	}
}

func TestResolveHeuristicScalesDownLongScripts(t *testing.T) {
	// far more words than 3 seconds can hold at the base word duration
	text := "Alpha beta gamma delta epsilon zeta eta theta. Iota kappa lambda mu nu xi omicron pi. Rho sigma tau upsilon phi chi psi omega."
	segs := ResolveHeuristic(text, 3.0)
	if len(segs) != 3 {
		t.Fatalf("got %d segments", len(segs))
	}
	last := segs[len(segs)-1]
	if last.End >= 3.0 {
		t.Errorf("last end %.3f not strictly before audio end", last.End)
	}
	for i, s := range segs {
		if s.Duration <= 0 {
			t.Errorf("segment %d collapsed to %.3f", i, s.Duration)
		}
	}
}

func TestResolveHeuristicEmptyScript(t *testing.T) {
	if segs := ResolveHeuristic("", 10.0); segs != nil {
		t.Fatalf("empty script produced %v", segs)
	}
	if segs := ResolveHeuristic("   ", 10.0); segs != nil {
		t.Fatalf("blank script produced %v", segs)
	}
}

func TestResolveAlignedClosesAtClauseBoundary(t *testing.T) {
	words := makeWords("one two three four five six seven, eight nine ten eleven twelve")
	segs := ResolveAligned(words)
	if len(segs) != 2 {
		t.Fatalf("got %d segments %+v, want 2", len(segs), segs)
	}
	// clause boundary lands on word 7, past the clause-break threshold
	if segs[0].Text != "one two three four five six seven," {
		t.Errorf("first segment text = %q", segs[0].Text)
	}
	if segs[0].End != words[6].End {
		t.Errorf("first segment must end on a word boundary: %.2f != %.2f", segs[0].End, words[6].End)
	}
}

func TestResolveAlignedTargetWordCount(t *testing.T) {
	words := makeWords("w1 w2 w3 w4 w5 w6 w7 w8 w9 w10 w11 w12")
	segs := ResolveAligned(words)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if got := len(splitWords(segs[0].Text)); got != targetSegmentWords {
		t.Errorf("first segment has %d words, want %d", got, targetSegmentWords)
	}
}

func TestResolveAlignedNeverExceedsWordCap(t *testing.T) {
	// no punctuation anywhere, so only the target-count close applies
	words := makeWords("a b c d e f g h i j k l m n o p q r s t u v w x y")
	for _, seg := range ResolveAligned(words) {
		if got := len(splitWords(seg.Text)); got > maxSegmentWords {
			t.Errorf("segment %q has %d words, cap is %d", seg.Text, got, maxSegmentWords)
		}
	}
}

func TestResolveAlignedTimesFromWords(t *testing.T) {
	words := makeWords("a b c")
	segs := ResolveAligned(words)
	if len(segs) != 1 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Start != words[0].Start || segs[0].End != words[2].End {
		t.Errorf("segment interval %+v does not span its words", segs[0])
	}
	if math.Abs(segs[0].Duration-(segs[0].End-segs[0].Start)) > 1e-9 {
		t.Errorf("duration not derived from interval")
	}
}

func TestResolveFallsBackWithoutWords(t *testing.T) {
	segs := Resolve("Hello. World.", 10.0, nil)
	if len(segs) != 2 {
		t.Fatalf("fallback produced %d segments", len(segs))
	}
	// whitespace-only aligner output also falls back
	segs = Resolve("Hello. World.", 10.0, []AlignedWord{{Text: "  ", Start: 0, End: 1}})
	if len(segs) != 2 {
		t.Fatalf("unusable aligner output produced %d segments", len(segs))
	}
}

func TestNormalizePunctuation(t *testing.T) {
	if got := normalizePunctuation("hello , world ."); got != "hello, world." {
		t.Errorf("got %q", got)
	}
}

func makeWords(text string) []AlignedWord {
	fields := splitWords(text)
	words := make([]AlignedWord, len(fields))
	for i, f := range fields {
		words[i] = AlignedWord{Text: f, Start: float64(i) * 0.5, End: float64(i)*0.5 + 0.4}
	}
	return words
}

func splitWords(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}
