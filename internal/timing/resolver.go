// Package timing binds script phrases to time intervals on the final
// timeline. Two strategies produce segments: an aligned-transcript walk when
// word-level timestamps are available, and a word-duration heuristic that
// also serves as the universal fallback.
package timing

import (
	"strings"

	"github.com/nhd2106/youtube-shorts-agents/internal/script"
)

// Segment is one phrase bound to a time interval, in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// AlignedWord is one word with timestamps from the external aligner.
type AlignedWord struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segmentation limits for the aligned strategy. A segment always closes at a
// word boundary, never mid-word.
const (
	maxSegmentWords    = 10 // upper bound; held because the target close sits below it
	targetSegmentWords = 9
	clauseBreakWords   = 7
)

// Heuristic strategy constants.
const (
	baseWordSeconds  = 0.40 // floor for the per-word duration
	phraseGapSeconds = 0.15 // silence between consecutive phrases
	leadInSeconds    = 0.10 // offset before the first phrase
	sentenceBonusSec = 0.35 // extra hold after . ! ?
	clauseBonusSec   = 0.15 // extra hold after , ; :
	endSafetySeconds = 0.25 // buffer kept before the audio runs out
	minPhraseSeconds = 1.0  // absolute floor for a phrase
	minPerWordFloor  = 0.25 // the floor grows with word count
)

// Resolve produces timing segments for the given script. When aligned words
// are supplied the transcript strategy is used; on empty or unusable aligner
// output it falls back to the heuristic. An empty script yields nil.
func Resolve(scriptText string, totalDuration float64, words []AlignedWord) []Segment {
	if len(words) > 0 {
		if segs := ResolveAligned(words); len(segs) > 0 {
			return segs
		}
	}
	return ResolveHeuristic(scriptText, totalDuration)
}

// ResolveAligned greedily accumulates aligned words into segments. A segment
// closes once it reaches the target word count, or earlier when a clause
// boundary lands past the clause-break threshold. Closing at the target keeps
// every segment under maxSegmentWords, punctuation or not.
func ResolveAligned(words []AlignedWord) []Segment {
	var segs []Segment
	var buf []AlignedWord

	flush := func() {
		if len(buf) == 0 {
			return
		}
		start := buf[0].Start
		end := buf[len(buf)-1].End
		if end <= start {
			buf = buf[:0]
			return
		}
		parts := make([]string, 0, len(buf))
		for _, w := range buf {
			if t := strings.TrimSpace(w.Text); t != "" {
				parts = append(parts, t)
			}
		}
		text := normalizePunctuation(strings.Join(parts, " "))
		if text != "" {
			segs = append(segs, Segment{Text: text, Start: start, End: end, Duration: end - start})
		}
		buf = buf[:0]
	}

	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		buf = append(buf, w)
		n := len(buf)
		// the target close fires below maxSegmentWords, so no separate
		// hard-cap branch is needed
		if n >= targetSegmentWords || (n >= clauseBreakWords && script.IsClauseEnd(w.Text)) {
			flush()
		}
	}
	flush()

	return segs
}

// ResolveHeuristic estimates timing from word counts alone. Phrases are laid
// out sequentially from a small lead-in, separated by a fixed gap; if the
// layout overruns the audio, every interval is scaled down proportionally so
// the final segment ends strictly before the audio does.
func ResolveHeuristic(scriptText string, totalDuration float64) []Segment {
	phrases := script.SplitPhrases(scriptText)
	if len(phrases) == 0 || totalDuration <= 0 {
		return nil
	}

	totalWords := 0
	for _, p := range phrases {
		totalWords += len(strings.Fields(p))
	}
	if totalWords == 0 {
		return nil
	}

	available := totalDuration - float64(len(phrases))*phraseGapSeconds
	if available < 0 {
		available = 0
	}
	perWord := available / float64(totalWords)
	if perWord < baseWordSeconds {
		perWord = baseWordSeconds
	}

	segs := make([]Segment, 0, len(phrases))
	current := leadInSeconds
	for _, phrase := range phrases {
		wordCount := len(strings.Fields(phrase))
		dur := float64(wordCount) * perWord
		switch {
		case script.IsSentenceEnd(phrase):
			dur += sentenceBonusSec
		case script.IsClauseEnd(phrase):
			dur += clauseBonusSec
		}
		if floor := phraseFloor(wordCount); dur < floor {
			dur = floor
		}
		segs = append(segs, Segment{
			Text:     phrase,
			Start:    current,
			End:      current + dur,
			Duration: dur,
		})
		current += dur + phraseGapSeconds
	}

	scaleToFit(segs, totalDuration)
	return segs
}

// phraseFloor is the minimum duration a phrase may hold on screen; longer
// phrases get a proportionally higher floor.
func phraseFloor(wordCount int) float64 {
	floor := float64(wordCount) * minPerWordFloor
	if floor < minPhraseSeconds {
		floor = minPhraseSeconds
	}
	return floor
}

// scaleToFit compresses the whole layout by one proportional factor when it
// overruns the audio, leaving a small safety buffer before the end.
func scaleToFit(segs []Segment, totalDuration float64) {
	if len(segs) == 0 {
		return
	}
	lastEnd := segs[len(segs)-1].End
	if lastEnd <= totalDuration {
		return
	}
	buffer := endSafetySeconds
	if limit := 0.05 * totalDuration; buffer > limit {
		buffer = limit
	}
	factor := (totalDuration - buffer) / lastEnd
	for i := range segs {
		segs[i].Start *= factor
		segs[i].End *= factor
		segs[i].Duration = segs[i].End - segs[i].Start
	}
}

// normalizePunctuation removes stray whitespace in front of boundary
// punctuation left over from joining aligned words.
func normalizePunctuation(s string) string {
	for _, p := range []string{".", "!", "?", ",", ";", ":"} {
		s = strings.ReplaceAll(s, " "+p, p)
	}
	return strings.Join(strings.Fields(s), " ")
}
