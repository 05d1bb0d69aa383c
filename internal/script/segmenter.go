// Package script splits narration text into the phrases used as subtitle
// granularity. Splitting is purely lexical: a phrase ends at a sentence or
// clause boundary and keeps its terminating punctuation.
package script

import "strings"

// phrase-terminating punctuation, sentence enders first
const boundaryRunes = ".!?,;:"

// IsSentenceEnd reports whether the text ends a full sentence.
func IsSentenceEnd(text string) bool {
	return endsWithAny(text, ".!?")
}

// IsClauseEnd reports whether the text ends a clause (including sentences).
func IsClauseEnd(text string) bool {
	return endsWithAny(text, boundaryRunes)
}

func endsWithAny(text, runes string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	return strings.ContainsRune(runes, rune(trimmed[len(trimmed)-1]))
}

// SplitPhrases splits normalized script text on punctuation boundaries,
// retaining each mark as the suffix of the phrase it terminates. Internal
// whitespace and newlines collapse to single spaces; empty fragments are
// dropped. Deterministic, no error conditions: empty input yields nil.
func SplitPhrases(text string) []string {
	var phrases []string
	var current strings.Builder

	flush := func(punct byte) {
		phrase := normalizeSpace(current.String())
		current.Reset()
		if phrase == "" {
			return
		}
		if punct != 0 {
			phrase += string(punct)
		}
		phrases = append(phrases, phrase)
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if strings.IndexByte(boundaryRunes, ch) >= 0 {
			flush(ch)
			continue
		}
		current.WriteByte(ch)
	}
	flush(0)

	return phrases
}

// normalizeSpace collapses all whitespace runs to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
