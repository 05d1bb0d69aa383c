// Package align is the boundary with the external speech aligner. It shells
// out to the whisper CLI and converts its JSON output into word-level
// timestamps. Every failure mode collapses into ErrUnavailable so callers can
// fall back to heuristic timing.
package align

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nhd2106/youtube-shorts-agents/internal/timing"
)

// ErrUnavailable signals that no aligned transcript could be produced. It is
// non-fatal: timing falls back to the heuristic strategy.
var ErrUnavailable = errors.New("aligner unavailable")

// Aligner runs whisper against an audio file to recover word timestamps.
type Aligner struct {
	Model    string
	Language string
}

// New creates an Aligner for the given whisper model and language.
func New(model, language string) *Aligner {
	return &Aligner{Model: model, Language: language}
}

// Align transcribes the audio and returns word-level timestamps in audio
// order. Returns ErrUnavailable when whisper is missing, fails, or yields no
// words.
func (a *Aligner) Align(ctx context.Context, audioFile string) ([]timing.AlignedWord, error) {
	if _, err := exec.LookPath("whisper"); err != nil {
		return nil, fmt.Errorf("%w: whisper not installed", ErrUnavailable)
	}

	outDir, err := os.MkdirTemp("", "align-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer os.RemoveAll(outDir)

	log.Printf("[align] Transcribing %s with whisper (%s)...", filepath.Base(audioFile), a.Model)

	cmd := exec.CommandContext(ctx,
		"whisper",
		audioFile,
		"--model", a.Model,
		"--language", a.Language,
		"--output_format", "json",
		"--output_dir", outDir,
		"--word_timestamps", "True",
	)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: whisper failed: %v", ErrUnavailable, err)
	}

	// whisper writes <audio base>.json into the output dir
	base := strings.TrimSuffix(filepath.Base(audioFile), filepath.Ext(audioFile))
	data, err := os.ReadFile(filepath.Join(outDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("%w: read transcript: %v", ErrUnavailable, err)
	}

	words := ParseWords(data)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: transcript contains no words", ErrUnavailable)
	}

	log.Printf("[align] ✅ %d aligned words", len(words))
	return words, nil
}

// ParseWords extracts (word, start, end) triples from whisper JSON output.
// Malformed entries are skipped rather than failing the whole transcript.
func ParseWords(data []byte) []timing.AlignedWord {
	var words []timing.AlignedWord
	gjson.GetBytes(data, "segments").ForEach(func(_, seg gjson.Result) bool {
		seg.Get("words").ForEach(func(_, w gjson.Result) bool {
			text := strings.TrimSpace(w.Get("word").String())
			if text == "" {
				text = strings.TrimSpace(w.Get("text").String())
			}
			start := w.Get("start").Float()
			end := w.Get("end").Float()
			if text == "" || end <= start {
				return true
			}
			words = append(words, timing.AlignedWord{Text: text, Start: start, End: end})
			return true
		})
		return true
	})
	return words
}
