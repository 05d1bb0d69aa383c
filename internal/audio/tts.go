// Package audio turns narration scripts into speech. Two engines are
// supported: edge-tts (free, shelled out) and the OpenAI speech API. Results
// are cached by content hash so repeated renders of the same script skip the
// engine entirely.
package audio

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nhd2106/youtube-shorts-agents/internal/config"
)

// Model describes one TTS engine and its voice set.
type Model struct {
	Name         string   `json:"name"`
	DefaultVoice string   `json:"default_voice"`
	Voices       []string `json:"voices"`
}

// Catalog lists every supported engine, keyed by the id callers pass in.
var Catalog = map[string]Model{
	"edge": {
		Name:         "Edge TTS",
		DefaultVoice: "vi-VN-NamMinhNeural",
		Voices:       []string{"vi-VN-NamMinhNeural", "vi-VN-HoaiMyNeural", "en-US-GuyNeural", "en-US-JennyNeural"},
	},
	"openai": {
		Name:         "OpenAI TTS",
		DefaultVoice: "echo",
		Voices:       []string{"echo", "alloy", "fable", "onyx", "nova", "shimmer"},
	},
}

// Generator produces narration audio files.
type Generator struct {
	cfg       *config.Config
	openaiKey string
	cacheDir  string
}

// New creates a Generator. The OpenAI key may be empty when only edge-tts is
// used.
func New(cfg *config.Config, openaiKey string) *Generator {
	return &Generator{
		cfg:       cfg,
		openaiKey: openaiKey,
		cacheDir:  filepath.Join(cfg.Paths.Cache, "audio"),
	}
}

// CacheKey is the content hash an audio artifact is cached under.
func CacheKey(script, model, voice string) string {
	sum := md5.Sum([]byte(script + "\x00" + model + "\x00" + voice))
	return fmt.Sprintf("%x", sum)
}

// Generate synthesizes script into outPath, using the cache when possible.
// Empty model/voice fall back to the configured defaults.
func (g *Generator) Generate(ctx context.Context, script, model, voice, outPath string) (string, error) {
	if script == "" {
		return "", fmt.Errorf("audio: script is empty")
	}
	if model == "" {
		model = g.cfg.Audio.DefaultModel
	}
	spec, ok := Catalog[model]
	if !ok {
		return "", fmt.Errorf("audio: unknown model %q", model)
	}
	if voice == "" {
		voice = spec.DefaultVoice
	}
	if !contains(spec.Voices, voice) {
		return "", fmt.Errorf("audio: voice %q not available for %s", voice, model)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("audio: create output dir: %w", err)
	}
	if err := os.MkdirAll(g.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("audio: create cache dir: %w", err)
	}

	cachePath := filepath.Join(g.cacheDir, CacheKey(script, model, voice)+".mp3")
	if _, err := os.Stat(cachePath); err == nil {
		log.Printf("[audio] Cache hit for %s/%s", model, voice)
		if err := copyFile(cachePath, outPath); err != nil {
			return "", fmt.Errorf("audio: copy cached file: %w", err)
		}
		return outPath, nil
	}

	var err error
	switch model {
	case "edge":
		err = g.edgeTTS(ctx, script, voice, outPath)
	case "openai":
		err = g.openaiTTS(ctx, script, voice, outPath)
	}
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(outPath); statErr != nil {
		return "", fmt.Errorf("audio: engine produced no output: %w", statErr)
	}
	if err := copyFile(outPath, cachePath); err != nil {
		log.Printf("[audio] Warning: could not cache audio: %v", err)
	}
	return outPath, nil
}

// edgeTTS shells out to the edge-tts CLI, retrying transient failures.
func (g *Generator) edgeTTS(ctx context.Context, script, voice, outPath string) error {
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return fmt.Errorf("audio: edge-tts not installed (pip install edge-tts): %w", err)
	}

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		cmd := exec.CommandContext(ctx, "edge-tts",
			"--voice", voice,
			"--rate", g.cfg.Audio.Rate,
			"--text", script,
			"--write-media", outPath,
		)
		cmd.Stderr = os.Stderr
		err = cmd.Run()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[audio] edge-tts attempt %d failed: %v — retrying...", attempt, err)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	return fmt.Errorf("audio: edge-tts failed after 3 attempts: %w", err)
}

// openaiTTS calls the OpenAI speech endpoint and streams the mp3 to disk.
func (g *Generator) openaiTTS(ctx context.Context, script, voice, outPath string) error {
	if g.openaiKey == "" {
		return fmt.Errorf("audio: OPENAI_API_KEY is required for OpenAI TTS")
	}
	client := openai.NewClient(option.WithAPIKey(g.openaiKey))

	resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: openai.AudioSpeechNewParamsVoice(voice),
		Input: script,
		Speed: openai.Float(1.25),
	})
	if err != nil {
		return fmt.Errorf("audio: openai speech: %w", err)
	}
	defer resp.Body.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("audio: create output: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("audio: write speech response: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
