// Package pipeline runs the full idea-to-video flow: script generation,
// narration, background images, and the final render, reporting progress to
// the request tracker at every stage.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nhd2106/youtube-shorts-agents/internal/config"
	"github.com/nhd2106/youtube-shorts-agents/internal/content"
	"github.com/nhd2106/youtube-shorts-agents/internal/images"
	"github.com/nhd2106/youtube-shorts-agents/internal/render"
	"github.com/nhd2106/youtube-shorts-agents/internal/tracker"
)

// ContentGenerator produces the script package and image prompts.
type ContentGenerator interface {
	Generate(ctx context.Context, idea string) (*content.Content, error)
	ImagePrompts(ctx context.Context, script string) []string
}

// AudioGenerator synthesizes narration audio.
type AudioGenerator interface {
	Generate(ctx context.Context, script, model, voice, outPath string) (string, error)
}

// ImageFetcher collects background images.
type ImageFetcher interface {
	DownloadAll(ctx context.Context, urls []string, outDir string) []string
	GenerateAll(ctx context.Context, prompts []string, format images.Format, outDir string) []string
}

// Renderer runs the video render.
type Renderer interface {
	Run(ctx context.Context, req render.Request, progress render.ProgressFunc) (*render.Result, error)
}

// Tracker records request lifecycle updates.
type Tracker interface {
	Update(ctx context.Context, id string, status tracker.Status, progress int) error
	SetResult(ctx context.Context, id string, result any) error
	Fail(ctx context.Context, id, message string) error
}

// GenerateRequest is one idea-to-video job.
type GenerateRequest struct {
	Idea      string   `json:"idea"`
	Format    string   `json:"video_format"`
	TTSModel  string   `json:"tts_model"`
	Voice     string   `json:"voice"`
	ImageURLs []string `json:"image_urls"`
}

// App wires the generation stages together.
type App struct {
	cfg      *config.Config
	content  ContentGenerator
	audio    AudioGenerator
	images   ImageFetcher
	renderer Renderer
	tracker  Tracker
}

// New assembles the app pipeline.
func New(cfg *config.Config, cg ContentGenerator, ag AudioGenerator, imf ImageFetcher, r Renderer, tr Tracker) *App {
	return &App{cfg: cfg, content: cg, audio: ag, images: imf, renderer: r, tracker: tr}
}

// Run executes one generation request end to end. Failures are recorded on
// the tracker and returned.
func (a *App) Run(ctx context.Context, requestID string, req GenerateRequest) error {
	if err := a.run(ctx, requestID, req); err != nil {
		if trErr := a.tracker.Fail(ctx, requestID, err.Error()); trErr != nil {
			log.Printf("[pipeline] Could not record failure for %s: %v", requestID, trErr)
		}
		return err
	}
	return nil
}

func (a *App) run(ctx context.Context, requestID string, req GenerateRequest) error {
	format, err := images.FormatByName(req.Format)
	if err != nil {
		return err
	}

	a.update(ctx, requestID, tracker.StatusGeneratingScript, 10)
	c, err := a.content.Generate(ctx, req.Idea)
	if err != nil {
		return err
	}
	log.Printf("[pipeline] %s: script ready (%q)", requestID, c.Title)

	// artifacts are keyed by request id so concurrent requests never collide
	audioPath := filepath.Join(a.cfg.Paths.Audio, fmt.Sprintf("audio_%s.mp3", requestID))
	imageDir := filepath.Join(a.cfg.Paths.Images, requestID)

	// narration and background images are independent — run them together
	a.update(ctx, requestID, tracker.StatusGeneratingAudio, 30)
	var (
		wg       sync.WaitGroup
		audioErr error
		imgPaths []string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, audioErr = a.audio.Generate(ctx, c.Script, req.TTSModel, req.Voice, audioPath)
	}()
	go func() {
		defer wg.Done()
		imgPaths = a.collectImages(ctx, requestID, c.Script, req.ImageURLs, format, imageDir)
	}()
	wg.Wait()
	if audioErr != nil {
		return fmt.Errorf("narration failed: %w", audioErr)
	}

	a.update(ctx, requestID, tracker.StatusGeneratingVideo, 70)
	videoName := fmt.Sprintf("video_%s_%s.mp4", format.Name, requestID)
	thumbName := fmt.Sprintf("thumbnail_%s.jpg", requestID)
	res, err := a.renderer.Run(ctx, render.Request{
		ID:            requestID,
		AudioPath:     audioPath,
		Title:         c.Title,
		Script:        c.Script,
		Images:        imgPaths,
		Width:         format.Width,
		Height:        format.Height,
		OutputPath:    filepath.Join(a.cfg.Paths.Video, videoName),
		ThumbnailPath: filepath.Join(a.cfg.Paths.Thumbnail, thumbName),
	}, func(phase render.Phase, pct float64) {
		a.update(ctx, requestID, tracker.StatusGeneratingVideo, renderProgress(phase, pct))
	})
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	contentName, err := a.saveContentFile(c, req, requestID, res)
	if err != nil {
		log.Printf("[pipeline] Warning: could not save content file: %v", err)
	}

	result := map[string]any{
		"video": map[string]string{
			"filename": videoName,
			"url":      "/api/download/" + videoName,
		},
		"content": map[string]any{
			"title":    c.Title,
			"hashtags": c.Hashtags,
		},
		"metadata": map[string]string{
			"format":    format.Name,
			"tts_model": req.TTSModel,
			"voice":     req.Voice,
		},
	}
	if res.ThumbnailPath != "" {
		result["thumbnail"] = map[string]string{
			"filename": thumbName,
			"url":      "/api/download/" + thumbName,
		}
	}
	if contentName != "" {
		result["script"] = map[string]string{
			"filename": contentName,
			"url":      "/api/download/" + contentName,
		}
	}
	return a.tracker.SetResult(ctx, requestID, result)
}

// collectImages downloads provided URLs first, then tops up with generated
// images until the format's required count is met.
func (a *App) collectImages(ctx context.Context, requestID, script string, urls []string, format images.Format, outDir string) []string {
	var paths []string
	if len(urls) > 0 {
		paths = a.images.DownloadAll(ctx, urls, outDir)
		log.Printf("[pipeline] %s: downloaded %d/%d images", requestID, len(paths), len(urls))
	}

	needed := format.Required() - len(paths)
	if needed <= 0 {
		return paths
	}

	prompts := a.content.ImagePrompts(ctx, script)
	if len(prompts) > needed {
		prompts = prompts[:needed]
	}
	generated := a.images.GenerateAll(ctx, prompts, format, outDir)
	return append(paths, generated...)
}

// renderProgress maps phase progress onto the request's 70–100 band.
func renderProgress(phase render.Phase, pct float64) int {
	var lo, span float64
	switch phase {
	case render.PhaseCompose:
		lo, span = 70, 5
	case render.PhaseRender:
		lo, span = 75, 22
	case render.PhaseExport:
		lo, span = 97, 3
	default:
		return 70
	}
	return int(lo + span*pct/100)
}

// saveContentFile writes the script package next to the video for download.
func (a *App) saveContentFile(c *content.Content, req GenerateRequest, requestID string, res *render.Result) (string, error) {
	if err := os.MkdirAll(a.cfg.Paths.Script, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("content_%s.txt", requestID)

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", c.Title)
	fmt.Fprintf(&b, "Script:\n%s\n\n", c.Script)
	fmt.Fprintf(&b, "Hashtags: %s\n", strings.Join(c.Hashtags, ", "))
	fmt.Fprintf(&b, "\nVideo: %s\nDuration: %.1fs\nTTS: %s/%s\n",
		res.VideoPath, res.Duration, req.TTSModel, req.Voice)

	if err := os.WriteFile(filepath.Join(a.cfg.Paths.Script, name), []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return name, nil
}

func (a *App) update(ctx context.Context, id string, status tracker.Status, progress int) {
	if err := a.tracker.Update(ctx, id, status, progress); err != nil {
		log.Printf("[pipeline] Tracker update failed for %s: %v", id, err)
	}
}
