// Package render orchestrates a full video render: word timings, the visual
// timeline, text overlays, the encode pass, and the thumbnail export. It owns
// the request lifecycle (idle → composing → rendering → exporting → done) and
// the per-request scratch directory.
package render

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhd2106/youtube-shorts-agents/internal/config"
	"github.com/nhd2106/youtube-shorts-agents/internal/encoder"
	"github.com/nhd2106/youtube-shorts-agents/internal/media"
	"github.com/nhd2106/youtube-shorts-agents/internal/overlay"
	"github.com/nhd2106/youtube-shorts-agents/internal/timeline"
	"github.com/nhd2106/youtube-shorts-agents/internal/timing"
)

// Phase names the three progress phases a caller observes, in order.
type Phase string

const (
	PhaseCompose Phase = "compose"
	PhaseRender  Phase = "render"
	PhaseExport  Phase = "export"
)

// ProgressFunc receives phase progress in [0,100]. It is always invoked from
// the goroutine running the pipeline, never concurrently.
type ProgressFunc func(phase Phase, pct float64)

// WordAligner produces word-level timestamps for the narration audio.
// Implementations may fail; the pipeline falls back to heuristic timing.
type WordAligner interface {
	Align(ctx context.Context, audioFile string) ([]timing.AlignedWord, error)
}

// Request describes one render job.
type Request struct {
	ID            string   // request namespace; generated when empty
	AudioPath     string   // narration track, required
	Duration      float64  // seconds; 0 means probe the audio
	Title         string   // floating headline; blank = no title overlay
	Script        string   // narration text; blank = no subtitles
	Images        []string // background images in display order
	Width         int
	Height        int
	OutputPath    string
	ThumbnailPath string // blank = skip thumbnail export
}

// Result reports what a finished render produced.
type Result struct {
	VideoPath     string           `json:"video_path"`
	ThumbnailPath string           `json:"thumbnail_path,omitempty"`
	Duration      float64          `json:"duration"`
	Segments      []timing.Segment `json:"segments"`
}

// Pipeline wires the timing, timeline, overlay, and encoder stages together.
// It holds no per-request state and is safe for concurrent Run calls.
type Pipeline struct {
	cfg     *config.Config
	enc     encoder.Encoder
	aligner WordAligner // nil disables aligned timing
	seed    int64

	// Probe, Prepare, and Thumbnail default to the ffmpeg-backed media
	// helpers; tests override them.
	Probe     func(ctx context.Context, path string) (float64, error)
	Prepare   timeline.Preparer
	Thumbnail func(ctx context.Context, video, dst string) error
}

// New builds a pipeline. The seed drives effect selection; a non-zero seed
// makes renders reproducible per request id, zero means time-seeded.
func New(cfg *config.Config, enc encoder.Encoder, aligner WordAligner, seed int64) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		enc:       enc,
		aligner:   aligner,
		seed:      seed,
		Probe:     media.Duration,
		Thumbnail: media.FirstFrame,
	}
}

// effectRNG derives an independent random source for one request. Each Run
// gets its own *rand.Rand, so concurrent renders never touch shared state.
func (p *Pipeline) effectRNG(id string) *rand.Rand {
	seed := p.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

// Run executes the full render. Progress moves through compose, render, and
// export strictly in that order, each reaching 100 before the next begins.
// The scratch directory is removed on every path out of this function.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	sm := NewStateMachine()
	report := func(phase Phase, pct float64) {
		if progress != nil {
			progress(phase, pct)
		}
	}
	fail := func(err *Error) (*Result, error) {
		_ = sm.Advance(StateFailed)
		return nil, err
	}

	if req.AudioPath == "" {
		return fail(inputErr("audio path is required"))
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return fail(inputErr("audio file unreadable: %w", err))
	}
	if req.OutputPath == "" {
		return fail(inputErr("output path is required"))
	}
	if req.Width <= 0 || req.Height <= 0 {
		return fail(inputErr("invalid frame size %dx%d", req.Width, req.Height))
	}

	duration := req.Duration
	if duration <= 0 {
		probed, err := p.Probe(ctx, req.AudioPath)
		if err != nil {
			return fail(inputErr("probe audio duration: %w", err))
		}
		duration = probed
	}
	if duration <= 0 {
		return fail(inputErr("audio duration must be positive, got %.3f", duration))
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	workDir := filepath.Join(os.TempDir(), "render-"+id)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fail(ioErr(fmt.Errorf("create work dir: %w", err)))
	}
	defer os.RemoveAll(workDir)

	if err := sm.Advance(StateComposing); err != nil {
		return fail(ioErr(err))
	}
	report(PhaseCompose, 0)

	var words []timing.AlignedWord
	if p.aligner != nil && strings.TrimSpace(req.Script) != "" {
		aligned, err := p.aligner.Align(ctx, req.AudioPath)
		if err != nil {
			log.Printf("[render] Warning: word alignment unavailable (%v) — using heuristic timing", err)
		} else {
			words = aligned
		}
	}
	report(PhaseCompose, 25)

	segs := timing.Resolve(req.Script, duration, words)
	segs = timing.Smooth(segs, duration)
	report(PhaseCompose, 50)

	builder := timeline.NewBuilder(req.Width, req.Height,
		p.cfg.Video.TransitionSec, p.cfg.Video.ForceOpeningZoom, p.effectRNG(id))
	builder.Prepare = p.preparer(workDir, req.Width, req.Height)
	visuals := builder.Build(ctx, req.Images, duration)
	report(PhaseCompose, 75)

	comp := overlay.NewCompositor(req.Width, req.Height,
		p.cfg.Overlay.TitleFontSize, p.cfg.Overlay.SubtitleFontSize,
		p.cfg.Overlay.Font, p.cfg.Overlay.PlateOpacity)
	overlays := comp.Compose(req.Title, duration, segs)
	report(PhaseCompose, 100)

	if err := sm.Advance(StateRendering); err != nil {
		return fail(ioErr(err))
	}
	report(PhaseRender, 0)

	job := encoder.Job{
		Visuals:    visuals,
		Overlays:   overlays,
		AudioPath:  req.AudioPath,
		Width:      req.Width,
		Height:     req.Height,
		FPS:        p.cfg.Video.FPS,
		Duration:   duration,
		Font:       p.cfg.Overlay.Font,
		OutputPath: req.OutputPath,
	}
	err := p.enc.Encode(ctx, job, func(frame, total int) {
		if total > 0 {
			report(PhaseRender, 100*float64(frame)/float64(total))
		}
	})
	if err != nil {
		return fail(encodeErr(err))
	}
	report(PhaseRender, 100)

	if err := sm.Advance(StateExporting); err != nil {
		return fail(ioErr(err))
	}
	report(PhaseExport, 0)

	thumbPath := req.ThumbnailPath
	if thumbPath != "" {
		if err := p.Thumbnail(ctx, req.OutputPath, thumbPath); err != nil {
			log.Printf("[render] Warning: thumbnail export failed: %v", err)
			thumbPath = ""
		}
	}
	report(PhaseExport, 100)

	if err := sm.Advance(StateDone); err != nil {
		return fail(ioErr(err))
	}

	return &Result{
		VideoPath:     req.OutputPath,
		ThumbnailPath: thumbPath,
		Duration:      duration,
		Segments:      segs,
	}, nil
}

// preparer crops raw images to the frame size inside the request's scratch
// directory, rejecting anything below the minimum pixel floor.
func (p *Pipeline) preparer(workDir string, width, height int) timeline.Preparer {
	if p.Prepare != nil {
		return p.Prepare
	}
	minPixels := p.cfg.Images.MinPixels
	return func(ctx context.Context, src string) (string, error) {
		w, h, err := media.Dimensions(ctx, src)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", src, err)
		}
		if w < minPixels || h < minPixels {
			return "", fmt.Errorf("image %s too small: %dx%d", src, w, h)
		}
		dst := filepath.Join(workDir, uuid.New().String()+".jpg")
		if err := media.CropToFill(ctx, src, dst, width, height); err != nil {
			return "", err
		}
		return dst, nil
	}
}
