// Package encoder defines the narrow contract with the external video
// encoder and provides the production ffmpeg implementation. The engine
// hands over a fully composed timeline; the encoder's only job is
// "frames + audio → container file" at a fixed frame rate.
package encoder

import (
	"context"

	"github.com/nhd2106/youtube-shorts-agents/internal/overlay"
	"github.com/nhd2106/youtube-shorts-agents/internal/timeline"
)

// Job is one complete encode request: the composed visual and overlay
// tracks, the narration audio, and the target output.
type Job struct {
	Visuals    []timeline.Segment
	Overlays   []overlay.Overlay
	AudioPath  string
	Width      int
	Height     int
	FPS        int
	Duration   float64
	Font       string
	OutputPath string
}

// TotalFrames is the frame count the encoder is expected to produce.
func (j Job) TotalFrames() int {
	return int(j.Duration * float64(j.FPS))
}

// ProgressFunc receives frame-level progress while encoding runs.
type ProgressFunc func(frame, total int)

// Encoder writes a job to its output container. Implementations must be
// cancellable through the context and must not leave partial output files
// behind on failure or cancellation.
type Encoder interface {
	Encode(ctx context.Context, job Job, progress ProgressFunc) error
}
