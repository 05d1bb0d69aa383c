// Package timeline allocates the background image set across the audio
// duration, producing per-segment render specs with motion effects and
// cross-fade transitions.
package timeline

import (
	"context"
	"log"
	"math/rand"
	"sync"
)

// Segment is one background image bound to a time interval and an effect.
// Placeholder segments render as a solid color instead of an image.
type Segment struct {
	Image       string     `json:"image"`
	Start       float64    `json:"start"`
	Duration    float64    `json:"duration"`
	Effect      EffectKind `json:"effect"`
	Transition  float64    `json:"transition"` // cross-fade into the successor; 0 on the last
	Placeholder bool       `json:"placeholder"`
}

// End is the instant this segment leaves the screen, including the
// transition tail.
func (s Segment) End() float64 { return s.Start + s.Duration }

// Preparer turns a raw image into a frame-sized one; failures degrade the
// segment to a placeholder rather than aborting the timeline.
type Preparer func(ctx context.Context, src string) (string, error)

// Builder divides the audio duration across the image set.
type Builder struct {
	Width            int
	Height           int
	TransitionSec    float64
	ForceOpeningZoom bool
	Prepare          Preparer

	rng *rand.Rand
}

// NewBuilder creates a Builder with an injected random source so effect
// sequences are reproducible under a fixed seed.
func NewBuilder(width, height int, transitionSec float64, forceOpeningZoom bool, rng *rand.Rand) *Builder {
	return &Builder{
		Width:            width,
		Height:           height,
		TransitionSec:    transitionSec,
		ForceOpeningZoom: forceOpeningZoom,
		rng:              rng,
	}
}

// Build allocates the images evenly across totalDuration. Every segment but
// the last is extended by one transition window so its tail overlaps the
// successor's head for the cross-fade. An empty image list degrades to a
// single full-duration placeholder.
func (b *Builder) Build(ctx context.Context, images []string, totalDuration float64) []Segment {
	if len(images) == 0 {
		log.Println("[timeline] No background images — using solid color fallback")
		return []Segment{{
			Start:       0,
			Duration:    totalDuration,
			Effect:      EffectStatic,
			Placeholder: true,
		}}
	}

	prepared := b.prepareAll(ctx, images)

	segDuration := totalDuration / float64(len(images))
	transition := b.TransitionSec
	if transition > segDuration {
		transition = segDuration
	}

	segs := make([]Segment, len(images))
	for i := range images {
		dur := segDuration
		tr := 0.0
		if i < len(images)-1 {
			dur += transition
			tr = transition
		}
		segs[i] = Segment{
			Image:       prepared[i],
			Start:       float64(i) * segDuration,
			Duration:    dur,
			Effect:      b.pickEffect(i),
			Transition:  tr,
			Placeholder: prepared[i] == "",
		}
	}
	return segs
}

// prepareAll resizes/crops every image concurrently, collecting results in
// the original order. A failed image becomes an empty path (placeholder).
func (b *Builder) prepareAll(ctx context.Context, images []string) []string {
	prepared := make([]string, len(images))
	if b.Prepare == nil {
		copy(prepared, images)
		return prepared
	}

	var wg sync.WaitGroup
	for i, src := range images {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			out, err := b.Prepare(ctx, src)
			if err != nil {
				log.Printf("[timeline] Warning: image %d failed (%v) — using placeholder", i, err)
				return
			}
			prepared[i] = out
		}(i, src)
	}
	wg.Wait()
	return prepared
}

// pickEffect draws one effect at random. When the opening-zoom policy is on,
// the first segment always zooms in for a consistent opening look.
func (b *Builder) pickEffect(index int) EffectKind {
	if index == 0 && b.ForceOpeningZoom {
		return EffectZoomIn
	}
	if b.rng == nil {
		return EffectStatic
	}
	return AllEffects[b.rng.Intn(len(AllEffects))]
}
