// Package overlay builds the text layers composited above the visual
// timeline: one persistent title and one subtitle per timing segment.
package overlay

import (
	"strings"

	"github.com/nhd2106/youtube-shorts-agents/internal/timing"
)

// Kind distinguishes the two overlay layers.
type Kind string

const (
	KindTitle    Kind = "title"
	KindSubtitle Kind = "subtitle"
)

const (
	titleFadeSeconds  = 1.0
	titleYFraction    = 1.0 / 5 // anchor near the top
	floatAmplitudePx  = 8.0
	floatPeriodSec    = 4.0
	subtitleMaxFade   = 0.3
	subtitleFadeShare = 0.15 // of the segment's own duration
	bottomMarginFrac  = 0.15 // subtitle distance from the bottom edge
	wrapWidthFraction = 0.8  // text width cap relative to the frame
)

// Overlay is one positioned, fading text layer. Y is the pixel anchor of the
// text block's top edge; the title additionally floats sinusoidally around
// that anchor.
type Overlay struct {
	Kind        Kind     `json:"kind"`
	Lines       []string `json:"lines"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	FadeIn      float64  `json:"fade_in"`
	FadeOut     float64  `json:"fade_out"`
	FontSize    int      `json:"font_size"`
	Y           float64  `json:"y"`
	FloatAmpPx  float64  `json:"float_amp_px,omitempty"`
	FloatPeriod float64  `json:"float_period,omitempty"`
	PlateAlpha  float64  `json:"plate_alpha"`
}

// Text joins the wrapped lines back into a single string.
func (o Overlay) Text() string { return strings.Join(o.Lines, "\n") }

// Compositor lays out overlays for one frame geometry.
type Compositor struct {
	Width            int
	Height           int
	Font             string
	TitleFontSize    int
	SubtitleFontSize int
	PlateOpacity     float64
}

// NewCompositor creates a Compositor for the given frame.
func NewCompositor(width, height, titleFontSize, subtitleFontSize int, font string, plateOpacity float64) *Compositor {
	return &Compositor{
		Width:            width,
		Height:           height,
		Font:             font,
		TitleFontSize:    titleFontSize,
		SubtitleFontSize: subtitleFontSize,
		PlateOpacity:     plateOpacity,
	}
}

// Compose produces the full overlay stack, bottom to top: the title layer
// first, then one subtitle per segment. Segments with blank text are silence
// markers and produce nothing.
func (c *Compositor) Compose(title string, totalDuration float64, segs []timing.Segment) []Overlay {
	overlays := make([]Overlay, 0, len(segs)+1)
	if strings.TrimSpace(title) != "" {
		overlays = append(overlays, c.titleOverlay(title, totalDuration))
	}
	for _, seg := range segs {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		overlays = append(overlays, c.subtitleOverlay(seg))
	}
	return overlays
}

// titleOverlay spans the whole render with slow fades and a gentle vertical
// float for visual interest.
func (c *Compositor) titleOverlay(title string, totalDuration float64) Overlay {
	fade := titleFadeSeconds
	if half := totalDuration / 2; fade > half {
		fade = half
	}
	return Overlay{
		Kind:        KindTitle,
		Lines:       WrapText(title, c.maxLineChars(c.TitleFontSize)),
		Start:       0,
		End:         totalDuration,
		FadeIn:      fade,
		FadeOut:     fade,
		FontSize:    c.TitleFontSize,
		Y:           titleYFraction * float64(c.Height),
		FloatAmpPx:  floatAmplitudePx,
		FloatPeriod: floatPeriodSec,
		PlateAlpha:  c.PlateOpacity,
	}
}

// subtitleOverlay times its fades to land exactly on the segment bounds; the
// fade is short and never eats a large share of a brief segment.
func (c *Compositor) subtitleOverlay(seg timing.Segment) Overlay {
	fade := subtitleMaxFade
	if share := subtitleFadeShare * seg.Duration; fade > share {
		fade = share
	}
	return Overlay{
		Kind:       KindSubtitle,
		Lines:      WrapText(seg.Text, c.maxLineChars(c.SubtitleFontSize)),
		Start:      seg.Start,
		End:        seg.End,
		FadeIn:     fade,
		FadeOut:    fade,
		FontSize:   c.SubtitleFontSize,
		Y:          float64(c.Height) * (1 - bottomMarginFrac),
		PlateAlpha: c.PlateOpacity,
	}
}

// maxLineChars estimates how many characters fit in the wrap width for a
// given font size. Bold glyphs average a bit over half the em square.
func (c *Compositor) maxLineChars(fontSize int) int {
	avgCharWidth := 0.55 * float64(fontSize)
	chars := int(wrapWidthFraction * float64(c.Width) / avgCharWidth)
	if chars < 1 {
		chars = 1
	}
	return chars
}

// WrapText greedily wraps words into lines of at most maxChars characters.
// A single word longer than the limit gets its own line rather than being
// split mid-word.
func WrapText(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		if len(current)+1+len(w) <= maxChars {
			current += " " + w
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}
