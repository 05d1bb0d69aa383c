package timeline

// EffectKind names the motion applied to a background segment.
type EffectKind string

const (
	EffectStatic  EffectKind = "static"
	EffectZoomIn  EffectKind = "zoom-in"
	EffectZoomOut EffectKind = "zoom-out"
	EffectPanLeft EffectKind = "pan-left"
	EffectPanRight EffectKind = "pan-right"
)

// AllEffects is the pool random selection draws from.
var AllEffects = []EffectKind{
	EffectStatic, EffectZoomIn, EffectZoomOut, EffectPanLeft, EffectPanRight,
}

const (
	zoomMaxScale = 1.15
	panScale     = 1.08 // pans zoom slightly so the frame never shows edges
)

// Transform is the frame transform at one instant: a scale factor plus pixel
// offsets from the centered position.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// EffectSpec is a pure time→transform function over a segment's normalized
// time. Stateless and re-derivable from the kind and frame size; never
// persisted.
type EffectSpec struct {
	Kind   EffectKind
	Width  int
	Height int
}

// Smoothstep is the easing curve t²(3−2t); motion accelerates then
// decelerates. Input outside [0,1] is clamped.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// At evaluates the transform at normalized segment time t in [0,1].
func (e EffectSpec) At(t float64) Transform {
	eased := Smoothstep(t)
	switch e.Kind {
	case EffectZoomIn:
		return Transform{Scale: 1.0 + (zoomMaxScale-1.0)*eased}
	case EffectZoomOut:
		return Transform{Scale: zoomMaxScale - (zoomMaxScale-1.0)*eased}
	case EffectPanLeft:
		return Transform{Scale: panScale, OffsetX: e.maxPan() * (1 - 2*eased)}
	case EffectPanRight:
		return Transform{Scale: panScale, OffsetX: e.maxPan() * (2*eased - 1)}
	default:
		return Transform{Scale: 1.0}
	}
}

// maxPan is the horizontal travel available once the pan zoom is applied.
func (e EffectSpec) maxPan() float64 {
	return (panScale - 1.0) * float64(e.Width) / 2
}
