package encoder

import (
	"fmt"
	"strings"

	"github.com/nhd2106/youtube-shorts-agents/internal/overlay"
	"github.com/nhd2106/youtube-shorts-agents/internal/timeline"
)

// upscaleFactor reduces zoompan jitter: zoom on an oversized frame, then
// scale back down to the target.
const upscaleFactor = 2

// buildFilterGraph assembles the full -filter_complex expression for a job:
// one motion chain per visual input, cross-fades between neighbours, then
// the drawtext overlay stack. Input index i corresponds to visual segment i;
// the audio input follows the visuals.
func buildFilterGraph(job Job) string {
	var parts []string

	for i, seg := range job.Visuals {
		parts = append(parts, segmentChain(job, i, seg))
	}

	current := "[v0]"
	for i := 1; i < len(job.Visuals); i++ {
		prev := job.Visuals[i-1]
		label := fmt.Sprintf("[x%d]", i)
		dur := prev.Transition
		if dur <= 0 {
			dur = 0.01 // xfade needs a positive window even for hard cuts
		}
		parts = append(parts, fmt.Sprintf(
			"%s[v%d]xfade=transition=fade:duration=%.3f:offset=%.3f%s",
			current, i, dur, job.Visuals[i].Start, label,
		))
		current = label
	}

	for i, ov := range job.Overlays {
		label := fmt.Sprintf("[t%d]", i)
		parts = append(parts, current+drawtextFilter(job, ov)+label)
		current = label
	}

	// normalize the final label ffmpeg maps on
	parts = append(parts, current+"format=yuv420p[vout]")

	return strings.Join(parts, ";")
}

// segmentChain scales one input to the working size, applies its motion
// effect, and conforms timestamps to the segment's place on the timeline.
func segmentChain(job Job, index int, seg timeline.Segment) string {
	w, h := job.Width, job.Height
	frames := int(seg.Duration * float64(job.FPS))
	if frames < 1 {
		frames = 1
	}

	chain := fmt.Sprintf("[%d:v]scale=%d:%d,%s,scale=%d:%d,fps=%d,setsar=1",
		index, w*upscaleFactor, h*upscaleFactor,
		effectExpr(seg.Effect, frames, job.FPS, w, h),
		w, h, job.FPS,
	)
	if seg.Start > 0 {
		chain += fmt.Sprintf(",setpts=PTS-STARTPTS+%.3f/TB", seg.Start)
	} else {
		chain += ",setpts=PTS-STARTPTS"
	}
	return chain + fmt.Sprintf("[v%d]", index)
}

// effectExpr renders one motion effect as a zoompan filter. The eased
// progress is the smoothstep curve over the frame counter, matching
// timeline.EffectSpec exactly.
func effectExpr(kind timeline.EffectKind, frames, fps, width, height int) string {
	// normalized progress for frame counter `on`
	p := fmt.Sprintf("(on/%d)", frames)
	eased := fmt.Sprintf("(pow(%s,2)*(3-2*%s))", p, p)
	centerX := "iw/2-(iw/zoom/2)"
	centerY := "ih/2-(ih/zoom/2)"

	var z, x string
	switch kind {
	case timeline.EffectZoomIn:
		z = fmt.Sprintf("1+0.15*%s", eased)
		x = centerX
	case timeline.EffectZoomOut:
		z = fmt.Sprintf("1.15-0.15*%s", eased)
		x = centerX
	case timeline.EffectPanLeft:
		z = "1.08"
		x = fmt.Sprintf("%s+(iw*0.04)*(1-2*%s)", centerX, eased)
	case timeline.EffectPanRight:
		z = "1.08"
		x = fmt.Sprintf("%s+(iw*0.04)*(2*%s-1)", centerX, eased)
	default:
		z = "1"
		x = centerX
	}

	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:fps=%d:s=%dx%d",
		z, x, centerY, frames, fps, width*upscaleFactor, height*upscaleFactor)
}

// drawtextFilter renders one overlay as a drawtext filter with a boxed
// plate, fade-in/out alpha, and (for the title) the sinusoidal float.
func drawtextFilter(job Job, ov overlay.Overlay) string {
	y := fmt.Sprintf("%.0f", ov.Y)
	if ov.Kind == overlay.KindTitle && ov.FloatAmpPx > 0 {
		y = fmt.Sprintf("%.0f+%.0f*sin(2*PI*t/%.0f)", ov.Y, ov.FloatAmpPx, ov.FloatPeriod)
	}
	if ov.Kind == overlay.KindSubtitle {
		// anchor the text block above the bottom margin
		y = fmt.Sprintf("%.0f-th", ov.Y)
	}

	return fmt.Sprintf(
		"drawtext=text='%s':font=%s:fontsize=%d:fontcolor=white:"+
			"box=1:boxcolor=black@%.2f:boxborderw=20:"+
			"x=(w-tw)/2:y=%s:alpha='%s':enable='between(t,%.3f,%.3f)'",
		escapeDrawtext(ov.Text()), job.Font, ov.FontSize,
		ov.PlateAlpha, y, fadeAlpha(ov), ov.Start, ov.End,
	)
}

// fadeAlpha ramps opacity linearly over the fade windows at both ends of the
// overlay's visible interval.
func fadeAlpha(ov overlay.Overlay) string {
	if ov.FadeIn <= 0 && ov.FadeOut <= 0 {
		return "1"
	}
	return fmt.Sprintf(
		"if(lt(t-%.3f,%.3f),(t-%.3f)/%.3f,if(lt(%.3f-t,%.3f),(%.3f-t)/%.3f,1))",
		ov.Start, ov.FadeIn, ov.Start, ov.FadeIn,
		ov.End, ov.FadeOut, ov.End, ov.FadeOut,
	)
}

// escapeDrawtext escapes the characters drawtext treats specially.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\\\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
