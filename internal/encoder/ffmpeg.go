package encoder

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg encodes jobs by driving the ffmpeg binary with a single
// filter_complex pass: motion per segment, cross-fades, drawtext overlays,
// then mux with the narration audio.
type FFmpeg struct{}

// NewFFmpeg returns the production encoder.
func NewFFmpeg() *FFmpeg { return &FFmpeg{} }

// Encode runs ffmpeg for the job, reporting frame progress as it goes. On
// any failure, including cancellation, the partial output file is removed.
func (e *FFmpeg) Encode(ctx context.Context, job Job, progress ProgressFunc) error {
	if len(job.Visuals) == 0 {
		return fmt.Errorf("encode: job has no visual segments")
	}

	args := []string{"-y"}
	for _, seg := range job.Visuals {
		if seg.Placeholder || seg.Image == "" {
			args = append(args,
				"-f", "lavfi",
				"-t", fmt.Sprintf("%.3f", seg.Duration),
				"-i", fmt.Sprintf("color=c=0x191919:s=%dx%d:r=%d", job.Width, job.Height, job.FPS),
			)
			continue
		}
		args = append(args,
			"-loop", "1",
			"-t", fmt.Sprintf("%.3f", seg.Duration),
			"-i", seg.Image,
		)
	}
	audioIndex := len(job.Visuals)
	args = append(args, "-i", job.AudioPath)

	args = append(args,
		"-filter_complex", buildFilterGraph(job),
		"-map", "[vout]",
		"-map", fmt.Sprintf("%d:a", audioIndex),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-r", strconv.Itoa(job.FPS),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", fmt.Sprintf("%.3f", job.Duration),
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		job.OutputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("encode: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("encode: start ffmpeg: %w", err)
	}

	total := job.TotalFrames()
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if frame, ok := parseProgressFrame(line); ok && progress != nil {
			if frame > total {
				frame = total
			}
			progress(frame, total)
		}
	}

	if err := cmd.Wait(); err != nil {
		// never leave a partial container behind
		if rmErr := os.Remove(job.OutputPath); rmErr == nil {
			log.Printf("[encode] Removed partial output %s", job.OutputPath)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("encode: ffmpeg failed: %w", err)
	}

	if progress != nil {
		progress(total, total)
	}
	return nil
}

// parseProgressFrame extracts the frame counter from ffmpeg -progress
// key=value output.
func parseProgressFrame(line string) (int, bool) {
	value, found := strings.CutPrefix(strings.TrimSpace(line), "frame=")
	if !found {
		return 0, false
	}
	frame, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return frame, true
}
