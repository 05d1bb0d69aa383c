// Package media wraps ffprobe/ffmpeg for the handful of file operations the
// pipeline needs: probing durations and dimensions, conforming images to the
// frame size, and producing placeholder frames.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Duration returns the duration of an audio or video file in seconds.
func Duration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %s: %w", path, err)
	}
	var dur float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse duration for %s: %w", path, err)
	}
	return dur, nil
}

// Dimensions returns the pixel width and height of an image or video stream.
func Dimensions(ctx context.Context, path string) (int, int, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	).Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe dimensions %s: %w", path, err)
	}
	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("parse dimensions for %s: %w", path, err)
	}
	return w, h, nil
}

// CropToFill scales and center-crops an image so it exactly matches the
// target frame, preserving aspect ratio. Used when dimensions must match
// precisely (background images before effects are applied).
func CropToFill(ctx context.Context, src, dst string, width, height int) error {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		width, height, width, height,
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", src,
		"-vf", filter,
		"-q:v", "2",
		dst,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg crop-to-fill %s: %w", src, err)
	}
	return nil
}

// Letterbox scales an image into the target frame, padding with black bars
// instead of cropping.
func Letterbox(ctx context.Context, src, dst string, width, height int) error {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		width, height, width, height,
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", src,
		"-vf", filter,
		"-q:v", "2",
		dst,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg letterbox %s: %w", src, err)
	}
	return nil
}

// SolidFrame writes a single dark frame at the target size, the placeholder
// used when a background image is missing or unreadable.
func SolidFrame(ctx context.Context, dst string, width, height int) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=0x191919:s=%dx%d:d=1", width, height),
		"-frames:v", "1",
		dst,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg solid frame: %w", err)
	}
	return nil
}

// FirstFrame extracts the first frame of a video as a JPEG thumbnail.
func FirstFrame(ctx context.Context, video, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", video,
		"-frames:v", "1",
		"-q:v", "2",
		dst,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg thumbnail: %w", err)
	}
	return nil
}
