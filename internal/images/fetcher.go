// Package images collects background images for a render, either by
// downloading caller-supplied URLs or by generating them through
// Pollinations.ai. Undersized and broken images are dropped, not fatal.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Format is a target video geometry.
type Format struct {
	Name   string
	Width  int
	Height int
}

var (
	Shorts = Format{Name: "shorts", Width: 1080, Height: 1920}
	Normal = Format{Name: "normal", Width: 1920, Height: 1080}
)

// FormatByName resolves a format id from an API request.
func FormatByName(name string) (Format, error) {
	switch name {
	case "shorts", "":
		return Shorts, nil
	case "normal":
		return Normal, nil
	}
	return Format{}, fmt.Errorf("images: unknown format %q", name)
}

// Required is how many background images a full video of this format wants.
func (f Format) Required() int {
	if f.Name == "shorts" {
		return 9
	}
	return 18
}

const (
	maxConcurrent = 3
	minBodyBytes  = 100 // smaller responses are error pages, not images
)

// Fetcher downloads and generates background images.
type Fetcher struct {
	client    *http.Client
	minPixels int
}

// New creates a Fetcher enforcing the given minimum edge length.
func New(minPixels int) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: 60 * time.Second},
		minPixels: minPixels,
	}
}

// DownloadAll fetches every URL concurrently and returns the paths that
// survived validation, in input order. Failures are logged and skipped.
func (f *Fetcher) DownloadAll(ctx context.Context, urls []string, outDir string) []string {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Printf("[images] Cannot create %s: %v", outDir, err)
		return nil
	}

	results := make([]string, len(urls))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			dst := filepath.Join(outDir, uuid.New().String()+".jpg")
			if err := f.fetch(ctx, u, dst); err != nil {
				log.Printf("[images] Skipping %s: %v", u, err)
				return
			}
			results[i] = dst
		}(i, u)
	}
	wg.Wait()

	var paths []string
	for _, p := range results {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// GenerateAll produces one AI image per prompt via Pollinations, sized for
// the format. Failed prompts are skipped.
func (f *Fetcher) GenerateAll(ctx context.Context, prompts []string, format Format, outDir string) []string {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Printf("[images] Cannot create %s: %v", outDir, err)
		return nil
	}

	var paths []string
	for i, prompt := range prompts {
		dst := filepath.Join(outDir, fmt.Sprintf("generated_%03d.jpg", i))
		if err := f.fetch(ctx, PollinationsURL(prompt, format, i), dst); err != nil {
			log.Printf("[images] Prompt %d failed: %v", i, err)
			continue
		}
		paths = append(paths, dst)
	}
	return paths
}

// PollinationsURL builds the generation URL for one prompt. The seed is
// derived from the prompt index so reruns produce the same image.
func PollinationsURL(prompt string, format Format, index int) string {
	return fmt.Sprintf(
		"https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d",
		url.PathEscape(prompt), format.Width, format.Height, index*42+7,
	)
}

// fetch downloads one image with retries and validates it before writing.
func (f *Fetcher) fetch(ctx context.Context, imageURL, dst string) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = f.fetchOnce(ctx, imageURL, dst)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return fmt.Errorf("after 3 attempts: %w", err)
}

func (f *Fetcher) fetchOnce(ctx context.Context, imageURL, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ShortsAgents/1.0)")
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := f.validate(data); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// validate rejects error pages and images below the pixel floor.
func (f *Fetcher) validate(data []byte) error {
	if len(data) < minBodyBytes {
		return fmt.Errorf("response too small (%d bytes)", len(data))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not a decodable image: %w", err)
	}
	if cfg.Width < f.minPixels || cfg.Height < f.minPixels {
		return fmt.Errorf("image too small: %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}
