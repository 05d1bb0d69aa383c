package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nhd2106/youtube-shorts-agents/internal/config"
	"github.com/nhd2106/youtube-shorts-agents/internal/encoder"
	"github.com/nhd2106/youtube-shorts-agents/internal/timeline"
)

// fakeEncoder records the job it was handed and emits a short progress burst.
type fakeEncoder struct {
	mu   sync.Mutex
	job  encoder.Job
	fail error
}

func (f *fakeEncoder) Encode(ctx context.Context, job encoder.Job, progress encoder.ProgressFunc) error {
	f.mu.Lock()
	f.job = job
	f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	total := job.TotalFrames()
	progress(total/2, total)
	progress(total, total)
	return os.WriteFile(job.OutputPath, []byte("mp4"), 0644)
}

type phaseEvent struct {
	phase Phase
	pct   float64
}

func testPipeline(t *testing.T, enc encoder.Encoder) (*Pipeline, Request) {
	t.Helper()
	dir := t.TempDir()
	audio := filepath.Join(dir, "voice.mp3")
	if err := os.WriteFile(audio, []byte("mp3"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New(config.Default(), enc, nil, 7)
	p.Probe = func(ctx context.Context, path string) (float64, error) { return 9, nil }
	p.Prepare = func(ctx context.Context, src string) (string, error) { return src, nil }
	p.Thumbnail = func(ctx context.Context, video, dst string) error {
		return os.WriteFile(dst, []byte("jpg"), 0644)
	}

	req := Request{
		AudioPath:     audio,
		Title:         "Big News",
		Script:        "Hello world. This is a test.",
		Images:        []string{"a.jpg", "b.jpg", "c.jpg"},
		Width:         1080,
		Height:        1920,
		OutputPath:    filepath.Join(dir, "out.mp4"),
		ThumbnailPath: filepath.Join(dir, "thumb.jpg"),
	}
	return p, req
}

func TestRunPhaseOrdering(t *testing.T) {
	p, req := testPipeline(t, &fakeEncoder{})

	var events []phaseEvent
	res, err := p.Run(context.Background(), req, func(phase Phase, pct float64) {
		events = append(events, phaseEvent{phase, pct})
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.VideoPath != req.OutputPath {
		t.Errorf("video path = %q", res.VideoPath)
	}

	order := map[Phase]int{PhaseCompose: 0, PhaseRender: 1, PhaseExport: 2}
	seen := -1
	reached := map[Phase]float64{}
	for _, ev := range events {
		rank := order[ev.phase]
		if rank < seen {
			t.Fatalf("phase %s reported after a later phase began", ev.phase)
		}
		if rank > seen {
			// a phase must finish before its successor starts
			for ph, r := range order {
				if r < rank && reached[ph] != 100 {
					t.Fatalf("phase %s began before %s reached 100 (at %.1f)", ev.phase, ph, reached[ph])
				}
			}
			seen = rank
		}
		if ev.pct < reached[ev.phase] {
			t.Errorf("phase %s progress went backwards: %.1f after %.1f", ev.phase, ev.pct, reached[ev.phase])
		}
		reached[ev.phase] = ev.pct
	}
	for _, ph := range []Phase{PhaseCompose, PhaseRender, PhaseExport} {
		if reached[ph] != 100 {
			t.Errorf("phase %s never reached 100 (got %.1f)", ph, reached[ph])
		}
	}
}

func TestRunPassesComposedJobToEncoder(t *testing.T) {
	enc := &fakeEncoder{}
	p, req := testPipeline(t, enc)

	res, err := p.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(enc.job.Visuals) != 3 {
		t.Errorf("encoder got %d visual segments, want 3", len(enc.job.Visuals))
	}
	if len(enc.job.Overlays) == 0 {
		t.Error("encoder got no overlays")
	}
	if enc.job.FPS != 30 || enc.job.Width != 1080 || enc.job.Height != 1920 {
		t.Errorf("job geometry wrong: %dx%d@%d", enc.job.Width, enc.job.Height, enc.job.FPS)
	}
	if len(res.Segments) == 0 {
		t.Error("result carries no timing segments")
	}
	if res.ThumbnailPath == "" {
		t.Error("thumbnail path missing from result")
	}
}

func TestRunEmptyScriptRendersAudioOnly(t *testing.T) {
	enc := &fakeEncoder{}
	p, req := testPipeline(t, enc)
	req.Script = ""
	req.Title = ""

	res, err := p.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("empty script must not fail the render: %v", err)
	}
	if len(res.Segments) != 0 {
		t.Errorf("empty script produced %d timing segments", len(res.Segments))
	}
	if len(enc.job.Overlays) != 0 {
		t.Errorf("empty script produced %d overlays", len(enc.job.Overlays))
	}
	if len(enc.job.Visuals) != 3 {
		t.Errorf("visual timeline missing: %d segments", len(enc.job.Visuals))
	}
}

func TestRunEncoderFailureIsTyped(t *testing.T) {
	enc := &fakeEncoder{fail: errors.New("boom")}
	p, req := testPipeline(t, enc)

	_, err := p.Run(context.Background(), req, nil)
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindEncode {
		t.Fatalf("want encode error, got %v", err)
	}
}

func TestRunMissingAudioIsInputError(t *testing.T) {
	p, req := testPipeline(t, &fakeEncoder{})
	req.AudioPath = filepath.Join(t.TempDir(), "nope.mp3")

	_, err := p.Run(context.Background(), req, nil)
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindInput {
		t.Fatalf("want input error, got %v", err)
	}
}

func TestRunBadProbeIsInputError(t *testing.T) {
	p, req := testPipeline(t, &fakeEncoder{})
	p.Probe = func(ctx context.Context, path string) (float64, error) {
		return 0, fmt.Errorf("no stream")
	}

	_, err := p.Run(context.Background(), req, nil)
	var rerr *Error
	if !errors.As(err, &rerr) || rerr.Kind != KindInput {
		t.Fatalf("want input error, got %v", err)
	}
}

func TestRunThumbnailFailureDegrades(t *testing.T) {
	p, req := testPipeline(t, &fakeEncoder{})
	p.Thumbnail = func(ctx context.Context, video, dst string) error {
		return fmt.Errorf("no frame")
	}

	res, err := p.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("thumbnail failure must not fail the render: %v", err)
	}
	if res.ThumbnailPath != "" {
		t.Errorf("degraded render still reports thumbnail %q", res.ThumbnailPath)
	}
}

func TestRunConcurrentRequests(t *testing.T) {
	enc := &fakeEncoder{}
	p, base := testPipeline(t, enc)
	dir := t.TempDir()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := base
			req.ID = fmt.Sprintf("req-%d", i)
			req.OutputPath = filepath.Join(dir, fmt.Sprintf("out_%d.mp4", i))
			req.ThumbnailPath = filepath.Join(dir, fmt.Sprintf("thumb_%d.jpg", i))
			_, errs[i] = p.Run(context.Background(), req, nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent request %d failed: %v", i, err)
		}
	}
}

func TestRunEffectSelectionReproducible(t *testing.T) {
	effects := func() []timeline.EffectKind {
		enc := &fakeEncoder{}
		p, req := testPipeline(t, enc)
		req.ID = "fixed-id"
		if _, err := p.Run(context.Background(), req, nil); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		kinds := make([]timeline.EffectKind, len(enc.job.Visuals))
		for i, v := range enc.job.Visuals {
			kinds[i] = v.Effect
		}
		return kinds
	}

	first := effects()
	second := effects()
	if len(first) != len(second) {
		t.Fatalf("segment counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed and id produced different effects at %d: %q vs %q",
				i, first[i], second[i])
		}
	}
}

func TestRunExplicitDurationSkipsProbe(t *testing.T) {
	p, req := testPipeline(t, &fakeEncoder{})
	p.Probe = func(ctx context.Context, path string) (float64, error) {
		t.Error("probe called despite explicit duration")
		return 0, nil
	}
	req.Duration = 12.5

	res, err := p.Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Duration != 12.5 {
		t.Errorf("duration = %.2f, want 12.5", res.Duration)
	}
}
