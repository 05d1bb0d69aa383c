package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nhd2106/youtube-shorts-agents/internal/config"
	"github.com/nhd2106/youtube-shorts-agents/internal/content"
	"github.com/nhd2106/youtube-shorts-agents/internal/images"
	"github.com/nhd2106/youtube-shorts-agents/internal/render"
	"github.com/nhd2106/youtube-shorts-agents/internal/tracker"
)

type fakeContent struct {
	genErr error
}

func (f *fakeContent) Generate(ctx context.Context, idea string) (*content.Content, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &content.Content{
		Title:    "Test Title",
		Script:   "Hello world. This is a script.",
		Hashtags: []string{"#a", "#b"},
	}, nil
}

func (f *fakeContent) ImagePrompts(ctx context.Context, script string) []string {
	return []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9", "p10"}
}

type fakeAudio struct{ err error }

func (f *fakeAudio) Generate(ctx context.Context, script, model, voice, outPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", err
	}
	return outPath, os.WriteFile(outPath, []byte("mp3"), 0644)
}

type fakeImages struct {
	downloaded     []string
	generatedCount int
}

func (f *fakeImages) DownloadAll(ctx context.Context, urls []string, outDir string) []string {
	return f.downloaded
}

func (f *fakeImages) GenerateAll(ctx context.Context, prompts []string, format images.Format, outDir string) []string {
	f.generatedCount = len(prompts)
	out := make([]string, len(prompts))
	for i := range prompts {
		out[i] = filepath.Join(outDir, "gen.jpg")
	}
	return out
}

type fakeRenderer struct {
	req render.Request
	err error
}

func (f *fakeRenderer) Run(ctx context.Context, req render.Request, progress render.ProgressFunc) (*render.Result, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	if progress != nil {
		progress(render.PhaseCompose, 100)
		progress(render.PhaseRender, 50)
		progress(render.PhaseExport, 100)
	}
	return &render.Result{
		VideoPath:     req.OutputPath,
		ThumbnailPath: req.ThumbnailPath,
		Duration:      42,
	}, nil
}

type trackerEvent struct {
	status   tracker.Status
	progress int
}

type fakeTracker struct {
	mu     sync.Mutex
	events []trackerEvent
	result any
	failed string
}

func (f *fakeTracker) Update(ctx context.Context, id string, status tracker.Status, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, trackerEvent{status, progress})
	return nil
}

func (f *fakeTracker) SetResult(ctx context.Context, id string, result any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
	return nil
}

func (f *fakeTracker) Fail(ctx context.Context, id, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = message
	return nil
}

func testApp(t *testing.T) (*App, *fakeImages, *fakeRenderer, *fakeTracker) {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.Audio = filepath.Join(root, "audio")
	cfg.Paths.Images = filepath.Join(root, "images")
	cfg.Paths.Video = filepath.Join(root, "video")
	cfg.Paths.Thumbnail = filepath.Join(root, "thumbnail")
	cfg.Paths.Script = filepath.Join(root, "script")

	imgs := &fakeImages{}
	rend := &fakeRenderer{}
	tr := &fakeTracker{}
	app := New(cfg, &fakeContent{}, &fakeAudio{}, imgs, rend, tr)
	return app, imgs, rend, tr
}

func TestRunHappyPath(t *testing.T) {
	app, _, rend, tr := testApp(t)

	req := GenerateRequest{Idea: "ocean facts", Format: "shorts", TTSModel: "edge"}
	if err := app.Run(context.Background(), "req-1", req); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if rend.req.Title != "Test Title" || rend.req.Width != 1080 || rend.req.Height != 1920 {
		t.Errorf("render request wrong: %+v", rend.req)
	}
	if tr.result == nil {
		t.Fatal("no result recorded")
	}
	result := tr.result.(map[string]any)
	if _, ok := result["video"]; !ok {
		t.Error("result missing video entry")
	}
	if tr.failed != "" {
		t.Errorf("unexpected failure: %s", tr.failed)
	}
}

func TestRunStatusSequence(t *testing.T) {
	app, _, _, tr := testApp(t)

	if err := app.Run(context.Background(), "req-2", GenerateRequest{Idea: "x"}); err != nil {
		t.Fatal(err)
	}

	want := []tracker.Status{
		tracker.StatusGeneratingScript,
		tracker.StatusGeneratingAudio,
		tracker.StatusGeneratingVideo,
	}
	var seen []tracker.Status
	for _, ev := range tr.events {
		if len(seen) == 0 || seen[len(seen)-1] != ev.status {
			seen = append(seen, ev.status)
		}
	}
	if len(seen) != len(want) {
		t.Fatalf("status sequence = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("status[%d] = %s, want %s", i, seen[i], want[i])
		}
	}

	last := 0
	for _, ev := range tr.events {
		if ev.progress < last {
			t.Errorf("progress went backwards: %d after %d", ev.progress, last)
		}
		last = ev.progress
	}
}

func TestRunTopsUpGeneratedImages(t *testing.T) {
	app, imgs, _, _ := testApp(t)
	imgs.downloaded = []string{"a.jpg", "b.jpg", "c.jpg"}

	req := GenerateRequest{Idea: "x", Format: "shorts", ImageURLs: []string{"u1", "u2", "u3"}}
	if err := app.Run(context.Background(), "req-3", req); err != nil {
		t.Fatal(err)
	}
	// shorts wants 9, three were downloaded
	if imgs.generatedCount != 6 {
		t.Errorf("generated %d prompts, want 6", imgs.generatedCount)
	}
}

func TestRunArtifactsKeyedByRequestID(t *testing.T) {
	app, _, rend, _ := testApp(t)

	const id = "req-keyed-7"
	if err := app.Run(context.Background(), id, GenerateRequest{Idea: "x", Format: "shorts"}); err != nil {
		t.Fatal(err)
	}

	for name, path := range map[string]string{
		"audio":     rend.req.AudioPath,
		"video":     rend.req.OutputPath,
		"thumbnail": rend.req.ThumbnailPath,
	} {
		if !strings.Contains(filepath.Base(path), id) {
			t.Errorf("%s artifact %q not keyed by request id", name, path)
		}
	}
	contentPath := filepath.Join(app.cfg.Paths.Script, "content_"+id+".txt")
	if _, err := os.Stat(contentPath); err != nil {
		t.Errorf("content file not keyed by request id: %v", err)
	}
}

func TestRunContentFailureRecorded(t *testing.T) {
	app, _, _, tr := testApp(t)
	app.content = &fakeContent{genErr: errors.New("model down")}

	if err := app.Run(context.Background(), "req-4", GenerateRequest{Idea: "x"}); err == nil {
		t.Fatal("content failure not surfaced")
	}
	if tr.failed == "" {
		t.Error("tracker not marked failed")
	}
}

func TestRunRenderFailureRecorded(t *testing.T) {
	app, _, rend, tr := testApp(t)
	rend.err = errors.New("encode exploded")

	if err := app.Run(context.Background(), "req-5", GenerateRequest{Idea: "x"}); err == nil {
		t.Fatal("render failure not surfaced")
	}
	if tr.failed == "" {
		t.Error("tracker not marked failed")
	}
}

func TestRenderProgressBands(t *testing.T) {
	cases := []struct {
		phase render.Phase
		pct   float64
		want  int
	}{
		{render.PhaseCompose, 0, 70},
		{render.PhaseCompose, 100, 75},
		{render.PhaseRender, 0, 75},
		{render.PhaseRender, 100, 97},
		{render.PhaseExport, 100, 100},
	}
	for _, c := range cases {
		if got := renderProgress(c.phase, c.pct); got != c.want {
			t.Errorf("renderProgress(%s, %.0f) = %d, want %d", c.phase, c.pct, got, c.want)
		}
	}
}

func TestRunBadFormatRejected(t *testing.T) {
	app, _, _, _ := testApp(t)
	if err := app.Run(context.Background(), "req-6", GenerateRequest{Idea: "x", Format: "imax"}); err == nil {
		t.Error("bogus format accepted")
	}
}
