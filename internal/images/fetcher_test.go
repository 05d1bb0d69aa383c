package images

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDownloadAllKeepsValidImages(t *testing.T) {
	big := jpegBytes(t, 400, 400)
	small := jpegBytes(t, 100, 100)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/big.jpg":
			w.Write(big)
		case "/small.jpg":
			w.Write(small)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(300)
	paths := f.DownloadAll(context.Background(),
		[]string{srv.URL + "/big.jpg", srv.URL + "/small.jpg", srv.URL + "/big.jpg"},
		t.TempDir())

	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2 (undersized image must be dropped): %v", len(paths), paths)
	}
}

func TestFetchRejectsNonImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("<html>not an image</html>", 20)))
	}))
	defer srv.Close()

	f := New(300)
	paths := f.DownloadAll(context.Background(), []string{srv.URL}, t.TempDir())
	if len(paths) != 0 {
		t.Errorf("HTML page accepted as image: %v", paths)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	big := jpegBytes(t, 400, 400)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Write(big)
	}))
	defer srv.Close()

	f := New(300)
	paths := f.DownloadAll(context.Background(), []string{srv.URL}, t.TempDir())
	if len(paths) != 1 {
		t.Fatalf("retry did not recover: %v", paths)
	}
	if calls.Load() < 2 {
		t.Errorf("expected a retry, server saw %d calls", calls.Load())
	}
}

func TestPollinationsURLDeterministic(t *testing.T) {
	a := PollinationsURL("low angle shot", Shorts, 2)
	b := PollinationsURL("low angle shot", Shorts, 2)
	if a != b {
		t.Errorf("same inputs gave different URLs")
	}
	if !strings.Contains(a, "width=1080") || !strings.Contains(a, "height=1920") {
		t.Errorf("shorts geometry missing: %s", a)
	}
	if !strings.Contains(a, "seed=91") {
		t.Errorf("seed not derived from index: %s", a)
	}
	if strings.Contains(a, " ") {
		t.Errorf("prompt not escaped: %s", a)
	}
}

func TestFormatByName(t *testing.T) {
	if f, err := FormatByName(""); err != nil || f.Name != "shorts" {
		t.Errorf("default format = %v, %v", f, err)
	}
	if f, err := FormatByName("normal"); err != nil || f.Width != 1920 {
		t.Errorf("normal format = %v, %v", f, err)
	}
	if _, err := FormatByName("imax"); err == nil {
		t.Error("bogus format accepted")
	}
}

func TestFormatRequired(t *testing.T) {
	if Shorts.Required() != 9 || Normal.Required() != 18 {
		t.Errorf("required counts: shorts=%d normal=%d", Shorts.Required(), Normal.Required())
	}
}
