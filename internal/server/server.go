// Package server exposes the generation pipeline over HTTP: submit an idea,
// poll its status, and download the finished artifacts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nhd2106/youtube-shorts-agents/internal/audio"
	"github.com/nhd2106/youtube-shorts-agents/internal/config"
	"github.com/nhd2106/youtube-shorts-agents/internal/pipeline"
	"github.com/nhd2106/youtube-shorts-agents/internal/tracker"
)

// Runner executes one generation job; it is called on a background goroutine.
type Runner interface {
	Run(ctx context.Context, requestID string, req pipeline.GenerateRequest) error
}

// Store is the subset of the tracker the API needs.
type Store interface {
	Create(ctx context.Context) (string, error)
	Get(ctx context.Context, id string) (*tracker.Request, error)
	CleanOld(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Server is the HTTP API.
type Server struct {
	cfg    *config.Config
	store  Store
	runner Runner
	mux    *http.ServeMux
}

// New builds the API server and its routes.
func New(cfg *config.Config, store Store, runner Runner) *Server {
	s := &Server{cfg: cfg, store: store, runner: runner, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/status/{id}", s.handleStatus)
	s.mux.HandleFunc("GET /api/download/{filename}", s.handleDownload)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	return s
}

// Handler returns the routed handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe runs the API until the context is cancelled. Old tracker
// rows are swept once a day.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.mux}

	go s.cleanupLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[server] Listening on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.store.CleanOld(ctx, 24*time.Hour); err != nil {
				log.Printf("[server] Cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("[server] Cleaned %d old requests", n)
			}
		}
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Idea) == "" {
		writeError(w, http.StatusBadRequest, "idea is required")
		return
	}

	id, err := s.store.Create(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// the job outlives this request
	go func() {
		if err := s.runner.Run(context.Background(), id, req); err != nil {
			log.Printf("[server] Request %s failed: %v", id, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"request_id": id,
		"status_url": "/api/status/" + id,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	req, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, tracker.ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	// strip any path components to keep downloads inside the content dirs
	filename := filepath.Base(r.PathValue("filename"))

	var dir string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4":
		dir = s.cfg.Paths.Video
	case ".jpg", ".jpeg":
		dir = s.cfg.Paths.Thumbnail
	case ".txt":
		dir = s.cfg.Paths.Script
	default:
		writeError(w, http.StatusBadRequest, "invalid file type")
		return
	}

	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  audio.Catalog,
		"formats": []string{"shorts", "normal"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] Write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
