// Package tracker persists generation requests in SQLite so API clients can
// poll status across server restarts.
package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status is the lifecycle stage of one generation request.
type Status string

const (
	StatusPending          Status = "pending"
	StatusGeneratingScript Status = "generating_content"
	StatusGeneratingAudio  Status = "generating_audio"
	StatusGeneratingImages Status = "generating_images"
	StatusGeneratingVideo  Status = "generating_video"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

// ErrNotFound is returned when a request id is unknown.
var ErrNotFound = errors.New("tracker: request not found")

// Request is one tracked generation job.
type Request struct {
	ID        string          `json:"request_id"`
	Status    Status          `json:"status"`
	Progress  int             `json:"progress"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the SQLite-backed tracker.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	progress   INTEGER NOT NULL DEFAULT 0,
	result     TEXT,
	error      TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at);
`

// Open connects to (or creates) the tracker database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("tracker: create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tracker: open db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("tracker: apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tracker: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Create inserts a new pending request and returns its id.
func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.New().String()
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (id, status, progress, created_at, updated_at) VALUES (?, ?, 0, ?, ?)`,
		id, StatusPending, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("tracker: create request: %w", err)
	}
	return id, nil
}

// Update sets the status and progress of a request.
func (s *Store) Update(ctx context.Context, id string, status Status, progress int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, progress = ?, updated_at = ? WHERE id = ?`,
		status, progress, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("tracker: update request: %w", err)
	}
	return requireRow(res)
}

// SetResult marks a request completed and stores its result document.
func (s *Store) SetResult(ctx context.Context, id string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("tracker: marshal result: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, progress = 100, result = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted, string(data), time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("tracker: set result: %w", err)
	}
	return requireRow(res)
}

// Fail marks a request failed with an error message.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		StatusFailed, message, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("tracker: fail request: %w", err)
	}
	return requireRow(res)
}

// Get loads one request.
func (s *Store) Get(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, progress, result, error, created_at, updated_at FROM requests WHERE id = ?`, id)

	var (
		r                Request
		result, errText  sql.NullString
		created, updated int64
	)
	err := row.Scan(&r.ID, &r.Status, &r.Progress, &result, &errText, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: get request: %w", err)
	}
	if result.Valid {
		r.Result = json.RawMessage(result.String)
	}
	r.Error = errText.String
	r.CreatedAt = time.Unix(created, 0)
	r.UpdatedAt = time.Unix(updated, 0)
	return &r, nil
}

// CleanOld deletes requests older than maxAge and reports how many went.
func (s *Store) CleanOld(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("tracker: clean old requests: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
