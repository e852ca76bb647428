// Package history keeps a local record of analyzed reports in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/report"

	_ "modernc.org/sqlite" // SQLite driver
)

const reportsTable = "devpulse_reports"

// ErrNotFound is returned by Get for an unknown entry.
var ErrNotFound = errors.New("history entry not found")

// Entry is one saved report. Commit is the display prefix; Payload is the raw service response.
type Entry struct {
	ID          int64     `json:"id"`
	RepoURL     string    `json:"repo_url"`
	Commit      string    `json:"commit"`
	HealthScore float64   `json:"health_score"`
	CreatedAt   time.Time `json:"created_at"`
	Payload     []byte    `json:"-"`
}

// Report normalizes the stored payload.
func (e Entry) Report() (*model.Report, error) {
	return report.Normalize(e.Payload)
}

// Store is a SQLite-backed report history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath is $HOME/.devpulse/history.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".devpulse", "history.db")
}

// Open opens (and creates, if needed) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database at %q: %w", path, err)
	}
	// Limit SQLite to a single open connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createReportsQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating table %s: %w", reportsTable, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

var createReportsQuery = fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		repo_url TEXT NOT NULL,
		commit_id TEXT NOT NULL,
		health_score REAL NOT NULL,
		created_at INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
`, reportsTable)

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records a raw payload together with its normalized report.
func (s *Store) Save(ctx context.Context, payload []byte, r *model.Report) (Entry, error) {
	if r == nil {
		r = &model.Report{}
	}
	e := Entry{
		RepoURL:     r.RepoURL,
		Commit:      r.ShortCommit(),
		HealthScore: r.HealthScore,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
		Payload:     payload,
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (repo_url, commit_id, health_score, created_at, payload) VALUES (?, ?, ?, ?, ?)", reportsTable),
		e.RepoURL, e.Commit, e.HealthScore, e.CreatedAt.UnixMilli(), e.Payload)
	if err != nil {
		return Entry{}, fmt.Errorf("saving report: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("saving report: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first, without payloads. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := fmt.Sprintf("SELECT id, repo_url, commit_id, health_score, created_at FROM %s ORDER BY created_at DESC, id DESC", reportsTable)
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.RepoURL, &e.Commit, &e.HealthScore, &created); err != nil {
			return nil, fmt.Errorf("listing history: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// Get loads one entry with its payload.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, repo_url, commit_id, health_score, created_at, payload FROM %s WHERE id = ?", reportsTable), id)

	var e Entry
	var created int64
	if err := row.Scan(&e.ID, &e.RepoURL, &e.Commit, &e.HealthScore, &created, &e.Payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("entry %d: %w", id, ErrNotFound)
		}
		return Entry{}, fmt.Errorf("loading entry %d: %w", id, err)
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	return e, nil
}
