// Package history keeps a local sqlite record of meshes that were generated
// or extracted, so they can be listed and re-opened later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("history entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS meshes (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	prompt      TEXT NOT NULL DEFAULT '',
	source_kind TEXT NOT NULL,
	source      TEXT NOT NULL,
	triangles   INTEGER NOT NULL DEFAULT 0,
	scale       REAL NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_meshes_created_at ON meshes(created_at DESC);
`

// Entry is one stored mesh. Source holds the URL or the inline STL body
// depending on SourceKind.
type Entry struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Prompt     string    `json:"prompt"`
	SourceKind string    `json:"source_kind"`
	Source     string    `json:"source"`
	Triangles  int       `json:"triangles"`
	Scale      float64   `json:"scale"`
}

// Store wraps the history database connection
type Store struct {
	conn *sql.DB
	Path string
}

// Open opens (and if needed creates) the history database with WAL mode.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Add stores an entry, assigning an id and timestamp when they are unset.
func (s *Store) Add(ctx context.Context, e Entry) (Entry, error) {
	if strings.TrimSpace(e.SourceKind) == "" || e.Source == "" {
		return Entry{}, fmt.Errorf("history entry needs a source kind and source")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Scale == 0 {
		e.Scale = 1
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO meshes (id, created_at, prompt, source_kind, source, triangles, scale)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixMilli(), e.Prompt, e.SourceKind, e.Source, e.Triangles, e.Scale,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("inserting history entry: %w", err)
	}
	e.CreatedAt = time.UnixMilli(e.CreatedAt.UnixMilli())
	return e, nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, created_at, prompt, source_kind, source, triangles, scale
		FROM meshes ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, created_at, prompt, source_kind, source, triangles, scale
		 FROM meshes WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Delete removes the entry with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM meshes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting history entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var created int64
	if err := row.Scan(&e.ID, &created, &e.Prompt, &e.SourceKind, &e.Source, &e.Triangles, &e.Scale); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning history entry: %w", err)
	}
	e.CreatedAt = time.UnixMilli(created)
	return e, nil
}
