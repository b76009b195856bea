// Package bookmark persists named camera positions in SQLite.
package bookmark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
)

var ErrNotFound = errors.New("bookmark: not found")

// Bookmark is a saved view. Center components are stored as their hi and lo
// parts so nothing is lost to decimal formatting.
type Bookmark struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	View    camera.Snapshot `json:"-"`
	Re      string          `json:"re"`
	Im      string          `json:"im"`
	Zoom    float64         `json:"zoom"`
	MaxIter int             `json:"max_iter"`
	Created time.Time       `json:"created"`
	Updated time.Time       `json:"updated"`
}

const schema = `
CREATE TABLE IF NOT EXISTS bookmarks (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	re_hi      REAL NOT NULL,
	re_lo      REAL NOT NULL,
	im_hi      REAL NOT NULL,
	im_lo      REAL NOT NULL,
	zoom       REAL NOT NULL,
	max_iter   INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("bookmark: open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("bookmark: set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bookmark: create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores the view under name, replacing any bookmark of the same name.
// The ID of a replaced bookmark is kept.
func (s *Store) Save(ctx context.Context, name string, view camera.Snapshot, maxIter int) (Bookmark, error) {
	if name == "" {
		return Bookmark{}, errors.New("bookmark: empty name")
	}
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, name, re_hi, re_lo, im_hi, im_lo, zoom, max_iter, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			re_hi = excluded.re_hi, re_lo = excluded.re_lo,
			im_hi = excluded.im_hi, im_lo = excluded.im_lo,
			zoom = excluded.zoom, max_iter = excluded.max_iter,
			updated_at = excluded.updated_at`,
		uuid.NewString(), name,
		view.Center.Re.Hi, view.Center.Re.Lo, view.Center.Im.Hi, view.Center.Im.Lo,
		view.Zoom, maxIter, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Bookmark{}, fmt.Errorf("bookmark: save %q: %w", name, err)
	}
	return s.Get(ctx, name)
}

const columns = `id, name, re_hi, re_lo, im_hi, im_lo, zoom, max_iter, created_at, updated_at`

// Get looks a bookmark up by name or ID.
func (s *Store) Get(ctx context.Context, nameOrID string) (Bookmark, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM bookmarks WHERE name = ? OR id = ? LIMIT 1`, nameOrID, nameOrID)
	b, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Bookmark{}, fmt.Errorf("%w: %q", ErrNotFound, nameOrID)
	}
	if err != nil {
		return Bookmark{}, fmt.Errorf("bookmark: get %q: %w", nameOrID, err)
	}
	return b, nil
}

// List returns every bookmark, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM bookmarks ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("bookmark: list: %w", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("bookmark: list: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookmark: list: %w", err)
	}
	return out, nil
}

// Delete removes a bookmark by name or ID.
func (s *Store) Delete(ctx context.Context, nameOrID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE name = ? OR id = ?`, nameOrID, nameOrID)
	if err != nil {
		return fmt.Errorf("bookmark: delete %q: %w", nameOrID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, nameOrID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (Bookmark, error) {
	var (
		b                Bookmark
		re, im           dd.Float
		created, updated int64
	)
	if err := r.Scan(&b.ID, &b.Name, &re.Hi, &re.Lo, &im.Hi, &im.Lo, &b.Zoom, &b.MaxIter, &created, &updated); err != nil {
		return Bookmark{}, err
	}
	b.View = camera.Snapshot{Center: dd.Complex{Re: re, Im: im}, Zoom: b.Zoom}
	b.Re = re.String()
	b.Im = im.String()
	b.Created = time.Unix(0, created).UTC()
	b.Updated = time.Unix(0, updated).UTC()
	return b, nil
}
