// Package store keeps rendered frames in a sqlite database so a source image is
// only dithered once per set of render settings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is a rendered frame.
type Entry struct {
	Width   int
	Height  int
	BMP     []byte
	Created time.Time
}

// FrameStore is a sqlite-backed frame cache. It is safe for concurrent use.
type FrameStore struct {
	db *sql.DB
}

// Open opens or creates the database at file.
func Open(file string) (*FrameStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS frame (key TEXT PRIMARY KEY NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, bmp BLOB NOT NULL, created INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create frame table: %w", err)
	}

	return &FrameStore{
		db: db,
	}, nil
}

// Get returns the frame stored under key. ok is false when there is none.
func (s *FrameStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var (
		e       Entry
		created int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT width, height, bmp, created FROM frame WHERE key = ?", key).
		Scan(&e.Width, &e.Height, &e.BMP, &created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to read frame: %w", err)
	}
	e.Created = time.Unix(0, created)
	return &e, true, nil
}

// Put stores e under key, replacing any previous frame. A zero Created is set
// to the current time.
func (s *FrameStore) Put(ctx context.Context, key string, e *Entry) error {
	created := e.Created
	if created.IsZero() {
		created = time.Now()
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO frame (key, width, height, bmp, created) VALUES (?, ?, ?, ?, ?)",
		key, e.Width, e.Height, e.BMP, created.UnixNano()); err != nil {
		return fmt.Errorf("failed to store frame: %w", err)
	}
	return nil
}

// Len returns the number of stored frames.
func (s *FrameStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM frame").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return n, nil
}

// Prune deletes all but the max most recently stored frames and returns how
// many were removed. max <= 0 empties the store.
func (s *FrameStore) Prune(ctx context.Context, max int) (int, error) {
	if max < 0 {
		max = 0
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM frame WHERE key NOT IN (SELECT key FROM frame ORDER BY created DESC, rowid DESC LIMIT ?)", max)
	if err != nil {
		return 0, fmt.Errorf("failed to prune frames: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *FrameStore) Close() error {
	return s.db.Close()
}
