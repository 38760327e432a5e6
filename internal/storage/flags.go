package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// FlagStore is a durable key-value table for the handful of flags that must survive restarts.
type FlagStore struct {
	db   *sql.DB
	path string
}

// OpenFlags opens (or creates) the SQLite database at path.
func OpenFlags(path string) (*FlagStore, error) {
	if path == "" {
		path = "cabcoat.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS flags (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create flags table: %w", err)
	}

	return &FlagStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (f *FlagStore) Path() string {
	return f.path
}

// Get returns the value for key and whether it was present.
func (f *FlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := f.db.QueryRowContext(ctx, `SELECT value FROM flags WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select flag %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key.
func (f *FlagStore) Set(ctx context.Context, key, value string) error {
	if _, err := f.db.ExecContext(ctx,
		`INSERT INTO flags (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value); err != nil {
		return fmt.Errorf("upsert flag %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (f *FlagStore) Close() error {
	return f.db.Close()
}
