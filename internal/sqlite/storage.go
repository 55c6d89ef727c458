// Package sqlite provides the key-value substrate of the mapping store on top
// of a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const DriverName = "sqlite3"

type Storage struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Storage, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	// A single connection keeps every read-modify-write of one run ordered.
	db.SetMaxOpenConns(1)

	s, err := NewStorage(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewStorage(db *sql.DB) (*Storage, error) {
	s := &Storage{
		db:  sqlx.NewDb(db, DriverName),
		now: time.Now,
	}
	if err := s.RunMigrations(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s Storage) Close() error {
	return s.db.Close()
}

func (s Storage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s Storage) Set(ctx context.Context, key, value string) error {
	updatedAt := s.now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?;
	`, key, value, updatedAt, value, updatedAt)
	return err
}

func (s Storage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys matches the prefix literally, "_" and "%" have no special meaning.
func (s Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	var entries []entry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT key, value, updated_at
		FROM kv
		WHERE substr(key, 1, length(?)) = ?
		ORDER BY key
	`, prefix, prefix)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}
