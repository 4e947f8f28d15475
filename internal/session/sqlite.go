package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iksnae/voiceflow-portal/internal"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id      TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	value   TEXT NOT NULL
)`

// sqliteStore keeps one JSON document per session in a key/value table
type sqliteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func openSQLiteStore(path string, now func() time.Time) (*sqliteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &internal.StorageError{Path: dir, Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &internal.StorageError{Path: path, Op: "open", Err: err}
	}
	// modernc connections each see their own :memory: database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &internal.StorageError{Path: path, Op: "open", Err: fmt.Errorf("ping failed: %w", err)}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &internal.StorageError{Path: path, Op: "open", Err: fmt.Errorf("create schema: %w", err)}
	}

	internal.LogDebug("session store opened at %s", path)
	return &sqliteStore{db: db, path: path, now: now}, nil
}

func (s *sqliteStore) Create(ctx context.Context, data *SessionData) error {
	now := s.now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	value, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sessions (id, version, value) VALUES (?, ?, ?)",
		data.ID, data.Version, string(value))
	if err != nil {
		return &internal.StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*SessionData, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sessions WHERE id = ?", id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &internal.StorageError{Path: s.path, Op: "read", Err: err}
	}

	var data SessionData
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return nil, &internal.StorageError{Path: s.path, Op: "read", Err: fmt.Errorf("decode session %s: %w", id, err)}
	}
	return &data, nil
}

func (s *sqliteStore) Update(ctx context.Context, data *SessionData) error {
	next := data.clone()
	next.Version++
	next.UpdatedAt = s.now()

	value, err := json.Marshal(next)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET version = ?, value = ? WHERE id = ? AND version = ?",
		next.Version, string(value), data.ID, data.Version)
	if err != nil {
		return &internal.StorageError{Path: s.path, Op: "write", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &internal.StorageError{Path: s.path, Op: "write", Err: err}
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM sessions WHERE id = ?", data.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return &internal.StorageError{Path: s.path, Op: "read", Err: err}
		}
		return ErrVersionConflict
	}

	*data = *next
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return &internal.StorageError{Path: s.path, Op: "delete", Err: err}
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
