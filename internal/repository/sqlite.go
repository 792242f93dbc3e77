package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/nenshoukei/zombals-sub000/internal/game"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_records (
	id             TEXT PRIMARY KEY,
	first_user_id  TEXT NOT NULL,
	winner_user_id TEXT NOT NULL DEFAULT '',
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL,
	data           TEXT NOT NULL
)`

// SQLiteStore persists records in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens path and creates the records table when missing. Use
// ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A :memory: database lives per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, r *game.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkSavable(r); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_records (id, first_user_id, winner_user_id, started_at, finished_at, data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.FirstUserID, r.WinnerUserID,
		r.StartedAt.UTC().UnixMilli(), r.FinishedAt.UTC().UnixMilli(), string(data),
	)
	if isUniqueViolation(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("save record %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*game.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM game_records WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	var r game.Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
