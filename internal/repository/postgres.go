package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nenshoukei/zombals-sub000/internal/game"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_records (
	id             TEXT PRIMARY KEY,
	first_user_id  TEXT NOT NULL,
	winner_user_id TEXT NOT NULL DEFAULT '',
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL,
	data           JSONB NOT NULL
)`

// PostgresStore persists records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the records table when missing.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, r *game.Record) error {
	if err := checkSavable(r); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", r.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO game_records (id, first_user_id, winner_user_id, started_at, finished_at, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.FirstUserID, r.WinnerUserID, r.StartedAt.UTC(), r.FinishedAt.UTC(), data,
	)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*game.Record, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT data FROM game_records WHERE id = $1", id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	var r game.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &r, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
