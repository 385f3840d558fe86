// Package postgres opens the pgx connection pool used by the interview store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"mockview/internal/platform/config"
)

// DB owns the pool and the database/sql view of it.
type DB struct {
	Pool *pgxpool.Pool
	SQL  *sql.DB
}

// Open returns nil when no URL is configured.
func Open(ctx context.Context, cfg config.Postgres) (*DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &DB{Pool: pool, SQL: stdlib.OpenDBFromPool(pool)}, nil
}

func (d *DB) Health(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

func (d *DB) Close() {
	_ = d.SQL.Close()
	d.Pool.Close()
}

// Schema creates the interview tables if they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS mock_interview (
	id              BIGSERIAL PRIMARY KEY,
	mock_id         TEXT NOT NULL UNIQUE,
	json_mock_resp  JSONB NOT NULL,
	job_position    TEXT NOT NULL,
	job_desc        TEXT NOT NULL,
	job_experience  TEXT NOT NULL,
	created_by      TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS mock_interview_created_by_idx ON mock_interview (created_by, created_at DESC);

CREATE TABLE IF NOT EXISTS user_answer (
	id              BIGSERIAL PRIMARY KEY,
	mock_id_ref     TEXT NOT NULL,
	question        TEXT NOT NULL,
	correct_ans     TEXT NOT NULL,
	user_ans        TEXT NOT NULL,
	feedback        TEXT NOT NULL,
	rating          INTEGER NOT NULL,
	user_email      TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS user_answer_mock_id_ref_idx ON user_answer (mock_id_ref, id);
`

// Migrate applies Schema.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, Schema)
	return err
}
