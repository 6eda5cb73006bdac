package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool for databaseURL and pings it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id            UUID PRIMARY KEY,
	session_code  TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'in_progress',
	winner        TEXT,
	civilian_word TEXT,
	impostor_word TEXT,
	rounds        INT NOT NULL DEFAULT 0,
	player_count  INT NOT NULL DEFAULT 0,
	start_time    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id        UUID NOT NULL REFERENCES games (id) ON DELETE CASCADE,
	action_index   INT NOT NULL,
	actor_id       TEXT,
	action_type    TEXT NOT NULL,
	action_payload JSONB,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);

CREATE INDEX IF NOT EXISTS games_completed_end_time_idx
	ON games (end_time DESC) WHERE status = 'completed';
`

// EnsureSchema creates the history tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
