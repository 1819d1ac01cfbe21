package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool for databaseURL and verifies the server answers.
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
	id          uuid PRIMARY KEY,
	name        text NOT NULL,
	state       jsonb NOT NULL,
	created_at  timestamptz NOT NULL,
	started_at  timestamptz,
	ended_at    timestamptz,
	active      boolean NOT NULL DEFAULT false,
	version     integer NOT NULL
);
CREATE INDEX IF NOT EXISTS games_created_at_idx ON games (created_at);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id        uuid NOT NULL,
	action_index   integer NOT NULL,
	actor_id       text NOT NULL,
	action_type    text NOT NULL,
	action_payload jsonb,
	recorded_at    timestamptz NOT NULL,
	PRIMARY KEY (game_id, action_index, action_type)
);
`

// Migrate creates the tables used by the game server and the historian.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
}
