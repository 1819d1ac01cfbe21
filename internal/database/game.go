// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/runo/internal/game"
	"github.com/jason-s-yu/runo/internal/models"
	"github.com/jason-s-yu/runo/internal/service"
)

// GameStore keeps each game as a JSONB document next to the columns housekeeping
// and listing need. It implements service.Store.
type GameStore struct {
	pool *pgxpool.Pool
}

func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

var _ service.Store = (*GameStore)(nil)

func (s *GameStore) Load(ctx context.Context, id string) (*game.Game, error) {
	gameID, err := uuid.Parse(id)
	if err != nil {
		return nil, service.ErrGameNotFound
	}

	var state []byte
	var version int
	err = s.pool.QueryRow(ctx, `SELECT state, version FROM games WHERE id = $1`, gameID).Scan(&state, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return decodeGame(state, version)
}

// Save inserts a new game (version 0) or updates one whose stored version still
// matches. The version column is authoritative over the copy inside the document.
func (s *GameStore) Save(ctx context.Context, g *game.Game) error {
	gameID, err := uuid.Parse(g.ID)
	if err != nil {
		return fmt.Errorf("game id %q: %w", g.ID, err)
	}

	prev := g.Version
	g.Version = prev + 1
	state, err := json.Marshal(g)
	if err != nil {
		g.Version = prev
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}

	var q string
	args := []interface{}{gameID, g.Name, state, g.CreatedAt, g.StartedAt, g.EndedAt, g.Active, g.Version}
	if prev == 0 {
		q = `
			INSERT INTO games (id, name, state, created_at, started_at, ended_at, active, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`
	} else {
		q = `
			UPDATE games
			SET name = $2, state = $3, created_at = $4, started_at = $5, ended_at = $6, active = $7, version = $8
			WHERE id = $1 AND version = $9
		`
		args = append(args, prev)
	}

	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		g.Version = prev
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		g.Version = prev
		return service.ErrConflict
	}
	return nil
}

func (s *GameStore) ListOpen(ctx context.Context) ([]*game.Game, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT state, version FROM games
		WHERE NOT active AND started_at IS NULL AND ended_at IS NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	defer rows.Close()

	games := []*game.Game{}
	for rows.Next() {
		var state []byte
		var version int
		if err := rows.Scan(&state, &version); err != nil {
			return nil, err
		}
		g, err := decodeGame(state, version)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (s *GameStore) DeleteCreatedBefore(ctx context.Context, t time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM games WHERE created_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("delete games created before %s: %w", t, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *GameStore) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM games WHERE created_at >= $1`, t).Scan(&n); err != nil {
		return 0, fmt.Errorf("count games created since %s: %w", t, err)
	}
	return n, nil
}

func decodeGame(state []byte, version int) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(state, &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	g.Version = version
	return &g, nil
}

// ErrInvalidAction marks an action record the database can never store.
var ErrInvalidAction = errors.New("invalid action record")

// InsertActions writes a batch of historian records in one transaction.
// Records already stored are skipped.
func InsertActions(ctx context.Context, pool *pgxpool.Pool, actions []models.GameAction) error {
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range actions {
			gameID, err := uuid.Parse(rec.GameID)
			if err != nil {
				return fmt.Errorf("%w: game id %q: %v", ErrInvalidAction, rec.GameID, err)
			}
			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return fmt.Errorf("%w: payload: %v", ErrInvalidAction, err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO game_actions (game_id, action_index, actor_id, action_type, action_payload, recorded_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT DO NOTHING
			`, gameID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, time.UnixMilli(rec.Timestamp).UTC())
			if err != nil {
				if isDataError(err) {
					err = fmt.Errorf("%w: %w", ErrInvalidAction, err)
				}
				return fmt.Errorf("insert action %s/%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

// isDataError reports whether postgres refused the row itself (data exception or
// integrity violation) rather than failing to run the statement.
func isDataError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return false
	}
	class := pgErr.Code[:2]
	return class == "22" || class == "23"
}
