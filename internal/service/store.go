package service

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/runo/internal/game"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrConflict     = errors.New("game was modified concurrently")
	ErrDailyLimit   = errors.New("daily game limit reached")
)

// Store persists whole games keyed by id.
//
// Load must return a copy the caller may mutate freely. Save writes g only if the
// stored version still equals g.Version (zero meaning "not stored yet"), then bumps
// g.Version; otherwise it returns ErrConflict.
type Store interface {
	Load(ctx context.Context, id string) (*game.Game, error)
	Save(ctx context.Context, g *game.Game) error
	ListOpen(ctx context.Context) ([]*game.Game, error)
	DeleteCreatedBefore(ctx context.Context, t time.Time) (int, error)
	CountCreatedSince(ctx context.Context, t time.Time) (int, error)
}
