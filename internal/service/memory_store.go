package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jason-s-yu/runo/internal/game"
)

// MemoryStore keeps games in a map. It stores and hands out deep copies so callers
// never share state with it.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]*game.Game
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*game.Game),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := 0
	if cur, ok := s.games[g.ID]; ok {
		stored = cur.Version
	}
	if stored != g.Version {
		return ErrConflict
	}
	g.Version++
	s.games[g.ID] = g.Clone()
	return nil
}

// ListOpen returns the games still accepting players, oldest first.
func (s *MemoryStore) ListOpen(_ context.Context) ([]*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := []*game.Game{}
	for _, g := range s.games {
		if g.IsOpen() {
			open = append(open, g.Clone())
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	return open, nil
}

func (s *MemoryStore) DeleteCreatedBefore(_ context.Context, t time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, g := range s.games {
		if g.CreatedAt.Before(t) {
			delete(s.games, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountCreatedSince(_ context.Context, t time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.games {
		if !g.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}
