// internal/game/game.go
package game

import (
	"time"

	"github.com/jason-s-yu/runo/internal/models"
)

// Game holds the entire state of a single game. It is a plain document: it can be
// marshalled to JSON, stored and loaded back, and every operation mutates it in place.
// Callers must serialize mutations on one game.
type Game struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	MinPlayers  int              `json:"min_players"`
	MaxPlayers  int              `json:"max_players"`
	PointsToWin int              `json:"points_to_win"`
	Players     []*models.Player `json:"players"`
	Deck        []*models.Card   `json:"deck"`  // drawn from the tail
	Stack       []*models.Card   `json:"stack"` // tail is the card in play
	Active      bool             `json:"active"`
	Reverse     bool             `json:"reverse"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at"`
	EndedAt     *time.Time       `json:"ended_at"`
	Version     int              `json:"version"`

	src Source
}

// New builds an unsaved, unstarted game with a single admin player and a freshly
// shuffled deck. A nil src uses SystemSource.
func New(opts Options, src Source) (*Game, error) {
	if src == nil {
		src = SystemSource()
	}
	opts, err := opts.resolve(src)
	if err != nil {
		return nil, err
	}

	g := &Game{
		ID:          src.NewID(),
		Name:        opts.Name,
		MinPlayers:  opts.MinPlayers,
		MaxPlayers:  opts.MaxPlayers,
		PointsToWin: opts.PointsToWin,
		Players:     []*models.Player{},
		Stack:       []*models.Card{},
		CreatedAt:   src.Now(),
		src:         src,
	}
	g.Deck = NewDeck(src)
	g.shuffle(g.Deck)

	if _, err := g.AddPlayer(opts.AdminName); err != nil {
		return nil, err
	}
	return g, nil
}

// SetSource attaches the clock and randomness used by later operations.
// Games loaded from storage fall back to SystemSource until one is set.
func (g *Game) SetSource(src Source) {
	g.src = src
}

func (g *Game) source() Source {
	if g.src == nil {
		g.src = SystemSource()
	}
	return g.src
}

// Started reports whether the first deal has happened.
func (g *Game) Started() bool { return g.StartedAt != nil }

// Ended reports whether the game is over and frozen.
func (g *Game) Ended() bool { return g.EndedAt != nil }

// Running reports whether moves are currently accepted.
func (g *Game) Running() bool { return g.Active && !g.Ended() }

// IsOpen reports whether the game is still accepting players.
func (g *Game) IsOpen() bool {
	return !g.Active && !g.Started() && !g.Ended()
}

// Player returns the player with the given id, or nil.
func (g *Game) Player(playerID string) *models.Player {
	if i := g.playerIndex(playerID); i >= 0 {
		return g.Players[i]
	}
	return nil
}

func (g *Game) playerIndex(playerID string) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// CardCount is the number of cards across deck, stack and every hand.
func (g *Game) CardCount() int {
	n := len(g.Deck) + len(g.Stack)
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	return n
}

// Clone returns a deep copy of the game sharing only the Source.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]*models.Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Deck = models.CopyCards(g.Deck)
	cp.Stack = models.CopyCards(g.Stack)
	if g.StartedAt != nil {
		t := *g.StartedAt
		cp.StartedAt = &t
	}
	if g.EndedAt != nil {
		t := *g.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

func (g *Game) end() {
	now := g.source().Now()
	g.Active = false
	g.EndedAt = &now
	for _, p := range g.Players {
		p.Active = false
	}
}
