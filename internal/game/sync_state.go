// internal/game/sync_state.go
package game

import (
	"time"

	"github.com/jason-s-yu/runo/internal/models"
)

// PlayerView is one player as seen by a particular viewer.
// ID and Hand are only filled in for the viewer's own seat.
type PlayerView struct {
	ID           *string         `json:"id"`
	UxID         string          `json:"ux_id"`
	Name         string          `json:"name"`
	Hand         *[]*models.Card `json:"hand,omitempty"`
	Active       bool            `json:"active"`
	Admin        bool            `json:"admin"`
	Points       int             `json:"points"`
	RoundsWon    int             `json:"rounds_won"`
	GameWinner   bool            `json:"game_winner"`
	DrawRequired *bool           `json:"draw_required,omitempty"`
}

// GameView is the state of a game as seen by one player.
type GameView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	MinPlayers  int            `json:"min_players"`
	MaxPlayers  int            `json:"max_players"`
	PointsToWin int            `json:"points_to_win"`
	Players     []PlayerView   `json:"players"`
	DeckSize    int            `json:"deck_size"` // draw order stays hidden
	Stack       []*models.Card `json:"stack"`
	Active      bool           `json:"active"`
	Reverse     bool           `json:"reverse"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at"`
	EndedAt     *time.Time     `json:"ended_at"`
	Version     int            `json:"version"`
}

// StateFor builds viewerID's view of the game. The result shares nothing with g.
func (g *Game) StateFor(viewerID string) (*GameView, error) {
	if g.Player(viewerID) == nil {
		return nil, ErrPlayerNotFound
	}
	cp := g.Clone()

	view := &GameView{
		ID:          cp.ID,
		Name:        cp.Name,
		MinPlayers:  cp.MinPlayers,
		MaxPlayers:  cp.MaxPlayers,
		PointsToWin: cp.PointsToWin,
		Players:     make([]PlayerView, 0, len(cp.Players)),
		DeckSize:    len(cp.Deck),
		Stack:       cp.Stack,
		Active:      cp.Active,
		Reverse:     cp.Reverse,
		CreatedAt:   cp.CreatedAt,
		StartedAt:   cp.StartedAt,
		EndedAt:     cp.EndedAt,
		Version:     cp.Version,
	}

	for _, p := range cp.Players {
		pv := PlayerView{
			UxID:       p.UxID,
			Name:       p.Name,
			Active:     p.Active,
			Admin:      p.Admin,
			Points:     p.Points,
			RoundsWon:  p.RoundsWon,
			GameWinner: p.GameWinner,
		}
		if p.ID == viewerID {
			id := p.ID
			hand := p.Hand
			pv.ID = &id
			pv.Hand = &hand
			if p.Active {
				required := !cp.hasPlayableCard(p)
				pv.DrawRequired = &required
			}
		}
		view.Players = append(view.Players, pv)
	}
	return view, nil
}

func (g *Game) hasPlayableCard(p *models.Player) bool {
	for _, c := range p.Hand {
		if g.CanPlayCard(c) {
			return true
		}
	}
	return false
}

// Viewer returns the player view for the viewer's own seat.
func (v *GameView) Viewer() *PlayerView {
	for i := range v.Players {
		if v.Players[i].ID != nil {
			return &v.Players[i]
		}
	}
	return nil
}
