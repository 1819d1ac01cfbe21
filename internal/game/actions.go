// internal/game/actions.go
package game

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/runo/internal/models"
	"github.com/sirupsen/logrus"
)

// PlayCard plays cardID from playerID's hand. selected is the color chosen for a wild
// and is ignored otherwise. Nothing changes unless the whole play is legal.
func (g *Game) PlayCard(playerID, cardID string, selected models.Color) error {
	p := g.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if g.Ended() {
		return ErrGameEnded
	}
	if !g.Running() {
		return ErrGameNotRunning
	}
	if !p.Active {
		return ErrPlayerNotActive
	}
	idx := p.CardIndex(cardID)
	if idx < 0 {
		return ErrCardNotFound
	}
	card := p.Hand[idx]
	if !g.CanPlayCard(card) {
		return ErrIllegalCard
	}
	if card.Value.IsWild() && !selected.Valid() {
		return ErrColorRequired
	}
	if card.Value == models.WildDrawFour && g.holdsColorMatch(p) {
		return ErrIllegalDrawFour
	}

	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	if card.Value.IsWild() {
		card.Color = selected
	}
	g.Stack = append(g.Stack, card)

	if len(p.Hand) > 0 {
		return g.ActivateNextPlayer(false)
	}

	if card.Value == models.Reverse {
		g.Reverse = !g.Reverse
	}
	g.SetRoundWinner(p)
	if g.Ended() {
		return nil
	}
	return g.ActivateNextPlayer(true)
}

// holdsColorMatch reports whether p has a non-wild card in the color of the card in play.
func (g *Game) holdsColorMatch(p *models.Player) bool {
	top := g.TopCard()
	if top == nil {
		return false
	}
	for _, c := range p.Hand {
		if !c.Value.IsWild() && c.Color == top.Color {
			return true
		}
	}
	return false
}

// PlayerDrawCard draws one card for the active player. A playable draw keeps the turn;
// otherwise it passes without re-applying the top card's effect. The returned card is
// nil when nothing was left to draw.
func (g *Game) PlayerDrawCard(playerID string) (*models.Card, error) {
	p := g.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if g.Ended() {
		return nil, ErrGameEnded
	}
	if !g.Running() {
		return nil, ErrGameNotRunning
	}
	if !p.Active {
		return nil, ErrPlayerNotActive
	}

	card, err := g.DrawCard(p)
	if errors.Is(err, ErrNoCardsLeft) {
		logger.WithFields(logrus.Fields{"game": g.ID, "player": p.ID}).Warn("nothing left to draw, passing turn")
		return nil, g.ActivateNextPlayer(true)
	}
	if err != nil {
		return nil, err
	}
	if g.CanPlayCard(card) {
		return card, nil
	}
	return card, g.ActivateNextPlayer(true)
}

// AddPlayer seats a new player. The first player of a game becomes its admin.
func (g *Game) AddPlayer(name string) (*models.Player, error) {
	switch {
	case g.Ended():
		return nil, ErrGameEnded
	case g.Started():
		return nil, ErrGameStarted
	case len(g.Players) >= g.MaxPlayers:
		return nil, ErrGameFull
	}

	src := g.source()
	if name == "" {
		name = fmt.Sprintf("%s %d", DefaultPlayerName, len(g.Players)+1)
	}
	p := &models.Player{
		ID:    src.NewID(),
		UxID:  uxID(src),
		Name:  name,
		Hand:  []*models.Card{},
		Admin: len(g.Players) == 0,
	}
	g.Players = append(g.Players, p)
	return p, nil
}

// Leave removes playerID from the game. In a running game the departing hand goes under
// the stack and the turn moves to whoever takes the vacated seat; a game left with a
// single player, or with none, ends.
func (g *Game) Leave(playerID string) error {
	idx := g.playerIndex(playerID)
	if idx < 0 {
		return ErrPlayerNotFound
	}
	if g.Ended() {
		return ErrGameEnded
	}

	p := g.Players[idx]
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)
	if len(g.Players) == 0 {
		g.end()
		return nil
	}
	if p.Admin {
		g.Players[0].Admin = true
	}

	if !g.Running() {
		g.Deck = append(p.Hand, g.Deck...)
		p.Hand = nil
		return nil
	}

	if len(g.Stack) > 0 {
		g.Stack = append(p.Hand, g.Stack...)
	} else {
		g.Deck = append(p.Hand, g.Deck...)
	}
	p.Hand = nil

	if len(g.Players) == 1 {
		g.end()
		return nil
	}
	if p.Active {
		// the player shifting into the vacated seat takes the turn, even under reverse
		g.Players[wrap(idx, len(g.Players))].Active = true
	}
	return nil
}

// AdminStart starts the game on behalf of its admin.
func (g *Game) AdminStart(playerID string) error {
	p := g.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.Admin {
		return ErrNotAdmin
	}
	return g.Start()
}
