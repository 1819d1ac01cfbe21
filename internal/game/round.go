// internal/game/round.go
package game

import (
	"github.com/jason-s-yu/runo/internal/models"
	"github.com/sirupsen/logrus"
)

// DealCards gathers every card back into the deck, shuffles, deals a fresh hand to
// each player and flips the first ranked card onto the stack. Special cards turned up
// while looking for it go back under the deck. A short deck deals what it has.
func (g *Game) DealCards() {
	for _, p := range g.Players {
		g.Deck = append(g.Deck, p.Hand...)
		p.Hand = []*models.Card{}
	}
	g.Deck = append(g.Deck, g.Stack...)
	g.Stack = []*models.Card{}
	scrubWilds(g.Deck)
	g.shuffle(g.Deck)

	for i := 0; i < HandSize; i++ {
		for _, p := range g.Players {
			if len(g.Deck) == 0 {
				break
			}
			last := len(g.Deck) - 1
			p.Hand = append(p.Hand, g.Deck[last])
			g.Deck = g.Deck[:last]
		}
	}

	var setAside []*models.Card
	for len(g.Deck) > 0 {
		last := len(g.Deck) - 1
		card := g.Deck[last]
		g.Deck = g.Deck[:last]
		if card.Value.IsRank() {
			g.Stack = append(g.Stack, card)
			break
		}
		setAside = append(setAside, card)
	}
	if len(setAside) > 0 {
		g.Deck = append(setAside, g.Deck...)
	}
	if len(g.Stack) == 0 {
		logger.WithField("game", g.ID).Warn("no ranked card left to start the stack")
	}
}

// Start deals the first round and hands the turn to the first player in turn order.
func (g *Game) Start() error {
	switch {
	case g.Ended():
		return ErrGameEnded
	case g.Started():
		return ErrGameStarted
	case len(g.Players) < g.MinPlayers:
		return ErrTooFewPlayers
	}

	if g.CardCount() == 0 {
		g.Deck = NewDeck(g.source())
		g.shuffle(g.Deck)
	}
	g.DealCards()

	now := g.source().Now()
	g.StartedAt = &now
	g.Active = true
	for _, p := range g.Players {
		p.Active = false
	}
	first := 0
	if g.Reverse {
		first = len(g.Players) - 1
	}
	g.Players[first].Active = true
	return nil
}

// CountPointsForPlayer scores the cards left in p's hand.
func (g *Game) CountPointsForPlayer(p *models.Player) int {
	return p.HandPoints()
}

// CountPoints is the round award for winner: the hand points of everyone else.
func (g *Game) CountPoints(winner *models.Player) int {
	total := 0
	for _, p := range g.Players {
		if p.ID == winner.ID {
			continue
		}
		total += g.CountPointsForPlayer(p)
	}
	return total
}

// SetRoundWinner awards the round to winner, re-deals, and ends the game once the
// winner reaches the target.
func (g *Game) SetRoundWinner(winner *models.Player) {
	award := g.CountPoints(winner)
	winner.Points += award
	winner.RoundsWon++
	logger.WithFields(logrus.Fields{
		"game":   g.ID,
		"player": winner.ID,
		"award":  award,
		"points": winner.Points,
	}).Info("round won")

	g.DealCards()
	if winner.Points >= g.PointsToWin {
		g.SetGameWinner(winner)
	}
}

// SetGameWinner marks winner and ends the game.
func (g *Game) SetGameWinner(winner *models.Player) {
	winner.GameWinner = true
	g.end()
	logger.WithFields(logrus.Fields{"game": g.ID, "player": winner.ID}).Info("game won")
}
