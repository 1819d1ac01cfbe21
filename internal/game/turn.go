package game

import (
	"github.com/jason-s-yu/runo/internal/models"
	"github.com/sirupsen/logrus"
)

// ActivePlayer returns the player whose turn it is, or nil.
func (g *Game) ActivePlayer() *models.Player {
	if i := g.activeIndex(); i >= 0 {
		return g.Players[i]
	}
	return nil
}

func (g *Game) activeIndex() int {
	for i, p := range g.Players {
		if p.Active {
			return i
		}
	}
	return -1
}

// offset walks steps seats from i in the current direction of play.
func (g *Game) offset(i, steps int) int {
	if g.Reverse {
		steps = -steps
	}
	return wrap(i+steps, len(g.Players))
}

// ActivateNextPlayer passes the turn on. Unless cardDrawn is set, the card on top of
// the stack was just played and its effect is applied first.
func (g *Game) ActivateNextPlayer(cardDrawn bool) error {
	cur := g.activeIndex()
	if cur < 0 {
		return ErrNotRunning
	}
	n := len(g.Players)
	if n == 1 {
		return nil
	}

	steps := 1
	if top := g.TopCard(); !cardDrawn && top != nil {
		switch top.Value {
		case models.Reverse:
			g.Reverse = !g.Reverse
			if n == 2 {
				steps = 0
			}
		case models.Skip:
			steps = 2
		case models.DrawTwo, models.WildDrawFour:
			victim := g.Players[g.offset(cur, 1)]
			var err error
			if top.Value == models.DrawTwo {
				err = g.DrawTwo(victim)
			} else {
				err = g.DrawFour(victim)
			}
			if err != nil {
				logger.WithFields(logrus.Fields{
					"game":   g.ID,
					"player": victim.ID,
				}).WithError(err).Warn("draw penalty cut short")
			}
			steps = 2
		}
	}

	next := g.offset(cur, steps)
	g.Players[cur].Active = false
	g.Players[next].Active = true
	return nil
}
