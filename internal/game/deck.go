package game

import (
	"fmt"

	"github.com/jason-s-yu/runo/internal/models"
)

// NewCard builds a card with a fresh id. Wild values never carry a color.
func NewCard(src Source, value models.Value, color models.Color) *models.Card {
	if value.IsWild() {
		color = models.NoColor
	}
	return &models.Card{ID: src.NewID(), Value: value, Color: color}
}

// NewDeck builds the full, unshuffled 108 card set.
func NewDeck(src Source) []*models.Card {
	deck := make([]*models.Card, 0, DeckSize)
	for _, color := range models.Colors {
		for _, rank := range models.Ranks {
			deck = append(deck, NewCard(src, rank, color))
			if rank != "0" {
				deck = append(deck, NewCard(src, rank, color))
			}
		}
		for _, special := range models.Specials {
			deck = append(deck, NewCard(src, special, color), NewCard(src, special, color))
		}
	}
	for _, wild := range models.Wilds {
		for i := 0; i < 4; i++ {
			deck = append(deck, NewCard(src, wild, models.NoColor))
		}
	}
	return deck
}

func (g *Game) shuffle(cards []*models.Card) {
	g.source().Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// TopCard returns the card in play, or nil when the stack is empty.
func (g *Game) TopCard() *models.Card {
	if len(g.Stack) == 0 {
		return nil
	}
	return g.Stack[len(g.Stack)-1]
}

// CanPlayCard checks card against the card in play. An empty stack accepts anything.
func (g *Game) CanPlayCard(card *models.Card) bool {
	return models.CanPlay(g.TopCard(), card)
}

// ReclaimStack moves every card under the top of the stack beneath the deck.
// The oldest discard ends up closest to the draw end and recycled wilds lose their color.
func (g *Game) ReclaimStack() error {
	if len(g.Stack) <= 1 {
		return ErrNoCardsLeft
	}
	top := len(g.Stack) - 1
	moved := reversed(g.Stack[:top])
	scrubWilds(moved)

	g.Deck = append(moved, g.Deck...)
	g.Stack = []*models.Card{g.Stack[top]}
	return nil
}

// DrawCard moves one card from the deck into the player's hand, reclaiming the
// stack when the deck is empty.
func (g *Game) DrawCard(p *models.Player) (*models.Card, error) {
	if len(g.Deck) == 0 {
		if err := g.ReclaimStack(); err != nil {
			return nil, err
		}
	}
	last := len(g.Deck) - 1
	card := g.Deck[last]
	g.Deck = g.Deck[:last]
	p.Hand = append(p.Hand, card)
	return card, nil
}

// DrawTwo draws two cards. Cards drawn before running out stay in the hand.
func (g *Game) DrawTwo(p *models.Player) error { return g.drawN(p, 2) }

// DrawFour draws four cards. Cards drawn before running out stay in the hand.
func (g *Game) DrawFour(p *models.Player) error { return g.drawN(p, 4) }

func (g *Game) drawN(p *models.Player, n int) error {
	for i := 0; i < n; i++ {
		if _, err := g.DrawCard(p); err != nil {
			return fmt.Errorf("drew %d of %d: %w", i, n, err)
		}
	}
	return nil
}
