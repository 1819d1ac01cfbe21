package models

// Player is a seat in a game. ID is the canonical identifier and is only ever
// shown to its owner; UxID is the short public token used to reference the seat.
type Player struct {
	ID         string  `json:"id"`
	UxID       string  `json:"ux_id"`
	Name       string  `json:"name"`
	Hand       []*Card `json:"hand"`
	Active     bool    `json:"active"`
	Admin      bool    `json:"admin"`
	Points     int     `json:"points"`
	RoundsWon  int     `json:"rounds_won"`
	GameWinner bool    `json:"game_winner"`
}

// Clone returns a deep copy of the player including the hand.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Hand = CopyCards(p.Hand)
	return &cp
}

// HandPoints sums the point value of every card in the hand.
func (p *Player) HandPoints() int {
	total := 0
	for _, c := range p.Hand {
		total += c.Value.Points()
	}
	return total
}

// CardIndex returns the index of the card with the given id in the hand, or -1.
func (p *Player) CardIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
