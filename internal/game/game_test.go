// internal/game/game_test.go
package game

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jason-s-yu/runo/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestGame builds an unstarted game with numPlayers seated and a reproducible source.
func newTestGame(t *testing.T, numPlayers int) *Game {
	t.Helper()
	g, err := New(Options{Name: "test", AdminName: "p1"}, NewSeededSource(42, testEpoch))
	require.NoError(t, err)
	for i := 1; i < numPlayers; i++ {
		_, err := g.AddPlayer("")
		require.NoError(t, err)
	}
	require.Len(t, g.Players, numPlayers)
	return g
}

// setupTestGame builds a started game with numPlayers seated.
func setupTestGame(t *testing.T, numPlayers int) *Game {
	t.Helper()
	g := newTestGame(t, numPlayers)
	require.NoError(t, g.Start())
	require.True(t, g.Running())
	return g
}

type cardSpec struct {
	value models.Value
	color models.Color
}

func c(v models.Value, col models.Color) cardSpec { return cardSpec{v, col} }

// pull removes the first deck card matching s. Wilds take on s.color.
func pull(t *testing.T, g *Game, s cardSpec) *models.Card {
	t.Helper()
	for i, card := range g.Deck {
		if card.Value != s.value {
			continue
		}
		if !s.value.IsWild() && card.Color != s.color {
			continue
		}
		g.Deck = append(g.Deck[:i], g.Deck[i+1:]...)
		if s.value.IsWild() {
			card.Color = s.color
		}
		return card
	}
	t.Fatalf("no %s %s left in deck", s.value, s.color)
	return nil
}

// stage gathers every card back into the deck, then lays out exactly the given top card
// and hands. Card conservation is preserved.
func stage(t *testing.T, g *Game, top cardSpec, hands ...[]cardSpec) {
	t.Helper()
	for _, p := range g.Players {
		g.Deck = append(g.Deck, p.Hand...)
		p.Hand = []*models.Card{}
	}
	g.Deck = append(g.Deck, g.Stack...)
	g.Stack = []*models.Card{}
	scrubWilds(g.Deck)

	g.Stack = append(g.Stack, pull(t, g, top))
	for i, hand := range hands {
		for _, s := range hand {
			g.Players[i].Hand = append(g.Players[i].Hand, pull(t, g, s))
		}
	}
}

// putOnStack moves a card of the given value onto the stack without changing hand sizes.
func putOnStack(t *testing.T, g *Game, value models.Value) *models.Card {
	t.Helper()
	for i, card := range g.Deck {
		if card.Value == value {
			g.Deck = append(g.Deck[:i], g.Deck[i+1:]...)
			g.Stack = append(g.Stack, card)
			return card
		}
	}
	for _, p := range g.Players {
		for i, card := range p.Hand {
			if card.Value == value {
				last := len(g.Deck) - 1
				p.Hand[i] = g.Deck[last]
				g.Deck = g.Deck[:last]
				g.Stack = append(g.Stack, card)
				return card
			}
		}
	}
	t.Fatalf("no %s available", value)
	return nil
}

// moveToDeckTail makes the next draw return a card matching s.
func moveToDeckTail(t *testing.T, g *Game, s cardSpec) *models.Card {
	t.Helper()
	card := pull(t, g, s)
	g.Deck = append(g.Deck, card)
	return card
}

func activeIndex(t *testing.T, g *Game) int {
	t.Helper()
	idx := -1
	for i, p := range g.Players {
		if p.Active {
			require.Equal(t, -1, idx, "more than one active player")
			idx = i
		}
	}
	return idx
}

func TestNewGame(t *testing.T) {
	g, err := New(Options{}, NewSeededSource(1, testEpoch))
	require.NoError(t, err)

	assert.Len(t, g.Deck, DeckSize)
	assert.Empty(t, g.Stack)
	assert.False(t, g.Active)
	assert.False(t, g.Reverse)
	assert.Nil(t, g.StartedAt)
	assert.Nil(t, g.EndedAt)
	assert.Equal(t, testEpoch, g.CreatedAt)
	assert.True(t, g.IsOpen())
	assert.Equal(t, DefaultPointsToWin, g.PointsToWin)
	assert.Contains(t, g.Name, DefaultGameName)

	require.Len(t, g.Players, 1)
	admin := g.Players[0]
	assert.True(t, admin.Admin)
	assert.False(t, admin.Active)
	assert.Contains(t, admin.Name, DefaultPlayerName)
	assert.Len(t, admin.UxID, UxIDLength)
	assert.NotEqual(t, admin.ID, admin.UxID)
}

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck(NewSeededSource(1, testEpoch))
	require.Len(t, deck, DeckSize)

	ids := map[string]bool{}
	counts := map[models.Value]int{}
	for _, card := range deck {
		ids[card.ID] = true
		counts[card.Value]++
		if card.Value.IsWild() {
			assert.Equal(t, models.NoColor, card.Color)
		} else {
			assert.True(t, card.Color.Valid())
		}
	}
	assert.Len(t, ids, DeckSize, "card ids must be unique")
	assert.Equal(t, 4, counts["0"])
	for _, r := range models.Ranks[1:] {
		assert.Equal(t, 8, counts[r], "rank %s", r)
	}
	for _, s := range models.Specials {
		assert.Equal(t, 8, counts[s])
	}
	assert.Equal(t, 4, counts[models.Wild])
	assert.Equal(t, 4, counts[models.WildDrawFour])
}

func TestNewCardForcesWildColorless(t *testing.T) {
	src := NewSeededSource(1, testEpoch)
	assert.Equal(t, models.NoColor, NewCard(src, models.Wild, models.Red).Color)
	assert.Equal(t, models.Blue, NewCard(src, "4", models.Blue).Color)
}

func TestSeededSourceIsReproducible(t *testing.T) {
	a, err := New(Options{}, NewSeededSource(7, testEpoch))
	require.NoError(t, err)
	b, err := New(Options{}, NewSeededSource(7, testEpoch))
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	for i := range a.Deck {
		assert.Equal(t, a.Deck[i].ID, b.Deck[i].ID)
	}
}

func TestNewGameClamps(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantMin int
		wantMax int
	}{
		{"unset", Options{}, 2, 10},
		{"min below range", Options{MinPlayers: 1}, 2, 10},
		{"max above range", Options{MaxPlayers: 11}, 2, 10},
		{"max below min", Options{MinPlayers: 5, MaxPlayers: 3}, 5, 5},
		{"min above range", Options{MinPlayers: 12}, 10, 10},
		{"in range", Options{MinPlayers: 3, MaxPlayers: 6}, 3, 6},
		{"negative", Options{MinPlayers: -1, MaxPlayers: -5}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.opts, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, g.MinPlayers)
			assert.Equal(t, tt.wantMax, g.MaxPlayers)
		})
	}

	_, err := New(Options{PointsToWin: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.True(t, IsRuleError(err))
}

func TestStartGame(t *testing.T) {
	g := setupTestGame(t, 4)

	for _, p := range g.Players {
		assert.Len(t, p.Hand, HandSize)
	}
	require.Len(t, g.Stack, 1)
	assert.False(t, g.Stack[0].Value.IsSpecial())
	assert.Len(t, g.Deck, DeckSize-4*HandSize-1)
	assert.Equal(t, 0, activeIndex(t, g))
	assert.NotNil(t, g.StartedAt)
	assert.Equal(t, DeckSize, g.CardCount())
	assert.False(t, g.IsOpen())
}

func TestStartUnderReverseActivatesLastSeat(t *testing.T) {
	g := newTestGame(t, 3)
	g.Reverse = true
	require.NoError(t, g.Start())
	assert.Equal(t, 2, activeIndex(t, g))
}

func TestStartValidation(t *testing.T) {
	g := newTestGame(t, 1)
	assert.ErrorIs(t, g.Start(), ErrTooFewPlayers)
	assert.Nil(t, g.StartedAt)

	g = setupTestGame(t, 2)
	assert.ErrorIs(t, g.Start(), ErrGameStarted)
}

func TestStartBuildsDeckWhenEmpty(t *testing.T) {
	g := newTestGame(t, 2)
	g.Deck = nil
	require.NoError(t, g.Start())
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestAdminStart(t *testing.T) {
	g := newTestGame(t, 2)
	assert.ErrorIs(t, g.AdminStart(g.Players[1].ID), ErrNotAdmin)
	assert.ErrorIs(t, g.AdminStart("nobody"), ErrPlayerNotFound)
	require.NoError(t, g.AdminStart(g.Players[0].ID))
	assert.True(t, g.Running())

	g = newTestGame(t, 1)
	assert.ErrorIs(t, g.AdminStart(g.Players[0].ID), ErrTooFewPlayers)
}

func TestAddPlayer(t *testing.T) {
	g, err := New(Options{MaxPlayers: 3}, NewSeededSource(3, testEpoch))
	require.NoError(t, err)

	p, err := g.AddPlayer("")
	require.NoError(t, err)
	assert.False(t, p.Admin)
	assert.False(t, p.Active)
	assert.Contains(t, p.Name, DefaultPlayerName)
	assert.Len(t, p.UxID, UxIDLength)
	assert.Empty(t, p.Hand)

	_, err = g.AddPlayer("carol")
	require.NoError(t, err)
	_, err = g.AddPlayer("dave")
	assert.ErrorIs(t, err, ErrGameFull)

	g = setupTestGame(t, 2)
	_, err = g.AddPlayer("late")
	assert.ErrorIs(t, err, ErrGameStarted)
}

func TestActivateNextPlayerBeforeStart(t *testing.T) {
	g := newTestGame(t, 2)
	err := g.ActivateNextPlayer(false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.True(t, IsContractViolation(err))
	assert.False(t, IsRuleError(err))
}

func TestActivateNextPlayerCycles(t *testing.T) {
	g := setupTestGame(t, 2)
	putOnStack(t, g, "5")

	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Equal(t, 1, activeIndex(t, g))
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Equal(t, 0, activeIndex(t, g))
}

func TestActivateNextPlayerReverse(t *testing.T) {
	g := setupTestGame(t, 2)
	putOnStack(t, g, models.Reverse)
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Equal(t, 0, activeIndex(t, g))
	assert.True(t, g.Reverse)

	g = setupTestGame(t, 3)
	putOnStack(t, g, models.Reverse)
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Equal(t, 2, activeIndex(t, g))
	assert.True(t, g.Reverse)

	putOnStack(t, g, "5")
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Equal(t, 1, activeIndex(t, g))
}

func TestActivateNextPlayerSkip(t *testing.T) {
	g := setupTestGame(t, 4)
	putOnStack(t, g, models.Skip)
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Equal(t, 2, activeIndex(t, g))
}

func TestActivateNextPlayerDrawTwo(t *testing.T) {
	g := setupTestGame(t, 2)
	putOnStack(t, g, models.DrawTwo)
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Len(t, g.Players[1].Hand, HandSize+2)
	assert.Equal(t, 0, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())

	g = setupTestGame(t, 3)
	putOnStack(t, g, models.DrawTwo)
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Len(t, g.Players[1].Hand, HandSize+2)
	assert.Equal(t, 2, activeIndex(t, g))
}

func TestActivateNextPlayerWildDrawFour(t *testing.T) {
	g := setupTestGame(t, 2)
	putOnStack(t, g, models.WildDrawFour)
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Len(t, g.Players[1].Hand, HandSize+4)
	assert.Equal(t, 0, activeIndex(t, g))

	g = setupTestGame(t, 3)
	putOnStack(t, g, models.WildDrawFour)
	require.NoError(t, g.ActivateNextPlayer(false))
	assert.Len(t, g.Players[1].Hand, HandSize+4)
	assert.Equal(t, 2, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestActivateNextPlayerAfterDrawIgnoresEffect(t *testing.T) {
	g := setupTestGame(t, 4)
	putOnStack(t, g, models.Skip)
	require.NoError(t, g.ActivateNextPlayer(true))
	assert.Equal(t, 1, activeIndex(t, g))

	putOnStack(t, g, models.DrawTwo)
	require.NoError(t, g.ActivateNextPlayer(true))
	assert.Equal(t, 2, activeIndex(t, g))
	assert.Len(t, g.Players[2].Hand, HandSize)
}

func TestPlayCardValidation(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c("9", models.Blue), c("3", models.Red), c(models.Wild, models.NoColor)},
		[]cardSpec{c("7", models.Red)},
	)
	p0, p1 := g.Players[0], g.Players[1]
	before := g.Clone()

	assert.ErrorIs(t, g.PlayCard("nobody", p0.Hand[0].ID, ""), ErrPlayerNotFound)
	assert.ErrorIs(t, g.PlayCard(p1.ID, p1.Hand[0].ID, ""), ErrPlayerNotActive)
	assert.ErrorIs(t, g.PlayCard(p0.ID, p1.Hand[0].ID, ""), ErrCardNotFound)
	assert.ErrorIs(t, g.PlayCard(p0.ID, p0.Hand[0].ID, ""), ErrIllegalCard)
	assert.ErrorIs(t, g.PlayCard(p0.ID, p0.Hand[2].ID, ""), ErrColorRequired)
	assert.ErrorIs(t, g.PlayCard(p0.ID, p0.Hand[2].ID, "PURPLE"), ErrColorRequired)

	assert.Equal(t, before, g, "failed plays must not change the game")
}

func TestPlayCardNotRunning(t *testing.T) {
	g := newTestGame(t, 2)
	p := g.Players[0]
	assert.ErrorIs(t, g.PlayCard(p.ID, "x", ""), ErrGameNotRunning)
	_, err := g.PlayerDrawCard(p.ID)
	assert.ErrorIs(t, err, ErrGameNotRunning)
}

func TestPlayCard(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c("3", models.Red), c("9", models.Blue)},
		[]cardSpec{c("7", models.Green)},
	)
	p0 := g.Players[0]
	played := p0.Hand[0]

	require.NoError(t, g.PlayCard(p0.ID, played.ID, ""))
	assert.Len(t, p0.Hand, 1)
	assert.Equal(t, played, g.TopCard())
	assert.Equal(t, 1, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestPlayWildSetsColor(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c(models.Wild, models.NoColor), c("9", models.Blue)},
		[]cardSpec{c("7", models.Green)},
	)
	p0 := g.Players[0]
	wild := p0.Hand[0]

	require.NoError(t, g.PlayCard(p0.ID, wild.ID, models.Green))
	assert.Equal(t, models.Green, g.TopCard().Color)
	assert.Equal(t, 1, activeIndex(t, g))
	assert.True(t, g.CanPlayCard(g.Players[1].Hand[0]))
}

func TestIllegalDrawFour(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c(models.WildDrawFour, models.NoColor), c("3", models.Red), c(models.Wild, models.NoColor)},
		[]cardSpec{c("7", models.Green)},
	)
	p0 := g.Players[0]
	w4 := p0.Hand[0]
	assert.ErrorIs(t, g.PlayCard(p0.ID, w4.ID, models.Blue), ErrIllegalDrawFour)

	// wilds and off-color cards do not count as alternatives
	stage(t, g, c("5", models.Red),
		[]cardSpec{c(models.WildDrawFour, models.NoColor), c("3", models.Blue), c(models.Wild, models.NoColor)},
		[]cardSpec{c("7", models.Green)},
	)
	w4 = p0.Hand[0]
	require.NoError(t, g.PlayCard(p0.ID, w4.ID, models.Blue))
	assert.Len(t, g.Players[1].Hand, 1+4)
	assert.Equal(t, 0, activeIndex(t, g))
}

func TestRoundWin(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c("3", models.Red)},
		[]cardSpec{c("9", models.Blue), c(models.Wild, models.NoColor)},
	)
	p0 := g.Players[0]

	require.NoError(t, g.PlayCard(p0.ID, p0.Hand[0].ID, ""))
	assert.Equal(t, 59, p0.Points)
	assert.Equal(t, 1, p0.RoundsWon)
	assert.False(t, p0.GameWinner)
	assert.True(t, g.Running())
	for _, p := range g.Players {
		assert.Len(t, p.Hand, HandSize)
	}
	assert.Len(t, g.Stack, 1)
	assert.Equal(t, 1, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestRoundWinWithReverseFlipsDirection(t *testing.T) {
	g := setupTestGame(t, 3)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c(models.Reverse, models.Red)},
		[]cardSpec{c("1", models.Blue)},
		[]cardSpec{c("2", models.Blue)},
	)
	p0 := g.Players[0]
	require.NoError(t, g.PlayCard(p0.ID, p0.Hand[0].ID, ""))
	assert.True(t, g.Reverse)
	assert.Equal(t, 2, activeIndex(t, g))
}

func TestGameWin(t *testing.T) {
	g := setupTestGame(t, 2)
	g.PointsToWin = 50
	stage(t, g, c("5", models.Red),
		[]cardSpec{c("3", models.Red)},
		[]cardSpec{c(models.Wild, models.NoColor)},
	)
	p0 := g.Players[0]

	require.NoError(t, g.PlayCard(p0.ID, p0.Hand[0].ID, ""))
	assert.True(t, p0.GameWinner)
	assert.False(t, g.Active)
	assert.NotNil(t, g.EndedAt)
	assert.Equal(t, -1, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())

	assert.ErrorIs(t, g.PlayCard(p0.ID, p0.Hand[0].ID, ""), ErrGameEnded)
	assert.ErrorIs(t, g.Leave(p0.ID), ErrGameEnded)
}

func TestCountPoints(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("1", models.Green),
		[]cardSpec{c("4", models.Red)},
		[]cardSpec{
			c(models.Wild, models.NoColor), c(models.WildDrawFour, models.NoColor),
			c("5", models.Green), c("3", models.Red), c("2", models.Blue),
			c(models.Reverse, models.Red), c(models.Skip, models.Yellow),
		},
	)
	assert.Equal(t, 150, g.CountPointsForPlayer(g.Players[1]))
	assert.Equal(t, 150, g.CountPoints(g.Players[0]))
	assert.Equal(t, 4, g.CountPoints(g.Players[1]))
}

func TestPlayerDrawCardPlayableKeepsTurn(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c("9", models.Blue)},
		[]cardSpec{c("7", models.Green)},
	)
	want := moveToDeckTail(t, g, c("8", models.Red))

	got, err := g.PlayerDrawCard(g.Players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 0, activeIndex(t, g))
	assert.Len(t, g.Players[0].Hand, 2)
}

func TestPlayerDrawCardUnplayablePassesTurn(t *testing.T) {
	g := setupTestGame(t, 3)
	stage(t, g, c(models.Skip, models.Red),
		[]cardSpec{c("9", models.Blue)},
		[]cardSpec{c("7", models.Green)},
		[]cardSpec{c("6", models.Green)},
	)
	moveToDeckTail(t, g, c("2", models.Yellow))

	_, err := g.PlayerDrawCard(g.Players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, activeIndex(t, g), "draws never re-apply the skip on the stack")

	_, err = g.PlayerDrawCard(g.Players[0].ID)
	assert.ErrorIs(t, err, ErrPlayerNotActive)
}

func TestPlayerDrawCardNothingLeft(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red), []cardSpec{c("9", models.Blue)}, nil)
	g.Players[1].Hand = append(g.Players[1].Hand, g.Deck...)
	g.Deck = nil

	card, err := g.PlayerDrawCard(g.Players[0].ID)
	require.NoError(t, err)
	assert.Nil(t, card)
	assert.Equal(t, 1, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestReclaimStack(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red), nil, nil)
	top := g.Stack[0]
	g.Stack = nil
	wild := pull(t, g, c(models.Wild, models.Blue))
	three := pull(t, g, c("3", models.Red))
	w4 := pull(t, g, c(models.WildDrawFour, models.Green))
	g.Stack = []*models.Card{wild, three, w4, top}
	deckLen := len(g.Deck)

	require.NoError(t, g.ReclaimStack())
	assert.Equal(t, []*models.Card{top}, g.Stack)
	require.Len(t, g.Deck, deckLen+3)
	assert.Equal(t, []*models.Card{w4, three, wild}, g.Deck[:3])
	assert.Equal(t, models.NoColor, wild.Color)
	assert.Equal(t, models.NoColor, w4.Color)
	assert.Equal(t, models.Red, three.Color)
	assert.Equal(t, models.Red, top.Color)
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestReclaimStackNothingToReclaim(t *testing.T) {
	g := setupTestGame(t, 2)
	require.Len(t, g.Stack, 1)
	assert.ErrorIs(t, g.ReclaimStack(), ErrNoCardsLeft)
	assert.Len(t, g.Stack, 1)
}

func TestDrawReclaimsWhenDeckEmpty(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red), nil, nil)
	g.Stack = append([]*models.Card{pull(t, g, c("1", models.Blue)), pull(t, g, c("2", models.Blue))}, g.Stack...)
	g.Players[1].Hand = append(g.Players[1].Hand, g.Deck...)
	g.Deck = nil

	err := g.DrawTwo(g.Players[0])
	require.NoError(t, err)
	assert.Len(t, g.Players[0].Hand, 2)
	assert.Len(t, g.Stack, 1)

	err = g.DrawFour(g.Players[0])
	assert.ErrorIs(t, err, ErrNoCardsLeft)
	assert.Equal(t, DeckSize, g.CardCount())
}

// leaveOneInDeck hands every deck card but the tail to player 0.
func leaveOneInDeck(g *Game) *models.Card {
	last := len(g.Deck) - 1
	keep := g.Deck[last]
	g.Players[0].Hand = append(g.Players[0].Hand, g.Deck[:last]...)
	g.Deck = []*models.Card{keep}
	return keep
}

func TestDrawPenaltyReclaimsMidDraw(t *testing.T) {
	g := setupTestGame(t, 3)
	stage(t, g, c(models.DrawTwo, models.Red),
		[]cardSpec{c("7", models.Blue)}, nil, []cardSpec{c("8", models.Green)},
	)
	oldest, newer := pull(t, g, c("1", models.Blue)), pull(t, g, c("2", models.Blue))
	g.Stack = append([]*models.Card{oldest, newer}, g.Stack...)
	top := g.TopCard()
	last := leaveOneInDeck(g)
	require.Equal(t, 0, activeIndex(t, g))

	require.NoError(t, g.ActivateNextPlayer(false))

	victim := g.Players[1]
	assert.Equal(t, []*models.Card{last, oldest}, victim.Hand)
	assert.Equal(t, []*models.Card{top}, g.Stack)
	assert.Equal(t, []*models.Card{newer}, g.Deck)
	assert.Equal(t, 2, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestDrawPenaltyCutShort(t *testing.T) {
	hookLogger, hook := test.NewNullLogger()
	SetLogger(hookLogger)
	t.Cleanup(func() { SetLogger(logrus.StandardLogger()) })

	g := setupTestGame(t, 3)
	stage(t, g, c(models.WildDrawFour, models.Green),
		[]cardSpec{c("7", models.Blue)}, nil, []cardSpec{c("8", models.Green)},
	)
	last := leaveOneInDeck(g)

	require.NoError(t, g.ActivateNextPlayer(false))

	assert.Equal(t, []*models.Card{last}, g.Players[1].Hand, "the card drawn before running out is kept")
	assert.Empty(t, g.Deck)
	assert.Len(t, g.Stack, 1)
	assert.Equal(t, 2, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "draw penalty cut short", entry.Message)
	assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), ErrNoCardsLeft)
}

func TestDealCardsShortDeck(t *testing.T) {
	g := newTestGame(t, 1)
	src := g.source()
	g.Deck = nil
	for _, v := range []models.Value{models.Skip, models.Reverse, models.DrawTwo, models.Wild} {
		g.Deck = append(g.Deck, NewCard(src, v, models.Red), NewCard(src, v, models.Blue))
	}

	g.DealCards()
	assert.Len(t, g.Players[0].Hand, HandSize)
	assert.Empty(t, g.Stack)
	assert.Len(t, g.Deck, 1)

	g.Players = []*models.Player{}
	g.Deck = []*models.Card{NewCard(src, "4", models.Green)}
	g.Stack = nil
	for _, v := range []models.Value{models.Skip, models.Reverse, models.DrawTwo, models.Wild} {
		g.Stack = append(g.Stack, NewCard(src, v, models.Red), NewCard(src, v, models.Blue))
	}

	g.DealCards()
	require.Len(t, g.Stack, 1)
	assert.Equal(t, models.Value("4"), g.Stack[0].Value)
	assert.Len(t, g.Deck, 8)
	for _, card := range g.Deck {
		if card.Value.IsWild() {
			assert.Equal(t, models.NoColor, card.Color)
		}
	}
}

func TestLeaveAdminReassigned(t *testing.T) {
	g := newTestGame(t, 3)
	admin := g.Players[0]
	require.NoError(t, g.Leave(admin.ID))
	require.Len(t, g.Players, 2)
	assert.True(t, g.Players[0].Admin)
	assert.False(t, g.Players[1].Admin)
	assert.Nil(t, g.EndedAt)
	assert.ErrorIs(t, g.Leave(admin.ID), ErrPlayerNotFound)
}

func TestLeaveActivePlayer(t *testing.T) {
	g := setupTestGame(t, 3)
	leaver := g.Players[0]
	hand := append([]*models.Card(nil), leaver.Hand...)
	top := g.TopCard()
	successor := g.Players[1]

	require.NoError(t, g.Leave(leaver.ID))
	assert.True(t, successor.Active)
	assert.Equal(t, 0, activeIndex(t, g))
	assert.Equal(t, top, g.TopCard())
	assert.Equal(t, hand, g.Stack[:len(hand)])
	assert.True(t, g.Running())
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestLeaveActiveLastSeatWraps(t *testing.T) {
	g := setupTestGame(t, 3)
	require.NoError(t, g.ActivateNextPlayer(true))
	require.NoError(t, g.ActivateNextPlayer(true))
	require.Equal(t, 2, activeIndex(t, g))

	require.NoError(t, g.Leave(g.Players[2].ID))
	assert.Equal(t, 0, activeIndex(t, g))
}

func TestLeaveActiveUnderReverse(t *testing.T) {
	g := setupTestGame(t, 4)
	require.NoError(t, g.ActivateNextPlayer(true))
	require.Equal(t, 1, activeIndex(t, g))
	g.Reverse = true
	successor := g.Players[2]

	require.NoError(t, g.Leave(g.Players[1].ID))
	assert.Equal(t, 1, activeIndex(t, g))
	assert.True(t, successor.Active)
	assert.False(t, g.Players[0].Active)
}

func TestLeaveMultipleHandsGoUnderStack(t *testing.T) {
	g := setupTestGame(t, 4)
	top := g.TopCard()
	first, second := g.Players[2], g.Players[3]
	hand1 := append([]*models.Card(nil), first.Hand...)
	hand2 := append([]*models.Card(nil), second.Hand...)

	require.NoError(t, g.Leave(first.ID))
	require.NoError(t, g.Leave(second.ID))

	require.Len(t, g.Stack, 1+2*HandSize)
	assert.Equal(t, hand2, g.Stack[:HandSize])
	assert.Equal(t, hand1, g.Stack[HandSize:2*HandSize])
	assert.Equal(t, top, g.TopCard())
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestLeaveDownToOnePlayerEndsGame(t *testing.T) {
	g := setupTestGame(t, 3)
	require.NoError(t, g.Leave(g.Players[1].ID))
	require.NoError(t, g.Leave(g.Players[0].ID))

	require.Len(t, g.Players, 1)
	assert.False(t, g.Active)
	assert.NotNil(t, g.EndedAt)
	assert.Equal(t, -1, activeIndex(t, g))
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestLeaveEveryoneEndsGame(t *testing.T) {
	g := newTestGame(t, 2)
	require.NoError(t, g.Leave(g.Players[0].ID))
	require.NoError(t, g.Leave(g.Players[0].ID))
	assert.Empty(t, g.Players)
	assert.NotNil(t, g.EndedAt)
	assert.False(t, g.IsOpen())
}

func TestStateFor(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c("9", models.Blue), c("2", models.Green)},
		[]cardSpec{c("7", models.Red)},
	)
	a, b := g.Players[0], g.Players[1]

	view, err := g.StateFor(a.ID)
	require.NoError(t, err)
	require.Len(t, view.Players, 2)

	self := view.Players[0]
	require.NotNil(t, self.ID)
	assert.Equal(t, a.ID, *self.ID)
	require.NotNil(t, self.Hand)
	assert.Equal(t, a.Hand, *self.Hand)
	require.NotNil(t, self.DrawRequired)
	assert.True(t, *self.DrawRequired)
	assert.Equal(t, &view.Players[0], view.Viewer())

	other := view.Players[1]
	assert.Nil(t, other.ID)
	assert.Nil(t, other.Hand)
	assert.Nil(t, other.DrawRequired)
	assert.Equal(t, b.UxID, other.UxID)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded struct {
		Players []map[string]any `json:"players"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	_, hasHand := decoded.Players[1]["hand"]
	assert.False(t, hasHand)
	id, hasID := decoded.Players[1]["id"]
	assert.True(t, hasID)
	assert.Nil(t, id)
	assert.Equal(t, true, decoded.Players[0]["draw_required"])
	assert.Equal(t, len(g.Deck), view.DeckSize)
	var top map[string]any
	require.NoError(t, json.Unmarshal(raw, &top))
	_, hasDeck := top["deck"]
	assert.False(t, hasDeck, "draw pile contents are not exposed")
	assert.EqualValues(t, len(g.Deck), top["deck_size"])

	// the view shares nothing with the game
	(*self.Hand)[0].Color = models.Yellow
	view.Stack[0].Value = "0"
	assert.Equal(t, models.Blue, a.Hand[0].Color)
	assert.Equal(t, models.Value("5"), g.TopCard().Value)

	view, err = g.StateFor(b.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Players[1].DrawRequired, "only the active player sees draw_required")
	assert.Nil(t, view.Players[0].Hand)

	_, err = g.StateFor("nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestStateForDrawNotRequired(t *testing.T) {
	g := setupTestGame(t, 2)
	stage(t, g, c("5", models.Red),
		[]cardSpec{c("9", models.Blue), c(models.Wild, models.NoColor)},
		[]cardSpec{c("7", models.Red)},
	)
	view, err := g.StateFor(g.Players[0].ID)
	require.NoError(t, err)
	require.NotNil(t, view.Viewer().DrawRequired)
	assert.False(t, *view.Viewer().DrawRequired)
}

// TestCardConservation plays out a full game choosing the first legal move each turn.
func TestCardConservation(t *testing.T) {
	g := setupTestGame(t, 3)
	g.PointsToWin = 100

	for turn := 0; turn < 5000 && !g.Ended(); turn++ {
		p := g.ActivePlayer()
		require.NotNil(t, p)

		played := false
		for _, card := range append([]*models.Card(nil), p.Hand...) {
			err := g.PlayCard(p.ID, card.ID, models.Red)
			if err == nil {
				played = true
				break
			}
			require.True(t, IsRuleError(err), "unexpected error: %v", err)
		}
		if !played {
			_, err := g.PlayerDrawCard(p.ID)
			require.NoError(t, err)
		}
		require.Equal(t, DeckSize, g.CardCount(), "turn %d", turn)
		if !g.Ended() {
			activeIndex(t, g)
		}
	}
}

func TestIsRuleError(t *testing.T) {
	assert.True(t, IsRuleError(ErrIllegalCard))
	assert.False(t, IsRuleError(ErrNoCardsLeft))
	assert.True(t, strings.Contains(ErrNotRunning.Error(), "contract violation"))
}
