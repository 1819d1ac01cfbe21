// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is the face of a card: a rank "0".."9" or one of the special kinds.
type Value string

const (
	Skip         Value = "SKIP"
	Reverse      Value = "REVERSE"
	DrawTwo      Value = "DRAW_TWO"
	Wild         Value = "WILD"
	WildDrawFour Value = "WILD_DRAW_FOUR"
)

// Ranks lists the numeric card values in ascending order.
var Ranks = []Value{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// Specials lists the colored special kinds (two of each per color in a full deck).
var Specials = []Value{Skip, Reverse, DrawTwo}

// Wilds lists the colorless kinds (four of each in a full deck).
var Wilds = []Value{Wild, WildDrawFour}

// IsRank reports whether v is one of "0".."9".
func (v Value) IsRank() bool {
	return len(v) == 1 && v[0] >= '0' && v[0] <= '9'
}

// IsWild reports whether v is WILD or WILD_DRAW_FOUR.
func (v Value) IsWild() bool {
	return v == Wild || v == WildDrawFour
}

// IsSpecial is true for every non-ranked kind, wilds included.
func (v Value) IsSpecial() bool {
	return v.Valid() && !v.IsRank()
}

// Valid reports whether v belongs to the closed set of card values.
func (v Value) Valid() bool {
	switch v {
	case Skip, Reverse, DrawTwo, Wild, WildDrawFour:
		return true
	}
	return v.IsRank()
}

// Points is the score a card in a losing hand contributes to the round winner.
func (v Value) Points() int {
	switch {
	case v.IsRank():
		n, _ := strconv.Atoi(string(v))
		return n
	case v.IsWild():
		return 50
	case v.Valid():
		return 20
	}
	return 0
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !Value(s).Valid() {
		return fmt.Errorf("unknown card value %q", s)
	}
	*v = Value(s)
	return nil
}

// Color of a card. The zero value means "no color" and encodes as JSON null.
type Color string

const (
	NoColor Color = ""
	Red     Color = "RED"
	Yellow  Color = "YELLOW"
	Green   Color = "GREEN"
	Blue    Color = "BLUE"
)

// Colors is the set of selectable colors, in deck construction order.
var Colors = []Color{Red, Yellow, Green, Blue}

// Valid reports whether c is one of the four playable colors.
func (c Color) Valid() bool {
	switch c {
	case Red, Yellow, Green, Blue:
		return true
	}
	return false
}

func (c Color) MarshalJSON() ([]byte, error) {
	if c == NoColor {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

func (c *Color) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = NoColor
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s != "" && !Color(s).Valid() {
		return fmt.Errorf("unknown card color %q", s)
	}
	*c = Color(s)
	return nil
}

// Card is a single physical card. ID is stable for the lifetime of a game.
type Card struct {
	ID    string `json:"id"`
	Value Value  `json:"value"`
	Color Color  `json:"color"`
}

// CanPlay reports whether candidate may be placed on top.
// Wilds always play; otherwise color or value must match.
func CanPlay(top, candidate *Card) bool {
	if candidate.Value.IsWild() {
		return true
	}
	if top == nil {
		return true
	}
	return candidate.Color == top.Color || candidate.Value == top.Value
}

func (c *Card) String() string {
	if c.Color == NoColor {
		return string(c.Value)
	}
	return fmt.Sprintf("%s-%s", c.Value, c.Color)
}

// CopyCards returns a deep copy of cards. A nil slice stays nil.
func CopyCards(cards []*Card) []*Card {
	if cards == nil {
		return nil
	}
	out := make([]*Card, len(cards))
	for i, c := range cards {
		cp := *c
		out[i] = &cp
	}
	return out
}
