// internal/game/utils.go
package game

import (
	"strings"

	"github.com/jason-s-yu/runo/internal/models"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for degenerate engine situations.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		logger = l
	}
}

// uxID derives a short public token from a fresh id.
func uxID(src Source) string {
	id := strings.ReplaceAll(src.NewID(), "-", "")
	if len(id) < UxIDLength {
		id = strings.Repeat("0", UxIDLength-len(id)) + id
	}
	return id[len(id)-UxIDLength:]
}

// wrap maps any integer onto [0, n).
func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// scrubWilds clears the chosen color from recycled wild cards.
func scrubWilds(cards []*models.Card) {
	for _, c := range cards {
		if c.Value.IsWild() {
			c.Color = models.NoColor
		}
	}
}

// reversed returns a new slice holding cards in reverse order.
func reversed(cards []*models.Card) []*models.Card {
	out := make([]*models.Card, len(cards))
	for i, c := range cards {
		out[len(cards)-1-i] = c
	}
	return out
}
