// internal/game/rules.go
package game

import "fmt"

const (
	MinPlayersLimit    = 2
	MaxPlayersLimit    = 10
	DefaultPointsToWin = 250
	HandSize           = 7
	DeckSize           = 108
	UxIDLength         = 8

	DefaultGameName   = "Runo Game"
	DefaultPlayerName = "Player"
)

// Options configures a new game. A zero value in any field means "use the default".
type Options struct {
	Name        string `json:"name"`
	AdminName   string `json:"admin_name"`
	PointsToWin int    `json:"points_to_win"`
	MinPlayers  int    `json:"min_players"`
	MaxPlayers  int    `json:"max_players"`
}

// resolve fills unset fields and clamps the player limits into range.
// A negative points target is refused; player limits out of range are clamped.
func (o Options) resolve(src Source) (Options, error) {
	if o.PointsToWin < 0 {
		return o, fmt.Errorf("%w: negative points to win", ErrInvalidOption)
	}

	if o.Name == "" {
		o.Name = fmt.Sprintf("%s %s", DefaultGameName, uxID(src))
	}
	if o.AdminName == "" {
		o.AdminName = DefaultPlayerName + " 1"
	}
	if o.PointsToWin == 0 {
		o.PointsToWin = DefaultPointsToWin
	}

	if o.MinPlayers < MinPlayersLimit {
		o.MinPlayers = MinPlayersLimit
	}
	if o.MinPlayers > MaxPlayersLimit {
		o.MinPlayers = MaxPlayersLimit
	}
	if o.MaxPlayers == 0 || o.MaxPlayers > MaxPlayersLimit {
		o.MaxPlayers = MaxPlayersLimit
	}
	if o.MaxPlayers < o.MinPlayers {
		o.MaxPlayers = o.MinPlayers
	}
	return o, nil
}
