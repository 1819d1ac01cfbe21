// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// RuleError is returned when a request is refused by the rules of the game.
// The game is left untouched whenever one of these is returned.
type RuleError struct {
	msg string
}

func (e *RuleError) Error() string { return e.msg }

func ruleError(msg string) *RuleError { return &RuleError{msg: msg} }

// Validation failures.
var (
	ErrGameNotRunning  = ruleError("game is not running")
	ErrGameStarted     = ruleError("game has already started")
	ErrGameEnded       = ruleError("game has ended")
	ErrGameFull        = ruleError("game is full")
	ErrTooFewPlayers   = ruleError("not enough players to start")
	ErrPlayerNotFound  = ruleError("player not found")
	ErrPlayerNotActive = ruleError("it is not this player's turn")
	ErrNotAdmin        = ruleError("player is not the game admin")
	ErrCardNotFound    = ruleError("card not in player's hand")
	ErrIllegalCard     = ruleError("card cannot be played on the current stack")
	ErrColorRequired   = ruleError("a valid color must be selected for a wild card")
	ErrIllegalDrawFour = ruleError("wild draw four held with a card matching the current color")
	ErrInvalidOption   = ruleError("invalid game option")
)

// IsRuleError reports whether err (or anything it wraps) is a RuleError.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// ErrContractViolation marks calls the engine should never receive from a correct caller.
var ErrContractViolation = errors.New("contract violation")

// ErrNotRunning is returned when turn advancement is requested with no active player.
var ErrNotRunning = fmt.Errorf("%w: no active player", ErrContractViolation)

// IsContractViolation reports whether err is a programming error rather than a refused move.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}

// ErrNoCardsLeft is returned when neither the deck nor the stack can supply a card.
var ErrNoCardsLeft = errors.New("no cards left to draw")
