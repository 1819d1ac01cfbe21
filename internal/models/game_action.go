package models

// Action types recorded for every successful mutation.
const (
	ActionCreate = "create_game"
	ActionJoin   = "join_game"
	ActionLeave  = "leave_game"
	ActionStart  = "start_game"
	ActionPlay   = "play_card"
	ActionDraw   = "draw_card"
	ActionEnd    = "end_game"
)

// GameAction captures a player's in-game move for the historian.
// ActionIndex is the game version the move produced, so it increases per game.
type GameAction struct {
	GameID      string                 `json:"game_id"`
	ActionIndex int                    `json:"action_index"`
	ActorID     string                 `json:"actor_id"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"action_payload"`
	Timestamp   int64                  `json:"timestamp"`
}
