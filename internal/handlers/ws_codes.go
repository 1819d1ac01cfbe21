// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game handler.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	InvalidPlayerError  = 3002 // player_id missing or not seated in the game.
	InvalidGameIDError  = 3003 // Target game does not exist.
)
