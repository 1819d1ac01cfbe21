// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/runo/internal/game"
	"github.com/jason-s-yu/runo/internal/middleware"
	"github.com/jason-s-yu/runo/internal/models"
	"github.com/jason-s-yu/runo/internal/service"
	"github.com/sirupsen/logrus"
)

// GameMessage is an incoming WebSocket message.
type GameMessage struct {
	Type   string       `json:"type"` // "play", "draw", "leave", "start" or "ping"
	CardID string       `json:"card_id,omitempty"`
	Color  models.Color `json:"color,omitempty"`
}

var errUnknownAction = errors.New("unknown action type")

// outgoing message types
const (
	msgState = "state"
	msgDrawn = "drawn"
	msgError = "error"
	msgPong  = "pong"
)

type wsOutgoing struct {
	Type    string         `json:"type"`
	State   *game.GameView `json:"state,omitempty"`
	Card    *models.Card   `json:"card,omitempty"`
	Message string         `json:"message,omitempty"`
}

// GameWSHandler upgrades to a WebSocket for /games/{id}/ws?player_id=. The client
// receives its own view of the game on connect and again after every change, and
// may send moves over the same connection.
func (s *GameServer) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := r.URL.Query().Get("player_id")

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != "game" {
		c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	view, err := s.svc.GetState(ctx, gameID, playerID)
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		c.Close(InvalidGameIDError, "Game not found.")
		return
	case errors.Is(err, game.ErrPlayerNotFound):
		c.Close(InvalidPlayerError, "You are not a player in this game.")
		return
	case err != nil:
		s.logger.WithField("game", gameID).WithError(err).Error("failed to load game for websocket")
		return
	}

	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)
	changes, unsubscribe := s.svc.Subscribe(gameID)
	defer unsubscribe()

	out := make(chan wsOutgoing, 8)
	out <- wsOutgoing{Type: msgState, State: view}

	go s.writeLoop(ctx, cancel, c, gameID, playerID, changes, out)
	err = s.readLoop(ctx, c, gameID, playerID, out)

	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
	c.Close(websocket.StatusNormalClosure, "")
}

// writeLoop owns all writes to c. It pushes queued replies and a fresh view after
// every change notification.
func (s *GameServer) writeLoop(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, gameID, playerID string, changes <-chan struct{}, out <-chan wsOutgoing) {
	defer cancel()
	for {
		var msg wsOutgoing
		select {
		case <-ctx.Done():
			return
		case msg = <-out:
		case <-changes:
			view, err := s.svc.GetState(ctx, gameID, playerID)
			if err != nil {
				// the game expired or the player left
				msg = wsOutgoing{Type: msgError, Message: err.Error()}
				s.send(ctx, c, msg)
				return
			}
			msg = wsOutgoing{Type: msgState, State: view}
		}
		if err := s.send(ctx, c, msg); err != nil {
			return
		}
	}
}

func (s *GameServer) send(ctx context.Context, c *websocket.Conn, msg wsOutgoing) error {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Errorf("Failed to marshal %s message: %v", msg.Type, err)
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}

// readLoop applies incoming moves until the connection closes. Replies go through out.
func (s *GameServer) readLoop(ctx context.Context, c *websocket.Conn, gameID, playerID string, out chan<- wsOutgoing) error {
	logger := s.logger.WithFields(logrus.Fields{"game": gameID, "player": playerID})
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.Warnf("Ignoring non-text message type %d.", msgType)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(ctx, out, wsOutgoing{Type: msgError, Message: "Invalid JSON format."})
			continue
		}
		logger.Debugf("Received action '%s'.", msg.Type)

		var opErr error
		switch msg.Type {
		case "play":
			opErr = s.svc.PlayCard(ctx, gameID, playerID, msg.CardID, msg.Color)
		case "draw":
			var card *models.Card
			card, opErr = s.svc.PlayerDrawCard(ctx, gameID, playerID)
			if opErr == nil {
				reply(ctx, out, wsOutgoing{Type: msgDrawn, Card: card})
			}
		case "start":
			opErr = s.svc.AdminStartGame(ctx, gameID, playerID)
		case "leave":
			if err := s.svc.LeaveGame(ctx, gameID, playerID); err != nil {
				reply(ctx, out, wsOutgoing{Type: msgError, Message: err.Error()})
				continue
			}
			return nil
		case "ping":
			reply(ctx, out, wsOutgoing{Type: msgPong})
		default:
			opErr = fmt.Errorf("%w: %s", errUnknownAction, msg.Type)
		}
		if opErr != nil {
			if statusFor(opErr) == http.StatusInternalServerError && !errors.Is(opErr, errUnknownAction) {
				logger.WithError(opErr).Error("action failed")
			}
			reply(ctx, out, wsOutgoing{Type: msgError, Message: opErr.Error()})
		}
	}
}

func reply(ctx context.Context, out chan<- wsOutgoing, msg wsOutgoing) {
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}
