// internal/handlers/game.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/runo/internal/game"
	"github.com/jason-s-yu/runo/internal/models"
)

type createGameResponse struct {
	GameID string         `json:"game_id"`
	Player *models.Player `json:"player"`
	State  *game.GameView `json:"state"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type playRequest struct {
	PlayerID string       `json:"player_id"`
	CardID   string       `json:"card_id"`
	Color    models.Color `json:"color"`
}

type drawResponse struct {
	Card *models.Card `json:"card"`
}

// CreateGameHandler creates a game from the JSON options in the body and returns
// the admin seat, private id included.
func (s *GameServer) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var opts game.Options
	if err := decodeBody(r, &opts); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	g, err := s.svc.CreateGame(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	admin := g.Players[0]
	view, err := g.StateFor(admin.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{GameID: g.ID, Player: admin, State: view})
}

func (s *GameServer) OpenGamesHandler(w http.ResponseWriter, r *http.Request) {
	games, err := s.svc.OpenGames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// JoinGameHandler seats a new player. The response is the only time the new
// player's private id is revealed.
func (s *GameServer) JoinGameHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.svc.JoinGame(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *GameServer) LeaveGameHandler(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.svc.LeaveGame(r.Context(), r.PathValue("id"), req.PlayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *GameServer) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	gameID := r.PathValue("id")
	if err := s.svc.AdminStartGame(r.Context(), gameID, req.PlayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, r, gameID, req.PlayerID)
}

func (s *GameServer) PlayCardHandler(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	gameID := r.PathValue("id")
	if err := s.svc.PlayCard(r.Context(), gameID, req.PlayerID, req.CardID, req.Color); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, r, gameID, req.PlayerID)
}

func (s *GameServer) DrawCardHandler(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	card, err := s.svc.PlayerDrawCard(r.Context(), r.PathValue("id"), req.PlayerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drawResponse{Card: card})
}

// StateHandler returns the game as seen by ?player_id=.
func (s *GameServer) StateHandler(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, r, r.PathValue("id"), r.URL.Query().Get("player_id"))
}

func (s *GameServer) writeState(w http.ResponseWriter, r *http.Request, gameID, playerID string) {
	view, err := s.svc.GetState(r.Context(), gameID, playerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
