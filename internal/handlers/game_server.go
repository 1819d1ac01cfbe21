// internal/handlers/game_server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/runo/internal/middleware"
	"github.com/jason-s-yu/runo/internal/service"
	"github.com/sirupsen/logrus"
)

// GameServer exposes the game service over HTTP and WebSocket.
type GameServer struct {
	svc    *service.Service
	logger *logrus.Logger
}

func NewGameServer(svc *service.Service, logger *logrus.Logger) *GameServer {
	return &GameServer{svc: svc, logger: logger}
}

// Routes registers every endpoint on a new mux wrapped with request logging.
func (s *GameServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /games", s.CreateGameHandler)
	mux.HandleFunc("GET /games/open", s.OpenGamesHandler)
	mux.HandleFunc("POST /games/{id}/join", s.JoinGameHandler)
	mux.HandleFunc("POST /games/{id}/leave", s.LeaveGameHandler)
	mux.HandleFunc("POST /games/{id}/start", s.StartGameHandler)
	mux.HandleFunc("POST /games/{id}/play", s.PlayCardHandler)
	mux.HandleFunc("POST /games/{id}/draw", s.DrawCardHandler)
	mux.HandleFunc("GET /games/{id}/state", s.StateHandler)
	mux.HandleFunc("GET /games/{id}/ws", s.GameWSHandler)

	return middleware.LogMiddleware(s.logger)(mux)
}
