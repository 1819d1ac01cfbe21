package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/runo/internal/game"
	"github.com/jason-s-yu/runo/internal/service"
)

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps service and engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDailyLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidOption), errors.Is(err, game.ErrColorRequired):
		return http.StatusBadRequest
	case game.IsRuleError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *GameServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.WithField("path", r.URL.Path).WithError(err).Error("request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody reads a JSON request body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
