package middleware

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
)

// Harden wraps h with panic recovery (logged through logger) and CORS for the
// given origins. An empty origin list allows any origin.
func Harden(logger *logrus.Logger, origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(origins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(logger),
		gorillahandlers.PrintRecoveryStack(true),
	)
	return func(h http.Handler) http.Handler {
		return recovery(cors(h))
	}
}
