// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/atinyakov/StudyNotes/internal/session"
)

// RequireLogin is a middleware that rejects requests whose session carries
// no logged-in user with 401 and a JSON error body containing message.
//
// It must run after session.Manager.Middleware, which loads the session
// into the request context.
func RequireLogin(message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.FromContext(r.Context()).LoggedIn() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
