// Package http provides the HTTP handlers of the StudyNotes service:
// account lifecycle, PDF upload, notes and quiz APIs, page shells and
// image serving.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/atinyakov/StudyNotes/internal/session"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// CreateAccount registers a new account. Duplicate email or username
	// yields models.ErrConflict.
	CreateAccount(ctx context.Context, email, username, password string) error
	// Authenticate verifies the password of the account identified by
	// email or username, returning models.ErrInvalidCredentials on mismatch.
	Authenticate(ctx context.Context, login, password string) (*models.Account, error)
}

// SessionManager records login state and the active document.
type SessionManager interface {
	Login(w http.ResponseWriter, r *http.Request, acc *models.Account) error
	RegisterUpload(w http.ResponseWriter, r *http.Request, relPath string, images []string) error
	Logout(w http.ResponseWriter, r *http.Request) error
}

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// Sessions stores the logged-in identity.
	Sessions SessionManager
	// Log receives handler diagnostics.
	Log *zap.Logger
}

// Signup handles POST /signup with form fields email, username and password.
// On success it redirects to the login page.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err := h.AuthService.CreateAccount(r.Context(),
		r.PostFormValue("email"),
		r.PostFormValue("username"),
		r.PostFormValue("password"),
	)
	switch {
	case errors.Is(err, models.ErrConflict):
		http.Error(w, "Email or Username already exists", http.StatusBadRequest)
		return
	case errors.Is(err, models.ErrInvalidInput):
		http.Error(w, "Email, username and password are required", http.StatusBadRequest)
		return
	case err != nil:
		h.Log.Error("signup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// Login handles POST /login with form fields login (email or username) and
// password. On success the identity is stored in the session and the
// client is redirected home.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	acc, err := h.AuthService.Authenticate(r.Context(), r.PostFormValue("login"), r.PostFormValue("password"))
	if errors.Is(err, models.ErrInvalidCredentials) {
		http.Error(w, "Invalid email or password", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Log.Error("login failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.Sessions.Login(w, r, acc); err != nil {
		h.Log.Error("store session failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles GET /logout. It clears the session and redirects home.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	username := session.FromContext(r.Context()).Username
	h.Log.Info("logging out user", zap.String("user", username))

	if err := h.Sessions.Logout(w, r); err != nil {
		h.Log.Warn("clear session failed", zap.Error(err))
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}
