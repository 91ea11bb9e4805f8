// Package http provides the JSON API handlers for authentication,
// portfolios and the asset registry.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avolkov/cryptofolio/internal/middleware"
	"github.com/avolkov/cryptofolio/internal/models"
)

// AuthService defines the session and account operations required by the
// HTTP handlers.
type AuthService interface {
	// Register creates a new user account.
	Register(ctx context.Context, email, password string) error
	// Login verifies credentials and issues a session token.
	Login(ctx context.Context, email, password string) (*models.Session, error)
	// Logout deletes the token.
	Logout(ctx context.Context, token string) error
	// Elevate trades a whitelisted owner's token for an elevated one.
	Elevate(ctx context.Context, token string) (*models.Session, error)
}

// AuthHandler handles registration, login, logout and elevation.
type AuthHandler struct {
	// AuthService performs the underlying session operations.
	AuthService AuthService
	// CookieTTL bounds the client-side lifetime of the auth cookie. The
	// server-side retention window is enforced independently.
	CookieTTL time.Duration
}

// credentialsRequest is the JSON payload for register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.AuthService.Register(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

// Login handles POST /api/login. On success the session token is set as
// the auth cookie and echoed in the body together with the role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	session, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setCookie(w, session.Token, h.CookieTTL)
	writeJSON(w, http.StatusOK, map[string]string{
		"token": session.Token,
		"role":  string(session.Role),
	})
}

// Logout handles POST /api/logout. It deletes the token row and expires
// the cookie on the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AuthCookie)
	if err != nil {
		writeError(w, models.ErrMissingToken)
		return
	}

	if err := h.AuthService.Logout(r.Context(), cookie.Value); err != nil {
		writeError(w, err)
		return
	}

	h.setCookie(w, "", -time.Second)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Elevate handles POST /api/elevate. A whitelisted owner receives a
// fresh elevated token; the old token is gone afterwards.
func (h *AuthHandler) Elevate(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AuthCookie)
	if err != nil {
		writeError(w, models.ErrMissingToken)
		return
	}

	session, err := h.AuthService.Elevate(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setCookie(w, session.Token, h.CookieTTL)
	writeJSON(w, http.StatusOK, map[string]string{
		"token": session.Token,
		"role":  string(session.Role),
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}
