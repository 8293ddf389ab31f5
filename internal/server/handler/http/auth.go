// Package http provides HTTP handlers for account management,
// session cookies and the websocket chat.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/GophChat/internal/middleware"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/service"
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns its session token.
	Register(ctx context.Context, username, password string) (string, error)
	// Login verifies credentials and returns a fresh session token.
	Login(ctx context.Context, username, password string) (string, error)
	// Logout clears the given session.
	Logout(ctx context.Context, session string) error
	// Delete removes the account with the given ID.
	Delete(ctx context.Context, userID string) error
}

// Validation errors, reported before the account manager is consulted.
var (
	ErrMissingUsername = errors.New("username is missing")
	ErrMissingPassword = errors.New("password is missing")
)

// AuthHandler handles HTTP requests for registration, login, logout and
// account removal.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// Cookies sets the session cookie attributes.
	Cookies CookieOptions
}

// Register handles user registration requests.
// It expects a JSON body with non-empty "username" and "password" fields.
// On success the session cookie is set and the username is echoed back.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.AuthService.Register(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	SetSessionCookie(w, session, h.Cookies)
	writeJSON(w, map[string]string{"status": "ok", "user": creds.Username})
}

// Login handles password login requests. A successful login replaces the
// account's previous session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.AuthService.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	SetSessionCookie(w, session, h.Cookies)
	writeJSON(w, map[string]string{"status": "ok", "user": creds.Username})
}

// Logout clears the current session and its cookie.
// Must run behind middleware.SessionAuth.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	if err := h.AuthService.Logout(r.Context(), user.Session); err != nil {
		writeServiceError(w, err)
		return
	}

	ResetSessionCookie(w, h.Cookies)
	writeJSON(w, map[string]string{"status": "ok"})
}

// DeleteAccount removes the current account and clears its cookie.
// Must run behind middleware.SessionAuth.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}

	if err := h.AuthService.Delete(r.Context(), user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	ResetSessionCookie(w, h.Cookies)
	writeJSON(w, map[string]string{"status": "ok"})
}

// Me returns the username of the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"user": user.Username})
}

func decodeCredentials(r *http.Request) (models.Credentials, error) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return creds, errors.New("malformed body")
	}
	if creds.Username == "" {
		return creds, ErrMissingUsername
	}
	if creds.Password == "" {
		return creds, ErrMissingPassword
	}
	return creds, nil
}

// writeServiceError maps account manager errors to status codes. Bodies are
// generic; store details never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		http.Error(w, "username already taken", http.StatusConflict)
	case errors.Is(err, service.ErrUnknownUsername), errors.Is(err, service.ErrIncorrectPassword):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, service.ErrSessionNotFound):
		http.Error(w, "not logged in", http.StatusUnauthorized)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
