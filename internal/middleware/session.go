// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/service"
)

type ctxKey string

const userKey ctxKey = "user"

// SessionResolver resolves a session token to the account holding it.
type SessionResolver interface {
	GetUserBySession(ctx context.Context, session string) (*models.User, error)
}

// SessionAuth is a middleware that requires a valid session cookie.
//
// It reads the session cookie, resolves it through resolver and stores the
// resulting user in the request context for downstream handlers. Requests
// without a cookie, or with one that matches no account, get 401. Any other
// failure gets 500 with a generic body.
func SessionAuth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(models.SessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "not logged in", http.StatusUnauthorized)
				return
			}

			user, err := resolver.GetUserBySession(r.Context(), cookie.Value)
			if err != nil {
				if service.IsAuthError(err) {
					http.Error(w, "not logged in", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated user stored by SessionAuth.
// Returns nil if not found.
func GetUserFromContext(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

// WithUser returns a copy of ctx carrying user, as SessionAuth would.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
