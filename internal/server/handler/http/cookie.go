package http

import (
	"net/http"
	"time"

	"github.com/atinyakov/GophChat/internal/models"
)

// DefaultCookieMaxAge is the lifetime given to session cookies unless
// configured otherwise.
const DefaultCookieMaxAge = 1200 * time.Second

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	// MaxAge is the cookie lifetime. Zero omits Max-Age, making it a
	// browser-session cookie.
	MaxAge time.Duration
	// Secure restricts the cookie to encrypted transports.
	Secure bool
}

// SetSessionCookie writes token into the session cookie: whole path, not
// readable by scripts, same-site only.
func SetSessionCookie(w http.ResponseWriter, token string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ResetSessionCookie tells the client to drop the session cookie.
func ResetSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
