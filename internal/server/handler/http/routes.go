package http

import (
	"net/http"

	"github.com/atinyakov/GophChat/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler for the chat server.
//
// Routes:
//
//	POST   /api/register → authHandler.Register
//	POST   /api/login    → authHandler.Login
//	POST   /api/logout   → authHandler.Logout (session required)
//	DELETE /api/account  → authHandler.DeleteAccount (session required)
//	GET    /api/me       → authHandler.Me (session required)
//	GET    /ws           → chatHandler.Serve
//	GET    /metrics      → metrics, when non-nil
//
// Every request is logged. API routes only accept JSON bodies. The
// websocket route checks its cookie itself so that rejected connections
// are dropped after the upgrade rather than answered.
func NewRouter(
	authHandler *AuthHandler,
	chatHandler *ChatHandler,
	sessions middleware.SessionResolver,
	metrics http.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/ws", chatHandler.Serve)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(sessions))
			r.Post("/logout", authHandler.Logout)
			r.Delete("/account", authHandler.DeleteAccount)
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
