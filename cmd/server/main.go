// Package main initializes and starts the GophChat server, setting up
// configuration, logging, the account store, services, the chat registry,
// handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/GophChat/internal/auth"
	"github.com/atinyakov/GophChat/internal/chat"
	"github.com/atinyakov/GophChat/internal/config"
	"github.com/atinyakov/GophChat/internal/db"
	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/atinyakov/GophChat/internal/server/handler/http"
	"github.com/atinyakov/GophChat/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Pick the account store.
	repo, closeRepo := openRepository(options.DatabaseDSN, zapLogger)
	defer closeRepo()

	accounts := service.NewAccountManager(
		repo,
		auth.NewHasher(auth.DefaultIterations),
		auth.UUIDIssuer{},
		zapLogger,
	)

	// Metrics: runtime collectors plus the chat registry's own.
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registry := chat.NewRegistry(accounts, zapLogger, chat.NewMetrics(promRegistry))

	authHandler := &http.AuthHandler{
		AuthService: accounts,
		Cookies: http.CookieOptions{
			MaxAge: time.Duration(options.CookieMaxAge) * time.Second,
			Secure: options.SecureCookies,
		},
	}
	chatHandler := http.NewChatHandler(registry, zapLogger)
	metricsHandler := promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})

	router := http.NewRouter(authHandler, chatHandler, accounts, metricsHandler, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	var err error
	if options.TLSEnabled() {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server",
			zap.String("addr", options.Address),
			zap.Bool("secure_cookies", options.SecureCookies),
		)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
}

// openRepository connects to PostgreSQL when dsn is set and falls back to
// the in-memory store otherwise.
func openRepository(dsn string, log *zap.Logger) (service.UserRepository, func()) {
	if dsn == "" {
		log.Warn("no database configured, accounts are kept in memory")
		return repository.NewMemoryUserRepository(), func() {}
	}

	conn, err := db.InitPostgres(dsn)
	if err != nil {
		log.Fatal("cannot init database", zap.Error(err))
	}
	return repository.NewPostgresUserRepository(conn), func() { closeDB(conn, log) }
}

func closeDB(conn *sql.DB, log *zap.Logger) {
	if err := conn.Close(); err != nil {
		log.Warn("closing database", zap.Error(err))
	}
}
