package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/config"
	"storefront-admin/internal/db"
	"storefront-admin/internal/flash"
	"storefront-admin/internal/handlers"
	"storefront-admin/internal/logger"
	"storefront-admin/internal/router"
	"storefront-admin/internal/services"
	"storefront-admin/internal/session"
	"storefront-admin/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const flashCookieName = "dashboard_flash"

func main() {
	cfg := config.LoadConfig()

	log := logger.InitLogger(cfg.LogLevel)
	log.Info().Str("backend", cfg.BackendURL).Msg("Starting admin dashboard")

	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("SESSION_SECRET not set, using default key")
	}
	if cfg.MetricsToken == "" {
		log.Warn().Msg("METRICS_TOKEN not set, /metrics is unauthenticated; keep it off public networks")
	}

	kv, database, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to open session storage")
	}
	if database != nil {
		defer database.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	api := backend.NewClient(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(log),
		backend.WithMetrics(backend.NewMetrics(registry)),
	)

	view, err := handlers.NewRenderer(cfg.Currency, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}

	handler := router.SetupRouter(router.Dependencies{
		Auth:           services.NewAuthService(cfg.SessionSecret, log),
		Sessions:       session.NewManager(kv, session.NewSealer(cfg.SessionSecret), log),
		Login:          services.NewLoginService(api, log),
		Products:       services.NewProductService(api, log),
		Orders:         services.NewOrderService(api, log),
		View:           view,
		Flash:          flash.NewCodec([]byte(cfg.SessionSecret), flashCookieName, cfg.CookieSecure),
		Gatherer:       registry,
		CookieSecure:   cfg.CookieSecure,
		MetricsToken:   cfg.MetricsToken,
		RateLimit:      rate.Limit(cfg.RateLimit),
		RateBurst:      cfg.RateBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	}, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Info().Msg("Shutdown signal received...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

// openStore picks the key/value storage named by DB_DRIVER. The returned
// database is nil for the in-memory store.
func openStore(cfg config.Config, log zerolog.Logger) (storage.KV, *sql.DB, error) {
	if cfg.DBDriver == "memory" {
		log.Warn().Msg("Using in-memory session storage; sessions are lost on restart")
		return storage.NewMemoryStore(), nil, nil
	}

	database, err := db.InitDB(cfg.DBDriver, cfg.DBUrl)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(database, cfg.DBDriver); err != nil {
		database.Close()
		return nil, nil, err
	}
	return storage.NewSQLStore(database, cfg.DBDriver, log), database, nil
}
