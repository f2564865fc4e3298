package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/startupnamer/vitals/internal/alerting"
	"github.com/startupnamer/vitals/internal/config"
	"github.com/startupnamer/vitals/internal/enricher"
	"github.com/startupnamer/vitals/internal/handler"
	"github.com/startupnamer/vitals/internal/metrics"
	"github.com/startupnamer/vitals/internal/migrate"
	"github.com/startupnamer/vitals/internal/ratelimit"
	"github.com/startupnamer/vitals/internal/storage"
	"github.com/startupnamer/vitals/internal/summary"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/vitals.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Info().Msg("Starting Web Vitals pipeline...")

	ctx := context.Background()

	if err := migrate.Up(ctx, cfg.Postgres.DSN, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid postgres DSN")
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create postgres pool")
	}
	defer pool.Close()

	store := storage.NewPostgres(pool)
	if err := store.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to reach postgres")
	}
	log.Info().Msg("Postgres initialized")

	sampleEnricher := enricher.New(cfg.GeoIP.DatabasePath)
	defer sampleEnricher.Close()
	log.Info().Msg("Enricher initialized")

	limiter, err := ratelimit.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log.Logger)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory rate limiter")
		limiter = ratelimit.NewMemory()
	} else {
		log.Info().Msg("Redis rate limiter initialized")
	}
	defer limiter.Close()

	summaries := summary.New(store, log.Logger)
	alerts := alerting.New(store, log.Logger)
	httpMetrics := metrics.New()

	vitalsHandler := handler.NewVitals(store, summaries, sampleEnricher, httpMetrics, log.Logger)
	monitoringHandler := handler.NewMonitoring(summaries, alerts, store.Ping, log.Logger)

	trusted := handler.TrustedClients(cfg.RateLimit.TrustedIPs)
	ingestLimit := handler.RateLimit(limiter, "ingest", cfg.RateLimit.IngestLimit, cfg.RateLimit.IngestWindowDuration(), trusted, log.Logger)
	monitoringLimit := handler.RateLimit(limiter, "monitoring", cfg.RateLimit.MonitoringLimit, cfg.RateLimit.MonitoringWindowDuration(), trusted, log.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(handler.CORSMiddleware)
	r.Use(httpMetrics.Middleware)

	r.Handle("/metrics", httpMetrics.Handler())

	r.Route("/vitals", func(r chi.Router) {
		r.Get("/health", vitalsHandler.Health)
		r.Group(func(r chi.Router) {
			r.Use(ingestLimit)
			r.Post("/", vitalsHandler.Ingest)
			r.Post("/batch", vitalsHandler.IngestBatch)
			r.Get("/summary", vitalsHandler.Summary)
		})
	})

	r.Route("/monitoring", func(r chi.Router) {
		r.Use(monitoringLimit)
		r.Get("/dashboard", monitoringHandler.Dashboard)
		r.Get("/alerts", monitoringHandler.ListAlerts)
		r.Post("/alert", monitoringHandler.CreateAlert)
		r.Get("/health", monitoringHandler.Health)
		r.Get("/metrics", monitoringHandler.RealtimeMetrics)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: r,
	}

	go func() {
		log.Info().Int("port", cfg.Server.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to serve HTTP")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
	log.Info().Msg("Server stopped")
}
