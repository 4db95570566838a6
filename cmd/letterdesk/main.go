package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	ldhttp "github.com/letterdesk/letterdesk/internal/adapter/http"
	"github.com/letterdesk/letterdesk/internal/adapter/litellm"
	ldnats "github.com/letterdesk/letterdesk/internal/adapter/nats"
	ldotel "github.com/letterdesk/letterdesk/internal/adapter/otel"
	"github.com/letterdesk/letterdesk/internal/adapter/postgres"
	"github.com/letterdesk/letterdesk/internal/adapter/ristretto"
	"github.com/letterdesk/letterdesk/internal/adapter/ws"
	"github.com/letterdesk/letterdesk/internal/config"
	"github.com/letterdesk/letterdesk/internal/logger"
	"github.com/letterdesk/letterdesk/internal/middleware"
	"github.com/letterdesk/letterdesk/internal/port/events"
	"github.com/letterdesk/letterdesk/internal/resilience"
	"github.com/letterdesk/letterdesk/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"auth_enabled", cfg.Auth.Enabled,
		"panel_max_rounds", cfg.Panel.MaxRounds,
	)

	ctx := context.Background()

	// --- Telemetry ---
	if cfg.Telemetry.Enabled {
		shutdown, err := ldotel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
	}

	var metrics *ldotel.Metrics
	if cfg.Telemetry.Enabled {
		metrics, err = ldotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS is optional: an empty URL disables eventing entirely.
	var queue events.Publisher
	if cfg.NATS.URL != "" {
		natsQueue, err := ldnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = natsQueue.Close() }()
		queue = natsQueue
		slog.Info("nats connected", "url", cfg.NATS.URL)
	} else {
		slog.Info("nats disabled, events will not be published")
	}

	suggestionCache, err := ristretto.New(cfg.Cache.MaxSizeMB * 1024 * 1024)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer suggestionCache.Close()

	llmClient := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	llmClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	authSvc := service.NewAuthService(cfg.Auth)
	panelSvc := service.NewPanelService(llmClient, hub, cfg.Panel)
	letterSvc := service.NewLetterService(store, panelSvc, queue, hub, metrics)
	advisorSvc := service.NewAdvisorService(llmClient, suggestionCache, cfg.Advisor)

	// --- HTTP ---
	handlers := &ldhttp.Handlers{
		Letters: letterSvc,
		Advisor: advisorSvc,
		Auth:    authSvc,
		LiteLLM: llmClient,
		Pool:    pool,
		Queue:   queue,
		Hub:     hub,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()

	r.Use(ldhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(ldhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(ldhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	if cfg.Telemetry.Enabled {
		r.Use(ldotel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.Auth(authSvc, cfg.Auth.Enabled))

	r.Get("/health", handlers.Health)
	r.Get("/ws", hub.HandleWS)
	ldhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Multi-round panel generation can take minutes.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
