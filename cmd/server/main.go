// Pawtine - dog care routine tracker server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/Zaphkiel07/Pawtine2/internal/agent"
	"github.com/Zaphkiel07/Pawtine2/internal/api"
	"github.com/Zaphkiel07/Pawtine2/internal/config"
	"github.com/Zaphkiel07/Pawtine2/internal/events"
	"github.com/Zaphkiel07/Pawtine2/internal/health"
	"github.com/Zaphkiel07/Pawtine2/internal/identity"
	"github.com/Zaphkiel07/Pawtine2/internal/metrics"
	"github.com/Zaphkiel07/Pawtine2/internal/middleware"
	"github.com/Zaphkiel07/Pawtine2/internal/routines"
	"github.com/Zaphkiel07/Pawtine2/internal/schedule"
	"github.com/Zaphkiel07/Pawtine2/internal/store"
	"github.com/Zaphkiel07/Pawtine2/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	clock := schedule.SystemClock
	repo, err := store.Open(ctx, cfg, clock)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "backend", repo.Backend())

	m := metrics.New(repo.Backend())
	hub := events.NewHub()

	svc := routines.NewService(repo,
		routines.WithClock(clock),
		routines.WithPublisher(hub),
		routines.WithMetrics(m),
	)

	// Chat assistant. Without a key it answers with a setup hint.
	var completer agent.Completer
	if cfg.ChatEnabled() {
		completer = agent.NewOpenAIClient(cfg.OpenAI)
		slog.Info("Chat assistant enabled", "model", cfg.OpenAI.Model)
	} else {
		slog.Info("Chat assistant disabled (OPENAI_API_KEY not set)")
	}
	conversationLogger, err := agent.NewConversationLogger(cfg.ConversationLog, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	agentHandler := agent.NewHandler(
		agent.NewService(completer, svc, clock, m),
		agent.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration),
		conversationLogger,
	)
	defer agentHandler.Close()

	// Initialize handlers.
	apiHandler := api.NewHandler(svc, repo.Backend(), cfg.ChatEnabled())
	healthHandler := api.NewHealthHandler(repo, cfg.HealthCheckTimeout)
	wsHandler := events.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	r.Handle("/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment(), cfg.DemoUser))

		apiHandler.RegisterRoutes(r)
		agentHandler.RegisterRoutes(r)

		// WebSocket endpoint.
		r.Get("/ws/updates", wsHandler.ServeHTTP)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WriteTimeout stays 0 so the websocket feed is not cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start health worker and gRPC health service.
	grpcHealth := health.NewGRPCServer()
	checker := health.NewStoreChecker(repo, cfg.HealthCheckTimeout, m)
	checker.OnChange(grpcHealth.SetHealthy)
	go checker.Start(ctx, cfg.HealthProbeInterval)

	go func() {
		if err := grpcHealth.ListenAndServe(cfg.GRPCHealthPort); err != nil {
			slog.Error("gRPC health server failed", "error", err)
		}
	}()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcHealth.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
