// Package main is the entrypoint for the Hypecycle API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/hypecycle/internal/ai"
	"github.com/kiranshivaraju/hypecycle/internal/api"
	"github.com/kiranshivaraju/hypecycle/internal/api/handler"
	mw "github.com/kiranshivaraju/hypecycle/internal/api/middleware"
	"github.com/kiranshivaraju/hypecycle/internal/cache"
	"github.com/kiranshivaraju/hypecycle/internal/classifier"
	"github.com/kiranshivaraju/hypecycle/internal/collector"
	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/internal/scheduler"
	"github.com/kiranshivaraju/hypecycle/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	slog.SetDefault(newLogger("info"))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	slog.Info("config loaded",
		"ai_provider", cfg.AI.Provider,
		"env", cfg.Server.Env,
		"database", cfg.Database.Driver(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the analysis store (Postgres migrations run here)
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	slog.Info("database connected", "driver", cfg.Database.Driver())

	// 3. Redis is optional; without it the hot cache and rate limiter are no-ops
	var (
		hot         cache.Cache = cache.NopCache{}
		cachePinger handler.Pinger
	)
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		hot, cachePinger = redisCache, redisCache
		slog.Info("redis connected")
	} else {
		slog.Info("redis disabled, hot cache and rate limiting off")
	}

	// 4. Create AI provider
	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", provider.Name())

	// 5. Assemble the classification pipeline
	analyzer := ai.NewAnalyzer(provider, cfg.AI.Temperature, cfg.AI.InferenceTimeout)
	collectors := collector.NewRegistry(cfg.Collectors, provider, cfg.AI.Temperature)
	cls := classifier.New(cfg.Classifier, collectors, analyzer, st, cache.NewAnalysisCache(hot))

	// 6. Watchlist refresh
	var refresher *scheduler.Refresher
	if cfg.Refresh.Enabled() {
		refresher, err = scheduler.NewRefresher(cfg.Refresh.Schedule, cfg.Refresh.Keywords, cls)
		if err != nil {
			return fmt.Errorf("create refresher: %w", err)
		}
		refresher.Start()
		slog.Info("watchlist refresh scheduled",
			"schedule", cfg.Refresh.Schedule,
			"keywords", len(cfg.Refresh.Keywords),
			"next", refresher.Next(),
		)
	}

	// 7. Build router with dependencies
	router := api.NewRouter(api.Dependencies{
		RateLimit: mw.NewRateLimit(hot, cfg.Server.RateLimitPerMinute),

		HealthHandler:  handler.NewHealthHandler(st, cachePinger),
		AnalyzeHandler: handler.NewAnalyzeHandler(cls),
		HistoryHandler: handler.NewHistoryHandler(st),
	})

	// 8. Start HTTP server
	srv := newServer(cfg.Server.Port, router)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if refresher != nil {
		refresher.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newServer sets the write timeout well above the collector budget so that
// a full classification run can finish on one request.
func newServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}
