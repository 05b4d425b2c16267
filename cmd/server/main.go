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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"growthtrack/internal/app"
	"growthtrack/internal/config"
	"growthtrack/internal/handlers"
	"growthtrack/internal/scheduler"
	"growthtrack/internal/security"
)

const batchJobName = "weekly-summaries"

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("Migrations completed successfully")

	// Manual generation requests are rate limited per child
	limiter := security.NewRateLimiter(cfg.GenerateRateLimit, cfg.GenerateRateWindow)
	defer limiter.Stop()

	if cfg.APITokenSecret == "" {
		logger.Warn("API_TOKEN_SECRET not set: API requests are not authenticated")
	}

	router := handlers.NewRouter(
		handlers.NewSummaryHandler(a.Service),
		handlers.NewRecordHandler(a.Children, a.Growth, a.Milestones, a.Behavior),
		handlers.NewMiddleware(cfg.APITokenSecret, limiter, logger),
		promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
	)

	// Weekly batch over all children
	jobs := scheduler.New(logger)
	defer jobs.Stop()
	if cfg.BatchInterval > 0 {
		err := jobs.Register(batchJobName, cfg.BatchInterval, func(ctx context.Context) {
			if _, err := a.Service.GenerateAll(ctx, nil); err != nil {
				logger.Error("Batch run failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
