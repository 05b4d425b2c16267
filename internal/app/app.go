// Package app assembles the summary pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"growthtrack/internal/config"
	"growthtrack/internal/database"
	"growthtrack/internal/llm"
	"growthtrack/internal/metrics"
	"growthtrack/internal/repository"
	"growthtrack/internal/service"
)

// App holds the wired components shared by the server and the CLI
type App struct {
	Config   *config.Config
	DB       *database.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Collectors

	Children   *repository.ChildRepository
	Growth     *repository.GrowthRepository
	Milestones *repository.MilestoneRepository
	Behavior   *repository.BehaviorRepository
	Summaries  *repository.SummaryRepository

	Email   *service.EmailService
	Service *service.SummaryService
}

// New opens the database, runs migrations and builds the summary service.
// Callers must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database connection established", "type", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	email, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.SummaryNotifyEmail, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collectorSet := metrics.New(registry)

	a := &App{
		Config:     cfg,
		DB:         db,
		Registry:   registry,
		Metrics:    collectorSet,
		Children:   repository.NewChildRepository(db),
		Growth:     repository.NewGrowthRepository(db),
		Milestones: repository.NewMilestoneRepository(db),
		Behavior:   repository.NewBehaviorRepository(db),
		Summaries:  repository.NewSummaryRepository(db),
		Email:      email,
	}

	a.Service = service.NewSummaryService(service.Stores{
		Children:   a.Children,
		Growth:     a.Growth,
		Milestones: a.Milestones,
		Behavior:   a.Behavior,
		Summaries:  a.Summaries,
	}, NewGateway(cfg, collectorSet, logger),
		service.WithNotifier(email),
		service.WithSummaryMetrics(collectorSet),
		service.WithSummaryLogger(logger),
	)
	return a, nil
}

// NewGateway builds the retrying generation gateway described by cfg
func NewGateway(cfg *config.Config, m *metrics.Collectors, logger *slog.Logger) *llm.RetryingGateway {
	client := llm.NewChatClient(cfg.LLMBaseURL, cfg.LLMAPIKey,
		llm.WithHTTPClient(&http.Client{Timeout: cfg.LLMTimeout}),
		llm.WithLogger(logger),
	)

	retry := llm.DefaultRetryConfig()
	retry.MaxAttempts = cfg.RetryMaxAttempts
	retry.BackoffBase = cfg.RetryBackoffBase
	retry.MaxBackoff = cfg.RetryMaxBackoff

	temperature := cfg.LLMTemperature
	return llm.NewRetryingGateway(client, llm.GenerationSettings{
		Model:       cfg.LLMModel,
		Temperature: &temperature,
		MaxTokens:   cfg.LLMMaxTokens,
	},
		llm.WithRetryConfig(retry),
		llm.WithGatewayLogger(logger),
		llm.WithMetrics(m),
	)
}

// Close releases the database connection
func (a *App) Close() error {
	return a.DB.Close()
}
