package llm

import (
	"context"
	"log/slog"
	"time"

	"growthtrack/internal/metrics"
)

// GenerationSettings are the model parameters sent with every call.
type GenerationSettings struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// RetryingGateway applies bounded retry around single Service calls.
// Only retryable error kinds are retried.
type RetryingGateway struct {
	service  Service
	settings GenerationSettings
	retry    RetryConfig
	logger   *slog.Logger
	metrics  *metrics.Collectors

	// wait blocks for d or until ctx is done.
	wait func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures a RetryingGateway.
type GatewayOption func(*RetryingGateway)

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) GatewayOption {
	return func(g *RetryingGateway) {
		g.retry = cfg
	}
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *RetryingGateway) {
		g.logger = logger
	}
}

// WithMetrics records every attempt on m.
func WithMetrics(m *metrics.Collectors) GatewayOption {
	return func(g *RetryingGateway) {
		g.metrics = m
	}
}

// NewRetryingGateway wraps service.
func NewRetryingGateway(service Service, settings GenerationSettings, opts ...GatewayOption) *RetryingGateway {
	g := &RetryingGateway{
		service:  service,
		settings: settings,
		retry:    DefaultRetryConfig(),
		logger:   slog.Default(),
		wait:     sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.retry.MaxAttempts < 1 {
		g.retry.MaxAttempts = 1
	}
	return g
}

// Generate returns the generated text for prompt. After the last attempt
// the final classified error is returned.
func (g *RetryingGateway) Generate(ctx context.Context, prompt string) (string, error) {
	req := Request{
		Prompt:      prompt,
		Model:       g.settings.Model,
		Temperature: g.settings.Temperature,
		MaxTokens:   g.settings.MaxTokens,
	}

	var lastErr error
	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		started := time.Now()
		text, err := g.service.Complete(ctx, req)
		if err == nil {
			g.metrics.GenerationAttempt("success", time.Since(started))
			return text, nil
		}
		g.metrics.GenerationAttempt(KindOf(err).String(), time.Since(started))

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !IsRetryable(err) {
			return "", err
		}

		if attempt < g.retry.MaxAttempts {
			backoff := g.retry.Backoff(attempt)
			g.logger.Debug("Generation failed, retrying",
				"attempt", attempt,
				"max_attempts", g.retry.MaxAttempts,
				"backoff", backoff,
				"error", err)

			if err := g.wait(ctx, backoff); err != nil {
				return "", err
			}
		}
	}

	g.logger.Warn("Generation failed after retries",
		"attempts", g.retry.MaxAttempts,
		"kind", KindOf(lastErr).String(),
		"error", lastErr)
	return "", lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
