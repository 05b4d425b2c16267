package llm

import (
	"math/rand/v2"
	"time"
)

// RetryConfig controls how RetryingGateway spaces out repeated calls to the
// text generation service after a transient failure.
type RetryConfig struct {
	MaxAttempts       int           // total calls per Generate; 1 disables retrying
	BackoffBase       time.Duration // wait after the first failed call
	BackoffMultiplier float64       // growth factor between consecutive waits
	MaxBackoff        time.Duration // upper bound on any single wait
	Jitter            float64       // random spread around each wait, as a fraction; 0 for none
}

// DefaultRetryConfig allows three calls, waiting about 2s and then 4s between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2,
		MaxBackoff:        30 * time.Second,
		Jitter:            0.25,
	}
}

// Backoff computes the wait after the given failed attempt (1-based)
func (c RetryConfig) Backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(c.BackoffBase) * multiplier)
	if c.MaxBackoff > 0 && backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	if c.Jitter > 0 {
		jitter := float64(backoff) * c.Jitter * (rand.Float64()*2 - 1)
		backoff += time.Duration(jitter)
	}
	return backoff
}
