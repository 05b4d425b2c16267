// Package metrics defines the prometheus collectors exported by growthtrack.
// A nil *Collectors is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "growthtrack"

// Collectors groups the application's metrics
type Collectors struct {
	generationAttempts *prometheus.CounterVec
	generationDuration prometheus.Histogram
	summaryOutcomes    *prometheus.CounterVec
	batchRuns          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		generationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Calls to the text generation service by result.",
		}, []string{"result"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of single text generation calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		summaryOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_outcomes_total",
			Help:      "Summary generation requests by outcome.",
		}, []string{"outcome"}),
		batchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_children_total",
			Help:      "Children processed by batch runs by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(c.generationAttempts, c.generationDuration, c.summaryOutcomes, c.batchRuns)
	return c
}

// GenerationAttempt records one call to the generation service
func (c *Collectors) GenerationAttempt(result string, took time.Duration) {
	if c == nil {
		return
	}
	c.generationAttempts.WithLabelValues(result).Inc()
	c.generationDuration.Observe(took.Seconds())
}

// SummaryOutcome records the outcome of one generate-or-skip request
func (c *Collectors) SummaryOutcome(outcome string) {
	if c == nil {
		return
	}
	c.summaryOutcomes.WithLabelValues(outcome).Inc()
}

// BatchChild records the result for one child of a batch run
func (c *Collectors) BatchChild(outcome string) {
	if c == nil {
		return
	}
	c.batchRuns.WithLabelValues(outcome).Inc()
}
