package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.GenerationAttempt("success", 2*time.Second)
	c.GenerationAttempt("rate_limited", time.Second)
	c.GenerationAttempt("rate_limited", time.Second)
	c.SummaryOutcome("already_exists")
	c.BatchChild("failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.generationAttempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.generationAttempts.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.summaryOutcomes.WithLabelValues("already_exists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batchRuns.WithLabelValues("failed")))
}

func TestNilCollectors(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.GenerationAttempt("success", time.Second)
		c.SummaryOutcome("success")
		c.BatchChild("succeeded")
	})
}
