package analytics

import (
	"math"

	"growthtrack/internal/models"
)

// Per-period absolute change thresholds
const (
	HeightChangeThreshold            = 2.0 // cm
	WeightChangeThreshold            = 0.5 // kg
	HeadCircumferenceChangeThreshold = 1.0 // cm
)

// ChangeThreshold returns the significance threshold for metric
func ChangeThreshold(metric models.Metric) float64 {
	switch metric {
	case models.MetricHeight:
		return HeightChangeThreshold
	case models.MetricWeight:
		return WeightChangeThreshold
	case models.MetricHeadCircumference:
		return HeadCircumferenceChangeThreshold
	}
	return math.Inf(1)
}

// IsSignificant reports whether |delta| exceeds the metric's threshold
func IsSignificant(metric models.Metric, delta float64) bool {
	return math.Abs(delta) > ChangeThreshold(metric)
}

// HasSignificantChange reports whether any present delta is significant.
// Nil deltas never trigger.
func HasSignificantChange(heightDelta, weightDelta, headDelta *float64) bool {
	if heightDelta != nil && IsSignificant(models.MetricHeight, *heightDelta) {
		return true
	}
	if weightDelta != nil && IsSignificant(models.MetricWeight, *weightDelta) {
		return true
	}
	return headDelta != nil && IsSignificant(models.MetricHeadCircumference, *headDelta)
}
