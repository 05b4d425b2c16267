// Package analytics turns raw growth, milestone and behavior records into
// period summaries. The percentile model is an approximation built from
// linear median and standard deviation curves; it is not a clinical
// growth standard.
package analytics

import (
	"fmt"
	"math"

	"growthtrack/internal/models"
)

// Abramowitz–Stegun 7.1.26 coefficients.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

const (
	MinPercentile = 1
	MaxPercentile = 99
)

// linear is value = base + slope*ageMonths
type linear struct {
	base, slope float64
}

func (l linear) at(ageMonths float64) float64 {
	return l.base + l.slope*ageMonths
}

type referenceModel struct {
	median map[models.Gender]linear
	sd     linear
}

var referenceModels = map[models.Metric]referenceModel{
	models.MetricHeight: {
		median: map[models.Gender]linear{
			models.GenderMale:   {50.0, 1.8},
			models.GenderFemale: {49.0, 1.7},
			models.GenderOther:  {49.5, 1.75},
		},
		sd: linear{3.5, 0.05},
	},
	models.MetricWeight: {
		median: map[models.Gender]linear{
			models.GenderMale:   {3.5, 0.35},
			models.GenderFemale: {3.3, 0.32},
			models.GenderOther:  {3.4, 0.335},
		},
		sd: linear{0.5, 0.02},
	},
	models.MetricHeadCircumference: {
		median: map[models.Gender]linear{
			models.GenderMale:   {34.5, 0.4},
			models.GenderFemale: {34.0, 0.38},
			models.GenderOther:  {34.25, 0.39},
		},
		sd: linear{1.5, 0},
	},
}

func lookup(gender models.Gender, ageMonths float64, metric models.Metric) (linear, linear, error) {
	if ageMonths < 0 || math.IsNaN(ageMonths) {
		return linear{}, linear{}, models.ValidationError{
			Field:   "age_months",
			Message: fmt.Sprintf("must be >= 0, got %g", ageMonths),
		}
	}
	ref, ok := referenceModels[metric]
	if !ok {
		return linear{}, linear{}, models.ValidationError{Field: "metric", Message: "unknown metric " + string(metric)}
	}
	median, ok := ref.median[gender]
	if !ok {
		return linear{}, linear{}, models.ValidationError{Field: "gender", Message: "unknown gender " + string(gender)}
	}
	return median, ref.sd, nil
}

// Median returns the modeled median of metric for a child of the given gender and age
func Median(gender models.Gender, ageMonths float64, metric models.Metric) (float64, error) {
	median, _, err := lookup(gender, ageMonths, metric)
	if err != nil {
		return 0, err
	}
	return median.at(ageMonths), nil
}

// StandardDeviation returns the modeled standard deviation of metric at the given age
func StandardDeviation(gender models.Gender, ageMonths float64, metric models.Metric) (float64, error) {
	_, sd, err := lookup(gender, ageMonths, metric)
	if err != nil {
		return 0, err
	}
	return sd.at(ageMonths), nil
}

// Estimate returns the percentile of value against the reference model,
// clamped to [MinPercentile, MaxPercentile].
func Estimate(gender models.Gender, ageMonths float64, metric models.Metric, value float64) (int, error) {
	median, sd, err := lookup(gender, ageMonths, metric)
	if err != nil {
		return 0, err
	}

	z := (value - median.at(ageMonths)) / sd.at(ageMonths)
	cdf := 0.5 * (1 + Erf(z/math.Sqrt2))
	p := int(math.Round(100 * cdf))

	if p < MinPercentile {
		return MinPercentile, nil
	}
	if p > MaxPercentile {
		return MaxPercentile, nil
	}
	return p, nil
}

// Erf approximates the error function with the Abramowitz–Stegun rational
// formula (max error 1.5e-7). Percentile test vectors depend on this exact
// approximation; math.Erf gives different low-order bits.
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x)

	t := 1.0 / (1.0 + erfP*x)
	poly := ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t + erfA1) * t
	y := 1.0 - poly*math.Exp(-x*x)

	return sign * y
}
