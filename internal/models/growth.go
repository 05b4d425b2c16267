package models

import (
	"fmt"
	"time"
)

// Metric identifies an anthropometric measurement
type Metric string

const (
	MetricHeight            Metric = "height"
	MetricWeight            Metric = "weight"
	MetricHeadCircumference Metric = "head_circumference"
)

// Metrics lists every metric in display order
var Metrics = []Metric{MetricHeight, MetricWeight, MetricHeadCircumference}

// Label returns the human readable metric name
func (m Metric) Label() string {
	switch m {
	case MetricHeight:
		return "Height"
	case MetricWeight:
		return "Weight"
	case MetricHeadCircumference:
		return "Head circumference"
	}
	return string(m)
}

// Unit returns the unit suffix the metric is recorded in
func (m Metric) Unit() string {
	if m == MetricWeight {
		return "kg"
	}
	return "cm"
}

// GrowthMeasurement is one anthropometric record for a child.
// Absent metrics are nil.
type GrowthMeasurement struct {
	ID                int64     `json:"id"`
	ChildID           int64     `json:"child_id"`
	Date              time.Time `json:"date"`
	Height            *float64  `json:"height_cm,omitempty"`
	Weight            *float64  `json:"weight_kg,omitempty"`
	HeadCircumference *float64  `json:"head_circumference_cm,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// Value returns the recorded value for metric, or nil when absent
func (g GrowthMeasurement) Value(metric Metric) *float64 {
	switch metric {
	case MetricHeight:
		return g.Height
	case MetricWeight:
		return g.Weight
	case MetricHeadCircumference:
		return g.HeadCircumference
	}
	return nil
}

// Validate checks that at least one metric is present and all present values are positive
func (g GrowthMeasurement) Validate() error {
	present := 0
	for _, m := range Metrics {
		v := g.Value(m)
		if v == nil {
			continue
		}
		present++
		if *v <= 0 {
			return ValidationError{Field: string(m), Message: fmt.Sprintf("must be greater than 0, got %g", *v)}
		}
	}
	if present == 0 {
		return ValidationError{Field: "measurement", Message: "at least one metric is required"}
	}
	return nil
}
