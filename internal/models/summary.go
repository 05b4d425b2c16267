package models

import "time"

// PeriodSummary aggregates a child's records over a date range.
// Growth and Behavior are nil when no records exist for the range.
type PeriodSummary struct {
	ChildID     int64            `json:"child_id"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`
	Growth      *GrowthSummary   `json:"growth,omitempty"`
	Milestones  []Milestone      `json:"milestones"`
	Behavior    *BehaviorSummary `json:"behavior,omitempty"`
}

// MetricSummary holds the first and last values of one metric and the
// percentile of the last value
type MetricSummary struct {
	Start      *float64 `json:"start,omitempty"`
	End        *float64 `json:"end,omitempty"`
	Percentile *int     `json:"percentile,omitempty"`
	Delta      *float64 `json:"delta,omitempty"`
}

// GrowthSummary compares the first and last measurements of a period
type GrowthSummary struct {
	Height               MetricSummary `json:"height"`
	Weight               MetricSummary `json:"weight"`
	HeadCircumference    MetricSummary `json:"head_circumference"`
	HasSignificantChange bool          `json:"has_significant_change"`
}

// Metric returns the summary of the given metric
func (g *GrowthSummary) Metric(m Metric) *MetricSummary {
	switch m {
	case MetricHeight:
		return &g.Height
	case MetricWeight:
		return &g.Weight
	case MetricHeadCircumference:
		return &g.HeadCircumference
	}
	return nil
}

// MaxSummaryNotes caps the notes carried in a BehaviorSummary
const MaxSummaryNotes = 5

// BehaviorSummary holds behavior statistics for a period
type BehaviorSummary struct {
	TotalEntries        int          `json:"total_entries"`
	AverageSleepQuality *float64     `json:"average_sleep_quality,omitempty"`
	DominantMood        *Mood        `json:"dominant_mood,omitempty"`
	DominantEatingHabit *EatingHabit `json:"dominant_eating_habit,omitempty"`
	Notes               []string     `json:"notes"`
}

// PeriodicSummary is a persisted narrative summary.
// At most one exists per (ChildID, PeriodStart) and it is never mutated.
type PeriodicSummary struct {
	ID            string    `json:"id"`
	ChildID       int64     `json:"child_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	NarrativeText string    `json:"narrative_text"`
	GeneratedAt   time.Time `json:"generated_at"`
}
