package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"growthtrack/internal/models"
)

// Build aggregates the records of one child over [periodStart, periodEnd].
// Growth and behavior records are expected to already be limited to the
// period; milestones are filtered here with both bounds inclusive. Empty
// collections produce nil sub-summaries, never an error.
func Build(
	child models.Child,
	periodStart, periodEnd time.Time,
	growth []models.GrowthMeasurement,
	milestones []models.Milestone,
	behavior []models.BehaviorEntry,
) (*models.PeriodSummary, error) {
	periodStart, periodEnd = models.Day(periodStart), models.Day(periodEnd)
	if periodEnd.Before(periodStart) {
		return nil, models.ValidationError{
			Field: "period",
			Message: fmt.Sprintf("end %s is before start %s",
				periodEnd.Format(models.DateLayout), periodStart.Format(models.DateLayout)),
		}
	}

	growthSummary, err := summarizeGrowth(child, periodEnd, growth)
	if err != nil {
		return nil, err
	}

	inRange := make([]models.Milestone, 0, len(milestones))
	for _, m := range milestones {
		if models.InRange(m.AchievementDate, periodStart, periodEnd) {
			inRange = append(inRange, m)
		}
	}

	return &models.PeriodSummary{
		ChildID:     child.ID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Growth:      growthSummary,
		Milestones:  inRange,
		Behavior:    summarizeBehavior(behavior),
	}, nil
}

func summarizeGrowth(child models.Child, asOf time.Time, records []models.GrowthMeasurement) (*models.GrowthSummary, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if models.Day(asOf).Before(models.Day(child.DateOfBirth)) {
		return nil, models.ValidationError{
			Field:   "period",
			Message: fmt.Sprintf("period ends before child %d was born", child.ID),
		}
	}
	ageMonths := AgeInMonths(child.DateOfBirth, asOf)

	sorted := make([]models.GrowthMeasurement, len(records))
	copy(sorted, records)
	// Equal dates keep input order.
	sort.SliceStable(sorted, func(i, j int) bool {
		return models.Day(sorted[i].Date).Before(models.Day(sorted[j].Date))
	})
	first, last := sorted[0], sorted[len(sorted)-1]

	summary := &models.GrowthSummary{}
	for _, metric := range models.Metrics {
		ms := summary.Metric(metric)
		ms.Start = first.Value(metric)
		ms.End = last.Value(metric)

		// A single record has no change to report.
		if len(sorted) > 1 && ms.Start != nil && ms.End != nil {
			d := *ms.End - *ms.Start
			ms.Delta = &d
		}
		if ms.End != nil {
			p, err := Estimate(child.Gender, float64(ageMonths), metric, *ms.End)
			if err != nil {
				return nil, fmt.Errorf("estimate %s percentile: %w", metric, err)
			}
			ms.Percentile = &p
		}
	}
	summary.HasSignificantChange = HasSignificantChange(
		summary.Height.Delta, summary.Weight.Delta, summary.HeadCircumference.Delta)

	return summary, nil
}

func summarizeBehavior(entries []models.BehaviorEntry) *models.BehaviorSummary {
	if len(entries) == 0 {
		return nil
	}

	summary := &models.BehaviorSummary{
		TotalEntries: len(entries),
		Notes:        []string{},
	}

	var sleepTotal, sleepCount int
	moods := newModeCounter[models.Mood]()
	eating := newModeCounter[models.EatingHabit]()

	for _, e := range entries {
		if e.SleepQuality != nil {
			sleepTotal += *e.SleepQuality
			sleepCount++
		}
		if e.Mood != nil {
			moods.add(*e.Mood)
		}
		if e.EatingHabits != nil {
			eating.add(*e.EatingHabits)
		}
		if note := strings.TrimSpace(e.Notes); note != "" && len(summary.Notes) < models.MaxSummaryNotes {
			summary.Notes = append(summary.Notes, note)
		}
	}

	if sleepCount > 0 {
		avg := float64(sleepTotal) / float64(sleepCount)
		summary.AverageSleepQuality = &avg
	}
	summary.DominantMood = moods.mode()
	summary.DominantEatingHabit = eating.mode()

	return summary
}

// modeCounter finds the most frequent value. Ties go to the value that was
// seen first.
type modeCounter[T comparable] struct {
	counts map[T]int
	order  []T
}

func newModeCounter[T comparable]() *modeCounter[T] {
	return &modeCounter[T]{counts: make(map[T]int)}
}

func (c *modeCounter[T]) add(v T) {
	if _, seen := c.counts[v]; !seen {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *modeCounter[T]) mode() *T {
	if len(c.order) == 0 {
		return nil
	}
	best := c.order[0]
	for _, v := range c.order[1:] {
		if c.counts[v] > c.counts[best] {
			best = v
		}
	}
	return &best
}
