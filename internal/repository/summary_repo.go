package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"growthtrack/internal/database"
	"growthtrack/internal/models"
)

// SummaryRepository persists generated periodic summaries.
// The (child_id, period_start) unique key backs the idempotency guard.
type SummaryRepository struct {
	db database.DBTX
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db database.DBTX) *SummaryRepository {
	return &SummaryRepository{db: db}
}

const summaryColumns = "id, child_id, period_start, period_end, narrative_text, generated_at"

// Find returns the summary for a child and period start, or nil, nil when none exists
func (r *SummaryRepository) Find(childID int64, periodStart time.Time) (*models.PeriodicSummary, error) {
	query := "SELECT " + summaryColumns + " FROM periodic_summaries WHERE child_id = ? AND period_start = ?"
	summary, err := scanSummary(r.db.QueryRow(query, childID, formatDate(periodStart)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find summary: %w", err)
	}
	return summary, nil
}

// Insert persists a new summary. An empty ID is assigned a UUID and a zero
// GeneratedAt is set to now. A second summary for the same child and period
// start fails with database.ErrDuplicate.
func (r *SummaryRepository) Insert(s *models.PeriodicSummary) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO periodic_summaries (id, child_id, period_start, period_end, narrative_text, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		s.ID, s.ChildID, formatDate(s.PeriodStart), formatDate(s.PeriodEnd),
		s.NarrativeText, s.GeneratedAt.UTC().Format(time.RFC3339),
	)
	if r.db.GetDialect().IsUniqueViolation(err) {
		return fmt.Errorf("summary for child %d starting %s: %w", s.ChildID, formatDate(s.PeriodStart), database.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// ListForChild returns a child's summaries, most recent period first
func (r *SummaryRepository) ListForChild(childID int64) ([]models.PeriodicSummary, error) {
	query := "SELECT " + summaryColumns + " FROM periodic_summaries WHERE child_id = ? ORDER BY period_start DESC"
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.PeriodicSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, *s)
	}

	return summaries, rows.Err()
}

func scanSummary(row rowScanner) (*models.PeriodicSummary, error) {
	var (
		s                     models.PeriodicSummary
		start, end, generated string
	)
	if err := row.Scan(&s.ID, &s.ChildID, &start, &end, &s.NarrativeText, &generated); err != nil {
		return nil, err
	}

	var err error
	if s.PeriodStart, err = parseDate(start); err != nil {
		return nil, err
	}
	if s.PeriodEnd, err = parseDate(end); err != nil {
		return nil, err
	}
	if s.GeneratedAt, err = time.Parse(time.RFC3339, generated); err != nil {
		return nil, fmt.Errorf("invalid generated_at %q: %w", generated, err)
	}
	return &s, nil
}
