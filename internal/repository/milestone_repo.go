package repository

import (
	"fmt"
	"time"

	"growthtrack/internal/database"
	"growthtrack/internal/models"
)

// MilestoneRepository handles database operations for milestones
type MilestoneRepository struct {
	db database.DBTX
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(db database.DBTX) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// Create records a milestone and sets its ID
func (r *MilestoneRepository) Create(m *models.Milestone) error {
	if err := m.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO milestones (child_id, category, description, achieved_on, notes)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, m.ChildID, string(m.Category), m.Description, formatDate(m.AchievementDate), m.Notes)
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}

	m.ID = id
	m.AchievementDate = models.Day(m.AchievementDate)
	return nil
}

// ByRange returns milestones achieved within [start, end], oldest first
func (r *MilestoneRepository) ByRange(childID int64, start, end time.Time) ([]models.Milestone, error) {
	query := `
		SELECT id, child_id, category, description, achieved_on, notes
		FROM milestones
		WHERE child_id = ? AND achieved_on >= ? AND achieved_on <= ?
		ORDER BY achieved_on ASC, id ASC
	`
	rows, err := r.db.Query(query, childID, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		var (
			m        models.Milestone
			category string
			achieved string
		)
		if err := rows.Scan(&m.ID, &m.ChildID, &category, &m.Description, &achieved, &m.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		if m.AchievementDate, err = parseDate(achieved); err != nil {
			return nil, err
		}
		m.Category = models.MilestoneCategory(category)
		milestones = append(milestones, m)
	}

	return milestones, rows.Err()
}
