package repository

import (
	"database/sql"
	"fmt"
	"time"

	"growthtrack/internal/database"
	"growthtrack/internal/models"
)

// GrowthRepository handles database operations for growth measurements
type GrowthRepository struct {
	db database.DBTX
}

// NewGrowthRepository creates a new growth repository
func NewGrowthRepository(db database.DBTX) *GrowthRepository {
	return &GrowthRepository{db: db}
}

// Create records a measurement and sets its ID
func (r *GrowthRepository) Create(m *models.GrowthMeasurement) error {
	if err := m.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO growth_measurements (child_id, measured_on, height_cm, weight_kg, head_circumference_cm, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		m.ChildID, formatDate(m.Date),
		nullFloat(m.Height), nullFloat(m.Weight), nullFloat(m.HeadCircumference),
		m.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create growth measurement: %w", err)
	}

	m.ID = id
	m.Date = models.Day(m.Date)
	return nil
}

// ByRange returns a child's measurements dated within [start, end], oldest first
func (r *GrowthRepository) ByRange(childID int64, start, end time.Time) ([]models.GrowthMeasurement, error) {
	query := `
		SELECT id, child_id, measured_on, height_cm, weight_kg, head_circumference_cm, notes
		FROM growth_measurements
		WHERE child_id = ? AND measured_on >= ? AND measured_on <= ?
		ORDER BY measured_on ASC, id ASC
	`
	rows, err := r.db.Query(query, childID, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query growth measurements: %w", err)
	}
	defer rows.Close()

	var measurements []models.GrowthMeasurement
	for rows.Next() {
		var (
			m                    models.GrowthMeasurement
			date                 string
			height, weight, head sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.ChildID, &date, &height, &weight, &head, &m.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan growth measurement: %w", err)
		}
		if m.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		m.Height = floatPtr(height)
		m.Weight = floatPtr(weight)
		m.HeadCircumference = floatPtr(head)
		measurements = append(measurements, m)
	}

	return measurements, rows.Err()
}
