package repository

import (
	"database/sql"
	"fmt"
	"time"

	"growthtrack/internal/database"
	"growthtrack/internal/models"
)

// BehaviorRepository handles database operations for behavior logs
type BehaviorRepository struct {
	db database.DBTX
}

// NewBehaviorRepository creates a new behavior repository
func NewBehaviorRepository(db database.DBTX) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// Create records a behavior entry and sets its ID
func (r *BehaviorRepository) Create(b *models.BehaviorEntry) error {
	if err := b.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO behavior_entries (child_id, logged_on, mood, sleep_quality, eating_habits, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		b.ChildID, formatDate(b.Date),
		nullString(b.Mood), nullInt(b.SleepQuality), nullString(b.EatingHabits),
		b.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create behavior entry: %w", err)
	}

	b.ID = id
	b.Date = models.Day(b.Date)
	return nil
}

// ByRange returns behavior entries logged within [start, end], oldest first
func (r *BehaviorRepository) ByRange(childID int64, start, end time.Time) ([]models.BehaviorEntry, error) {
	query := `
		SELECT id, child_id, logged_on, mood, sleep_quality, eating_habits, notes
		FROM behavior_entries
		WHERE child_id = ? AND logged_on >= ? AND logged_on <= ?
		ORDER BY logged_on ASC, id ASC
	`
	rows, err := r.db.Query(query, childID, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query behavior entries: %w", err)
	}
	defer rows.Close()

	var entries []models.BehaviorEntry
	for rows.Next() {
		var (
			b            models.BehaviorEntry
			date         string
			mood, eating sql.NullString
			sleep        sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.ChildID, &date, &mood, &sleep, &eating, &b.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan behavior entry: %w", err)
		}
		if b.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		b.Mood = stringPtr[models.Mood](mood)
		b.SleepQuality = intPtr(sleep)
		b.EatingHabits = stringPtr[models.EatingHabit](eating)
		entries = append(entries, b)
	}

	return entries, rows.Err()
}
