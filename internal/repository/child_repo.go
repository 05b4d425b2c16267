package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"growthtrack/internal/database"
	"growthtrack/internal/models"
)

// ChildRepository handles database operations for children
type ChildRepository struct {
	db database.DBTX
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.DBTX) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild creates a new child profile
func (r *ChildRepository) CreateChild(name string, dateOfBirth time.Time, gender models.Gender) (*models.Child, error) {
	child := models.Child{Name: name, DateOfBirth: models.Day(dateOfBirth), Gender: gender}
	if err := child.Validate(); err != nil {
		return nil, err
	}

	query := "INSERT INTO children (name, date_of_birth, gender) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, child.Name, formatDate(child.DateOfBirth), string(child.Gender))
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	child.ID = id
	child.CreatedAt = time.Now()
	return &child, nil
}

// GetChild retrieves a child by ID. It returns nil, nil when no child exists.
func (r *ChildRepository) GetChild(childID int64) (*models.Child, error) {
	query := "SELECT id, name, date_of_birth, gender, created_at FROM children WHERE id = ?"
	child, err := scanChild(r.db.QueryRow(query, childID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// ListChildren retrieves all children in creation order
func (r *ChildRepository) ListChildren() ([]models.Child, error) {
	query := `
		SELECT id, name, date_of_birth, gender, created_at
		FROM children
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}

	return children, rows.Err()
}

// DeleteChild deletes a child profile and, by cascade, its records
func (r *ChildRepository) DeleteChild(childID int64) error {
	query := "DELETE FROM children WHERE id = ?"
	_, err := r.db.Exec(query, childID)
	if err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChild(row rowScanner) (*models.Child, error) {
	var (
		child     models.Child
		dob       string
		gender    string
		createdAt sql.NullTime
	)
	if err := row.Scan(&child.ID, &child.Name, &dob, &gender, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if child.DateOfBirth, err = parseDate(dob); err != nil {
		return nil, err
	}
	child.Gender = models.Gender(gender)
	if createdAt.Valid {
		child.CreatedAt = createdAt.Time
	}
	return &child, nil
}
