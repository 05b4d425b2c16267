package models

import (
	"strings"
	"time"
)

// MilestoneCategory groups developmental milestones
type MilestoneCategory string

const (
	CategoryPhysical  MilestoneCategory = "physical"
	CategoryCognitive MilestoneCategory = "cognitive"
	CategorySocial    MilestoneCategory = "social"
	CategoryLanguage  MilestoneCategory = "language"
	CategoryCustom    MilestoneCategory = "custom"
)

// Valid reports whether c is a known category
func (c MilestoneCategory) Valid() bool {
	switch c {
	case CategoryPhysical, CategoryCognitive, CategorySocial, CategoryLanguage, CategoryCustom:
		return true
	}
	return false
}

// Label returns the capitalized category name
func (c MilestoneCategory) Label() string {
	return capitalize(string(c))
}

// Milestone is a developmental achievement
type Milestone struct {
	ID              int64             `json:"id"`
	ChildID         int64             `json:"child_id"`
	Category        MilestoneCategory `json:"category"`
	Description     string            `json:"description"`
	AchievementDate time.Time         `json:"achievement_date"`
	Notes           string            `json:"notes,omitempty"`
}

// Validate checks the milestone fields
func (m Milestone) Validate() error {
	if !m.Category.Valid() {
		return ValidationError{Field: "category", Message: "unknown category " + string(m.Category)}
	}
	if strings.TrimSpace(m.Description) == "" {
		return ValidationError{Field: "description", Message: "description is required"}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
