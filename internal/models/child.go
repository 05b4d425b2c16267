package models

import (
	"strings"
	"time"
)

// Gender selects which reference growth model applies to a child
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the known genders
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ParseGender converts a stored or submitted value into a Gender
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", ValidationError{Field: "gender", Message: "unknown gender " + s}
	}
	return g, nil
}

// Child represents a child profile in the system.
// The ID is stable for the lifetime of the profile.
type Child struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      Gender    `json:"gender"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the profile fields
func (c Child) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if c.DateOfBirth.IsZero() {
		return ValidationError{Field: "date_of_birth", Message: "date of birth is required"}
	}
	if !c.Gender.Valid() {
		return ValidationError{Field: "gender", Message: "unknown gender " + string(c.Gender)}
	}
	return nil
}
