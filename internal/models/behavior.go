package models

import (
	"fmt"
	"time"
)

// Mood is the overall mood noted for a day
type Mood string

const (
	MoodHappy     Mood = "happy"
	MoodCalm      Mood = "calm"
	MoodFussy     Mood = "fussy"
	MoodCranky    Mood = "cranky"
	MoodEnergetic Mood = "energetic"
)

// Valid reports whether m is a known mood
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodCalm, MoodFussy, MoodCranky, MoodEnergetic:
		return true
	}
	return false
}

// Label returns the capitalized mood name
func (m Mood) Label() string {
	return capitalize(string(m))
}

// EatingHabit rates how well a child ate
type EatingHabit string

const (
	EatingExcellent EatingHabit = "excellent"
	EatingGood      EatingHabit = "good"
	EatingFair      EatingHabit = "fair"
	EatingPoor      EatingHabit = "poor"
)

// Valid reports whether e is a known eating habit
func (e EatingHabit) Valid() bool {
	switch e {
	case EatingExcellent, EatingGood, EatingFair, EatingPoor:
		return true
	}
	return false
}

// Label returns the capitalized eating habit name
func (e EatingHabit) Label() string {
	return capitalize(string(e))
}

const (
	MinSleepQuality = 1
	MaxSleepQuality = 5
)

// BehaviorEntry is a daily behavior log
type BehaviorEntry struct {
	ID           int64        `json:"id"`
	ChildID      int64        `json:"child_id"`
	Date         time.Time    `json:"date"`
	Mood         *Mood        `json:"mood,omitempty"`
	SleepQuality *int         `json:"sleep_quality,omitempty"`
	EatingHabits *EatingHabit `json:"eating_habits,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// Validate checks enum values and the sleep quality range
func (b BehaviorEntry) Validate() error {
	if b.SleepQuality != nil && (*b.SleepQuality < MinSleepQuality || *b.SleepQuality > MaxSleepQuality) {
		return ValidationError{
			Field:   "sleep_quality",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinSleepQuality, MaxSleepQuality, *b.SleepQuality),
		}
	}
	if b.Mood != nil && !b.Mood.Valid() {
		return ValidationError{Field: "mood", Message: "unknown mood " + string(*b.Mood)}
	}
	if b.EatingHabits != nil && !b.EatingHabits.Valid() {
		return ValidationError{Field: "eating_habits", Message: "unknown eating habit " + string(*b.EatingHabits)}
	}
	return nil
}
