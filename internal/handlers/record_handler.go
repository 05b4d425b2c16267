package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"growthtrack/internal/models"
)

// ChildRecords stores and looks up child profiles
type ChildRecords interface {
	CreateChild(name string, dateOfBirth time.Time, gender models.Gender) (*models.Child, error)
	GetChild(childID int64) (*models.Child, error)
	ListChildren() ([]models.Child, error)
}

// GrowthRecords stores growth measurements
type GrowthRecords interface {
	Create(m *models.GrowthMeasurement) error
}

// MilestoneRecords stores milestones
type MilestoneRecords interface {
	Create(m *models.Milestone) error
}

// BehaviorRecords stores behavior entries
type BehaviorRecords interface {
	Create(b *models.BehaviorEntry) error
}

// RecordHandler serves child profiles and the records summaries are built from
type RecordHandler struct {
	children   ChildRecords
	growth     GrowthRecords
	milestones MilestoneRecords
	behavior   BehaviorRecords
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(children ChildRecords, growth GrowthRecords, milestones MilestoneRecords, behavior BehaviorRecords) *RecordHandler {
	return &RecordHandler{
		children:   children,
		growth:     growth,
		milestones: milestones,
		behavior:   behavior,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}

// childFromPath resolves the {id} path value to an existing child, writing
// the error response when it cannot
func (h *RecordHandler) childFromPath(w http.ResponseWriter, r *http.Request) (*models.Child, bool) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidChildID, "", nil)
		return nil, false
	}
	child, err := h.children.GetChild(childID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load child", err)
		return nil, false
	}
	if child == nil {
		respondWithError(w, http.StatusNotFound, "Child not found", "", nil)
		return nil, false
	}
	return child, true
}

type childRequest struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

// CreateChild handles POST /api/children
func (h *RecordHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dob, err := models.ParseDate(req.DateOfBirth)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	gender, err := models.ParseGender(req.Gender)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	child, err := h.children.CreateChild(req.Name, dob, gender)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, child)
}

// ListChildren handles GET /api/children
func (h *RecordHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.children.ListChildren()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to list children", err)
		return
	}
	if children == nil {
		children = []models.Child{}
	}
	respondJSON(w, http.StatusOK, children)
}

// GetChild handles GET /api/children/{id}
func (h *RecordHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	child, ok := h.childFromPath(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, child)
}

type growthRequest struct {
	Date                string   `json:"date"`
	HeightCm            *float64 `json:"height_cm"`
	WeightKg            *float64 `json:"weight_kg"`
	HeadCircumferenceCm *float64 `json:"head_circumference_cm"`
	Notes               string   `json:"notes"`
}

// AddGrowth handles POST /api/children/{id}/growth
func (h *RecordHandler) AddGrowth(w http.ResponseWriter, r *http.Request) {
	child, ok := h.childFromPath(w, r)
	if !ok {
		return
	}
	var req growthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	m := &models.GrowthMeasurement{
		ChildID:           child.ID,
		Date:              date,
		Height:            req.HeightCm,
		Weight:            req.WeightKg,
		HeadCircumference: req.HeadCircumferenceCm,
		Notes:             req.Notes,
	}
	if err := h.growth.Create(m); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

type milestoneRequest struct {
	Category        string `json:"category"`
	Description     string `json:"description"`
	AchievementDate string `json:"achievement_date"`
	Notes           string `json:"notes"`
}

// AddMilestone handles POST /api/children/{id}/milestones
func (h *RecordHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	child, ok := h.childFromPath(w, r)
	if !ok {
		return
	}
	var req milestoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := models.ParseDate(req.AchievementDate)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	m := &models.Milestone{
		ChildID:         child.ID,
		Category:        models.MilestoneCategory(req.Category),
		Description:     req.Description,
		AchievementDate: date,
		Notes:           req.Notes,
	}
	if err := h.milestones.Create(m); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

type behaviorRequest struct {
	Date         string  `json:"date"`
	Mood         *string `json:"mood"`
	SleepQuality *int    `json:"sleep_quality"`
	EatingHabits *string `json:"eating_habits"`
	Notes        string  `json:"notes"`
}

// AddBehavior handles POST /api/children/{id}/behavior
func (h *RecordHandler) AddBehavior(w http.ResponseWriter, r *http.Request) {
	child, ok := h.childFromPath(w, r)
	if !ok {
		return
	}
	var req behaviorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	b := &models.BehaviorEntry{
		ChildID:      child.ID,
		Date:         date,
		SleepQuality: req.SleepQuality,
		Notes:        req.Notes,
	}
	if req.Mood != nil {
		mood := models.Mood(*req.Mood)
		b.Mood = &mood
	}
	if req.EatingHabits != nil {
		eating := models.EatingHabit(*req.EatingHabits)
		b.EatingHabits = &eating
	}
	if err := h.behavior.Create(b); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}
