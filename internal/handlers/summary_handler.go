package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"growthtrack/internal/models"
	"growthtrack/internal/service"
)

// SummaryAPI is the summary service surface used by the HTTP API
type SummaryAPI interface {
	GenerateSummary(ctx context.Context, childID int64, periodStart *time.Time) service.Outcome
	GenerateAll(ctx context.Context, periodStart *time.Time) (service.BatchResult, error)
	PeriodSummary(childID int64, start, end time.Time) (*models.PeriodSummary, error)
	Summary(childID int64, periodStart time.Time) (*models.PeriodicSummary, error)
	Summaries(childID int64) ([]models.PeriodicSummary, error)
}

// SummaryHandler serves summary generation and lookup
type SummaryHandler struct {
	summaries SummaryAPI
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summaries SummaryAPI) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

type generateRequest struct {
	PeriodStart string `json:"period_start"`
}

type outcomeResponse struct {
	Outcome string                  `json:"outcome"`
	Summary *models.PeriodicSummary `json:"summary,omitempty"`
	Period  *models.PeriodSummary   `json:"period,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Kind    string                  `json:"kind,omitempty"`
}

// periodStart reads an optional period start from the "start" query
// parameter or a JSON body {"period_start": "YYYY-MM-DD"}
func periodStart(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("start")
	if raw == "" && r.Body != nil {
		var req generateRequest
		err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, models.ValidationError{Field: "body", Message: ErrInvalidJSON}
		}
		raw = req.PeriodStart
	}
	if raw == "" {
		return nil, nil
	}
	start, err := models.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &start, nil
}

// Generate handles POST /api/children/{id}/summaries
func (h *SummaryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidChildID, "", nil)
		return
	}
	start, err := periodStart(r)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	outcome := h.summaries.GenerateSummary(r.Context(), childID, start)
	resp := outcomeResponse{Outcome: outcome.Kind.String(), Summary: outcome.Summary, Period: outcome.Period}

	switch outcome.Kind {
	case service.OutcomeSuccess:
		respondJSON(w, http.StatusCreated, resp)
	case service.OutcomeAlreadyExists:
		respondJSON(w, http.StatusOK, resp)
	default:
		status := statusForKind(outcome.ErrKind)
		resp.Kind = string(outcome.ErrKind)
		resp.Error = outcome.Message
		if status == http.StatusInternalServerError {
			resp.Error = ErrInternalServerError
		}
		respondJSON(w, status, resp)
	}
}

// List handles GET /api/children/{id}/summaries. With ?start it returns the
// summary of that period, otherwise all summaries of the child.
func (h *SummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidChildID, "", nil)
		return
	}

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err := models.ParseDate(raw)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		summary, err := h.summaries.Summary(childID, start)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
		return
	}

	summaries, err := h.summaries.Summaries(childID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []models.PeriodicSummary{}
	}
	respondJSON(w, http.StatusOK, summaries)
}

// Period handles GET /api/children/{id}/period?start=&end=
func (h *SummaryHandler) Period(w http.ResponseWriter, r *http.Request) {
	childID, err := parseChildID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidChildID, "", nil)
		return
	}

	start, err := models.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	end := start.AddDate(0, 0, service.PeriodDays-1)
	if raw := r.URL.Query().Get("end"); raw != "" {
		if end, err = models.ParseDate(raw); err != nil {
			respondWithServiceError(w, err)
			return
		}
	}

	period, err := h.summaries.PeriodSummary(childID, start, end)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, period)
}

// RunBatch handles POST /api/summaries/run
func (h *SummaryHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	start, err := periodStart(r)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	result, err := h.summaries.GenerateAll(r.Context(), start)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
