package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthtrack/internal/models"
	"growthtrack/internal/security"
	"growthtrack/internal/service"
)

type stubSummaries struct {
	outcome    service.Outcome
	batch      service.BatchResult
	period     *models.PeriodSummary
	err        error
	gotChild   int64
	gotStart   *time.Time
	gotEnd     time.Time
	generateN  int
	summaryHit *models.PeriodicSummary
}

func (s *stubSummaries) GenerateSummary(_ context.Context, childID int64, start *time.Time) service.Outcome {
	s.generateN++
	s.gotChild, s.gotStart = childID, start
	return s.outcome
}

func (s *stubSummaries) GenerateAll(_ context.Context, start *time.Time) (service.BatchResult, error) {
	s.gotStart = start
	return s.batch, s.err
}

func (s *stubSummaries) PeriodSummary(childID int64, start, end time.Time) (*models.PeriodSummary, error) {
	s.gotChild, s.gotStart, s.gotEnd = childID, &start, end
	return s.period, s.err
}

func (s *stubSummaries) Summary(childID int64, start time.Time) (*models.PeriodicSummary, error) {
	s.gotChild, s.gotStart = childID, &start
	if s.summaryHit == nil {
		return nil, &service.Error{Kind: service.ErrorNotFound, Message: "no summary for this period"}
	}
	return s.summaryHit, nil
}

func (s *stubSummaries) Summaries(childID int64) ([]models.PeriodicSummary, error) {
	s.gotChild = childID
	return nil, s.err
}

type memRecords struct {
	children []models.Child
	growth   []models.GrowthMeasurement
	miles    []models.Milestone
	behavior []models.BehaviorEntry
}

func (m *memRecords) CreateChild(name string, dob time.Time, gender models.Gender) (*models.Child, error) {
	c := models.Child{ID: int64(len(m.children) + 1), Name: name, DateOfBirth: dob, Gender: gender}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m.children = append(m.children, c)
	return &c, nil
}

func (m *memRecords) GetChild(id int64) (*models.Child, error) {
	for i := range m.children {
		if m.children[i].ID == id {
			return &m.children[i], nil
		}
	}
	return nil, nil
}

func (m *memRecords) ListChildren() ([]models.Child, error) { return m.children, nil }

type growthWriter struct{ m *memRecords }

func (g growthWriter) Create(r *models.GrowthMeasurement) error {
	if err := r.Validate(); err != nil {
		return err
	}
	g.m.growth = append(g.m.growth, *r)
	return nil
}

type milestoneWriter struct{ m *memRecords }

func (w milestoneWriter) Create(r *models.Milestone) error {
	if err := r.Validate(); err != nil {
		return err
	}
	w.m.miles = append(w.m.miles, *r)
	return nil
}

type behaviorWriter struct{ m *memRecords }

func (w behaviorWriter) Create(r *models.BehaviorEntry) error {
	if err := r.Validate(); err != nil {
		return err
	}
	w.m.behavior = append(w.m.behavior, *r)
	return nil
}

func newTestRouter(t *testing.T, stub *stubSummaries, secret string, limiter *security.RateLimiter) (http.Handler, *memRecords) {
	t.Helper()
	records := &memRecords{}
	_, err := records.CreateChild("Emma", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), models.GenderFemale)
	require.NoError(t, err)

	router := NewRouter(
		NewSummaryHandler(stub),
		NewRecordHandler(records, growthWriter{records}, milestoneWriter{records}, behaviorWriter{records}),
		NewMiddleware(secret, limiter, nil),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("metrics")) }),
	)
	return router, records
}

func do(h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, &stubSummaries{}, "secret", nil)

	rec := do(router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(router, "GET", "/metrics", "")
	assert.Equal(t, "metrics", rec.Body.String())
}

func TestGenerateOutcomes(t *testing.T) {
	summary := &models.PeriodicSummary{ID: "abc", ChildID: 1, NarrativeText: "Nice week"}
	tests := []struct {
		name       string
		outcome    service.Outcome
		wantStatus int
		wantBody   string
	}{
		{"success", service.Outcome{Kind: service.OutcomeSuccess, Summary: summary}, http.StatusCreated, `"outcome":"success"`},
		{"already exists", service.Outcome{Kind: service.OutcomeAlreadyExists, Summary: summary}, http.StatusOK, `"outcome":"already_exists"`},
		{"rate limited upstream", service.Outcome{Kind: service.OutcomeError, ErrKind: service.ErrorRateLimited, Message: "slow"}, http.StatusTooManyRequests, `"kind":"rate_limited"`},
		{"not found", service.Outcome{Kind: service.OutcomeError, ErrKind: service.ErrorNotFound, Message: "child 1 not found"}, http.StatusNotFound, `"error":"child 1 not found"`},
		{"storage", service.Outcome{Kind: service.OutcomeError, ErrKind: service.ErrorStorage, Message: "failed to save summary"}, http.StatusInternalServerError, `"error":"Internal server error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSummaries{outcome: tt.outcome}
			router, _ := newTestRouter(t, stub, "", nil)

			rec := do(router, "POST", "/api/children/1/summaries", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Equal(t, int64(1), stub.gotChild)
			assert.Nil(t, stub.gotStart)
		})
	}
}

func TestGeneratePeriodStart(t *testing.T) {
	stub := &stubSummaries{outcome: service.Outcome{Kind: service.OutcomeSuccess}}
	router, _ := newTestRouter(t, stub, "", nil)

	rec := do(router, "POST", "/api/children/1/summaries", `{"period_start":"2024-07-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.gotStart)
	assert.Equal(t, "2024-07-01", stub.gotStart.Format(models.DateLayout))

	rec = do(router, "POST", "/api/children/1/summaries?start=2024-07-08", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2024-07-08", stub.gotStart.Format(models.DateLayout))

	rec = do(router, "POST", "/api/children/1/summaries", `{"period_start":"July 1st"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, "POST", "/api/children/abc/summaries", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, stub.generateN)
}

func TestGenerateRateLimitedPerChild(t *testing.T) {
	limiter := security.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	stub := &stubSummaries{outcome: service.Outcome{Kind: service.OutcomeAlreadyExists}}
	router, _ := newTestRouter(t, stub, "", limiter)

	assert.Equal(t, http.StatusOK, do(router, "POST", "/api/children/1/summaries", "").Code)

	rec := do(router, "POST", "/api/children/1/summaries", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(router, "POST", "/api/children/2/summaries", "").Code)
	assert.Equal(t, 2, stub.generateN)
}

func TestRequireToken(t *testing.T) {
	stub := &stubSummaries{}
	router, _ := newTestRouter(t, stub, "s3cret", nil)

	rec := do(router, "GET", "/api/children", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = do(router, "GET", "/api/children", "", "Authorization", "Bearer nonsense")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := security.IssueToken("s3cret", "tester", time.Hour, time.Now())
	require.NoError(t, err)
	rec = do(router, "GET", "/api/children", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	var children []models.Child
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &children))
	assert.Len(t, children, 1)
}

func TestRequireTokenSetsSubject(t *testing.T) {
	mw := NewMiddleware("s3cret", nil, nil)
	token, err := security.IssueToken("s3cret", "ops", time.Hour, time.Now())
	require.NoError(t, err)

	var subject string
	h := mw.RequireToken(func(w http.ResponseWriter, r *http.Request) {
		subject = GetSubjectFromContext(r.Context())
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h(httptest.NewRecorder(), req)
	assert.Equal(t, "ops", subject)
}

func TestListSummaries(t *testing.T) {
	stub := &stubSummaries{summaryHit: &models.PeriodicSummary{ID: "abc"}}
	router, _ := newTestRouter(t, stub, "", nil)

	rec := do(router, "GET", "/api/children/1/summaries", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(router, "GET", "/api/children/1/summaries?start=2024-07-01", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"abc"`)

	stub.summaryHit = nil
	rec = do(router, "GET", "/api/children/1/summaries?start=2024-07-01", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPeriodPreview(t *testing.T) {
	stub := &stubSummaries{period: &models.PeriodSummary{ChildID: 1}}
	router, _ := newTestRouter(t, stub, "", nil)

	rec := do(router, "GET", "/api/children/1/period?start=2024-07-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-07-07", stub.gotEnd.Format(models.DateLayout))

	rec = do(router, "GET", "/api/children/1/period?start=2024-07-01&end=2024-07-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-07-31", stub.gotEnd.Format(models.DateLayout))

	rec = do(router, "GET", "/api/children/1/period", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunBatch(t *testing.T) {
	stub := &stubSummaries{batch: service.BatchResult{Total: 3, Succeeded: 2, Failed: 1}}
	router, _ := newTestRouter(t, stub, "", nil)

	rec := do(router, "POST", "/api/summaries/run", `{"period_start":"2024-07-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result service.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "2024-07-01", stub.gotStart.Format(models.DateLayout))
}

func TestRecordEndpoints(t *testing.T) {
	router, records := newTestRouter(t, &stubSummaries{}, "", nil)

	rec := do(router, "POST", "/api/children", `{"name":"Noah","date_of_birth":"2023-06-15","gender":"Male"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, records.children, 2)

	rec = do(router, "POST", "/api/children", `{"name":"Noah","date_of_birth":"2023-06-15","gender":"robot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, "GET", "/api/children/2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Noah"`)

	rec = do(router, "GET", "/api/children/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, "POST", "/api/children/1/growth", `{"date":"2024-07-02","height_cm":75.5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, records.growth, 1)
	assert.Equal(t, 75.5, *records.growth[0].Height)

	rec = do(router, "POST", "/api/children/1/growth", `{"date":"2024-07-02"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, "POST", "/api/children/1/growth", `{"date":"2024-07-02","height":75}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	rec = do(router, "POST", "/api/children/1/milestones", `{"category":"language","description":"First word","achievement_date":"2024-07-03"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, models.CategoryLanguage, records.miles[0].Category)

	rec = do(router, "POST", "/api/children/1/behavior", `{"date":"2024-07-04","mood":"happy","sleep_quality":5,"eating_habits":"good","notes":"park"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, models.MoodHappy, *records.behavior[0].Mood)

	rec = do(router, "POST", "/api/children/1/behavior", `{"date":"2024-07-04","sleep_quality":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, "POST", "/api/children/9/behavior", `{"date":"2024-07-04"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
