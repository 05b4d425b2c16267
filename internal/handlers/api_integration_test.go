package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthtrack/internal/database"
	"growthtrack/internal/repository"
	"growthtrack/internal/service"
)

type countingGenerator struct{ calls atomic.Int32 }

func (g *countingGenerator) Generate(context.Context, string) (string, error) {
	g.calls.Add(1)
	return "Emma had a big week.", nil
}

func TestSummaryAPIEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations"))

	children := repository.NewChildRepository(db)
	growth := repository.NewGrowthRepository(db)
	milestones := repository.NewMilestoneRepository(db)
	behavior := repository.NewBehaviorRepository(db)
	summaries := repository.NewSummaryRepository(db)

	generator := &countingGenerator{}
	svc := service.NewSummaryService(service.Stores{
		Children:   children,
		Growth:     growth,
		Milestones: milestones,
		Behavior:   behavior,
		Summaries:  summaries,
	}, generator, service.WithClock(func() time.Time { return time.Date(2024, 7, 10, 8, 0, 0, 0, time.UTC) }))

	router := NewRouter(
		NewSummaryHandler(svc),
		NewRecordHandler(children, growth, milestones, behavior),
		NewMiddleware("", nil, nil),
		nil,
	)

	rec := do(router, "POST", "/api/children", `{"name":"Emma","date_of_birth":"2023-01-01","gender":"female"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, body := range []string{
		`{"date":"2024-07-05","height_cm":75,"weight_kg":9.0}`,
		`{"date":"2024-07-09","height_cm":77.5,"weight_kg":9.2,"notes":"after holiday"}`,
	} {
		rec = do(router, "POST", "/api/children/1/growth", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = do(router, "POST", "/api/children/1/milestones", `{"category":"physical","description":"First steps","achievement_date":"2024-07-06"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(router, "POST", "/api/children/1/behavior", `{"date":"2024-07-06","mood":"happy","sleep_quality":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(router, "GET", "/api/children/1/period?start=2024-07-04", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"has_significant_change":true`)

	rec = do(router, "POST", "/api/children/1/summaries", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first outcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.NotNil(t, first.Summary)
	assert.Equal(t, "2024-07-04", first.Summary.PeriodStart.Format("2006-01-02"))

	rec = do(router, "POST", "/api/children/1/summaries", `{"period_start":"2024-07-04"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var second outcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, "already_exists", second.Outcome)
	assert.Equal(t, first.Summary.ID, second.Summary.ID)
	assert.Equal(t, int32(1), generator.calls.Load())

	rec = do(router, "GET", "/api/children/1/summaries?start=2024-07-04", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Emma had a big week.")

	rec = do(router, "POST", "/api/summaries/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var batch service.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, int32(1), generator.calls.Load())
}
