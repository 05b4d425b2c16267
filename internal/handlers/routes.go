package handlers

import "net/http"

// NewRouter registers the API routes. metrics may be nil.
func NewRouter(summaries *SummaryHandler, records *RecordHandler, mw *Middleware, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Records
	mux.HandleFunc("GET /api/children", mw.RequireToken(records.ListChildren))
	mux.HandleFunc("POST /api/children", mw.RequireToken(records.CreateChild))
	mux.HandleFunc("GET /api/children/{id}", mw.RequireToken(records.GetChild))
	mux.HandleFunc("POST /api/children/{id}/growth", mw.RequireToken(records.AddGrowth))
	mux.HandleFunc("POST /api/children/{id}/milestones", mw.RequireToken(records.AddMilestone))
	mux.HandleFunc("POST /api/children/{id}/behavior", mw.RequireToken(records.AddBehavior))

	// Summaries
	mux.HandleFunc("GET /api/children/{id}/period", mw.RequireToken(summaries.Period))
	mux.HandleFunc("GET /api/children/{id}/summaries", mw.RequireToken(summaries.List))
	mux.HandleFunc("POST /api/children/{id}/summaries", mw.RequireToken(mw.RateLimitChild(summaries.Generate)))
	mux.HandleFunc("POST /api/summaries/run", mw.RequireToken(mw.RateLimitClient(summaries.RunBatch)))

	return Logging(mux)
}
