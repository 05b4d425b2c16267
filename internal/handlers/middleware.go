package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"growthtrack/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	SubjectContextKey ContextKey = "subject"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokenSecret string
	limiter     *security.RateLimiter
	logger      *slog.Logger
}

// NewMiddleware creates a new middleware instance. An empty tokenSecret
// disables token checks; a nil limiter disables rate limiting.
func NewMiddleware(tokenSecret string, limiter *security.RateLimiter, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		tokenSecret: tokenSecret,
		limiter:     limiter,
		logger:      logger,
	}
}

// RequireToken is middleware that requires a valid bearer token
func (m *Middleware) RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.tokenSecret == "" {
			next(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="growthtrack"`)
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		claims, err := security.ParseToken(m.tokenSecret, strings.TrimSpace(token))
		if err != nil {
			m.logger.Warn("Rejected API token", "path", r.URL.Path, "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="growthtrack", error="invalid_token"`)
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectContextKey, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

// RateLimitChild limits requests per child id path value
func (m *Middleware) RateLimitChild(next http.HandlerFunc) http.HandlerFunc {
	return m.rateLimit(func(r *http.Request) string { return "child:" + r.PathValue("id") }, next)
}

// RateLimitClient limits requests per client IP
func (m *Middleware) RateLimitClient(next http.HandlerFunc) http.HandlerFunc {
	return m.rateLimit(func(r *http.Request) string { return "ip:" + security.GetClientIP(r) }, next)
}

func (m *Middleware) rateLimit(key func(*http.Request) string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}
		if ok, wait := m.limiter.Reserve(key(r)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start))
	})
}

// parseChildID parses the {id} path value
func parseChildID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid child id %q", r.PathValue("id"))
	}
	return id, nil
}

// GetSubjectFromContext returns the authenticated token subject, if any
func GetSubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(SubjectContextKey).(string)
	return subject
}
