package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"growthtrack/internal/analytics"
	"growthtrack/internal/llm"
	"growthtrack/internal/metrics"
	"growthtrack/internal/models"
	"growthtrack/internal/narrative"
)

// PeriodDays is the length of a summary period
const PeriodDays = 7

// ChildStore looks up child profiles
type ChildStore interface {
	GetChild(childID int64) (*models.Child, error)
	ListChildren() ([]models.Child, error)
}

// GrowthStore returns the growth measurements of a child within a date range
type GrowthStore interface {
	ByRange(childID int64, start, end time.Time) ([]models.GrowthMeasurement, error)
}

// MilestoneStore returns the milestones of a child within a date range
type MilestoneStore interface {
	ByRange(childID int64, start, end time.Time) ([]models.Milestone, error)
}

// BehaviorStore returns the behavior entries of a child within a date range
type BehaviorStore interface {
	ByRange(childID int64, start, end time.Time) ([]models.BehaviorEntry, error)
}

// SummaryStore persists periodic summaries keyed by child and period start
type SummaryStore interface {
	Find(childID int64, periodStart time.Time) (*models.PeriodicSummary, error)
	Insert(summary *models.PeriodicSummary) error
	ListForChild(childID int64) ([]models.PeriodicSummary, error)
}

// Generator turns a prompt into narrative text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier is told about every newly persisted summary
type Notifier interface {
	NotifySummary(ctx context.Context, child *models.Child, summary *models.PeriodicSummary) error
}

// Stores groups the persistence dependencies of SummaryService
type Stores struct {
	Children   ChildStore
	Growth     GrowthStore
	Milestones MilestoneStore
	Behavior   BehaviorStore
	Summaries  SummaryStore
}

// ErrorKind classifies a failed summary request
type ErrorKind string

const (
	ErrorValidation         ErrorKind = "validation"
	ErrorNotFound           ErrorKind = "not_found"
	ErrorStorage            ErrorKind = "storage"
	ErrorCanceled           ErrorKind = "canceled"
	ErrorUnauthorized       ErrorKind = "unauthorized"
	ErrorRateLimited        ErrorKind = "rate_limited"
	ErrorServiceUnavailable ErrorKind = "service_unavailable"
	ErrorNetworkUnavailable ErrorKind = "network_unavailable"
	ErrorUnknown            ErrorKind = "unknown"
)

// Error is returned by SummaryService lookups and carried by failed outcomes
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) *Error {
	return &Error{Kind: ErrorStorage, Message: "failed to " + op, Err: err}
}

func notFound(childID int64) *Error {
	return &Error{Kind: ErrorNotFound, Message: fmt.Sprintf("child %d not found", childID)}
}

// gatewayError maps a generation failure onto the service taxonomy. Errors
// classified by the llm package keep their kind, even when they wrap a
// context error such as an HTTP client timeout. Only unclassified context
// errors, raised when the caller's context ends, become ErrorCanceled.
func gatewayError(err error) *Error {
	var lerr *llm.Error
	if !errors.As(err, &lerr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &Error{Kind: ErrorCanceled, Message: "summary generation was canceled", Err: err}
		}
		return &Error{Kind: ErrorUnknown, Message: err.Error(), Err: err}
	}

	message := lerr.Message
	if message == "" {
		message = lerr.Kind.DefaultMessage()
	}

	switch lerr.Kind {
	case llm.KindUnauthorized:
		return &Error{Kind: ErrorUnauthorized, Message: message, Err: err}
	case llm.KindRateLimited:
		return &Error{Kind: ErrorRateLimited, Message: message, Err: err}
	case llm.KindServiceUnavailable:
		return &Error{Kind: ErrorServiceUnavailable, Message: message, Err: err}
	case llm.KindNetworkUnavailable:
		return &Error{Kind: ErrorNetworkUnavailable, Message: message, Err: err}
	}
	return &Error{Kind: ErrorUnknown, Message: message, Err: err}
}

// OutcomeKind is the terminal state of a generate-or-skip request
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeAlreadyExists
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAlreadyExists:
		return "already_exists"
	}
	return "error"
}

// Outcome reports the result of GenerateSummary. Summary is set for
// OutcomeSuccess and OutcomeAlreadyExists; ErrKind and Message for OutcomeError.
// Period is the aggregation the narrative was generated from, when one was built.
type Outcome struct {
	Kind    OutcomeKind
	Summary *models.PeriodicSummary
	Period  *models.PeriodSummary
	ErrKind ErrorKind
	Message string
	Err     error
}

func failed(err *Error) Outcome {
	return Outcome{Kind: OutcomeError, ErrKind: err.Kind, Message: err.Message, Err: err}
}

// SummaryService generates one narrative summary per child and period
type SummaryService struct {
	stores    Stores
	generator Generator
	notifier  Notifier
	metrics   *metrics.Collectors
	logger    *slog.Logger
	now       func() time.Time
}

// SummaryOption configures a SummaryService
type SummaryOption func(*SummaryService)

// WithNotifier sets the notifier called after a summary is persisted
func WithNotifier(n Notifier) SummaryOption {
	return func(s *SummaryService) {
		s.notifier = n
	}
}

// WithSummaryMetrics sets the metrics collectors
func WithSummaryMetrics(m *metrics.Collectors) SummaryOption {
	return func(s *SummaryService) {
		s.metrics = m
	}
}

// WithSummaryLogger sets the logger
func WithSummaryLogger(logger *slog.Logger) SummaryOption {
	return func(s *SummaryService) {
		s.logger = logger
	}
}

// WithClock overrides the source of "today"
func WithClock(now func() time.Time) SummaryOption {
	return func(s *SummaryService) {
		s.now = now
	}
}

// NewSummaryService creates a new summary service
func NewSummaryService(stores Stores, generator Generator, opts ...SummaryOption) *SummaryService {
	s := &SummaryService{
		stores:    stores,
		generator: generator,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Period resolves the summary period. A nil start selects the seven days
// ending today; otherwise the period runs for seven days from start.
func (s *SummaryService) Period(periodStart *time.Time) (start, end time.Time) {
	if periodStart == nil {
		end = models.Day(s.now())
		return end.AddDate(0, 0, -(PeriodDays - 1)), end
	}
	start = models.Day(*periodStart)
	return start, start.AddDate(0, 0, PeriodDays-1)
}

// GenerateSummary returns the existing summary for the child and period, or
// generates and persists a new one
func (s *SummaryService) GenerateSummary(ctx context.Context, childID int64, periodStart *time.Time) Outcome {
	start, end := s.Period(periodStart)
	outcome := s.generateSummary(ctx, childID, start, end)

	label := outcome.Kind.String()
	if outcome.Kind == OutcomeError {
		label = string(outcome.ErrKind)
	}
	s.metrics.SummaryOutcome(label)

	attrs := []any{"child_id", childID, "period_start", start.Format(models.DateLayout), "outcome", label}
	switch outcome.Kind {
	case OutcomeError:
		s.logger.Warn("Summary generation failed", append(attrs, "error", outcome.Err)...)
	default:
		s.logger.Info("Summary request completed", attrs...)
	}
	return outcome
}

func (s *SummaryService) generateSummary(ctx context.Context, childID int64, start, end time.Time) Outcome {
	existing, err := s.stores.Summaries.Find(childID, start)
	if err != nil {
		return failed(storageError("look up existing summary", err))
	}
	if existing != nil {
		return Outcome{Kind: OutcomeAlreadyExists, Summary: existing}
	}

	child, growth, milestones, behavior, err := s.load(childID, start, end)
	if err != nil {
		return failed(asError(err))
	}

	period, err := analytics.Build(*child, start, end, growth, milestones, behavior)
	if err != nil {
		return failed(asError(err))
	}

	prompt := narrative.BuildPrompt(child.Name, child.DateOfBirth, start, end, growth, period.Milestones, behavior)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		out := failed(gatewayError(err))
		out.Period = period
		return out
	}
	text = strings.TrimSpace(text)
	if text == "" {
		out := failed(&Error{Kind: ErrorUnknown, Message: "the text generation service returned an empty narrative"})
		out.Period = period
		return out
	}

	summary := &models.PeriodicSummary{
		ChildID:       childID,
		PeriodStart:   start,
		PeriodEnd:     end,
		NarrativeText: text,
		GeneratedAt:   s.now().UTC(),
	}
	if err := s.stores.Summaries.Insert(summary); err != nil {
		// A concurrent request may have persisted the same period first.
		if winner, findErr := s.stores.Summaries.Find(childID, start); findErr == nil && winner != nil {
			return Outcome{Kind: OutcomeAlreadyExists, Summary: winner, Period: period}
		}
		return failed(storageError("save summary", err))
	}

	if s.notifier != nil {
		if err := s.notifier.NotifySummary(ctx, child, summary); err != nil {
			s.logger.Warn("Summary notification failed", "child_id", childID, "summary_id", summary.ID, "error", err)
		}
	}

	return Outcome{Kind: OutcomeSuccess, Summary: summary, Period: period}
}

func (s *SummaryService) load(childID int64, start, end time.Time) (*models.Child, []models.GrowthMeasurement, []models.Milestone, []models.BehaviorEntry, error) {
	child, err := s.stores.Children.GetChild(childID)
	if err != nil {
		return nil, nil, nil, nil, storageError("load child", err)
	}
	if child == nil {
		return nil, nil, nil, nil, notFound(childID)
	}

	growth, err := s.stores.Growth.ByRange(childID, start, end)
	if err != nil {
		return nil, nil, nil, nil, storageError("load growth measurements", err)
	}
	milestones, err := s.stores.Milestones.ByRange(childID, start, end)
	if err != nil {
		return nil, nil, nil, nil, storageError("load milestones", err)
	}
	behavior, err := s.stores.Behavior.ByRange(childID, start, end)
	if err != nil {
		return nil, nil, nil, nil, storageError("load behavior entries", err)
	}
	return child, growth, milestones, behavior, nil
}

// asError converts validation failures and service errors into *Error
func asError(err error) *Error {
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}
	var verr models.ValidationError
	if errors.As(err, &verr) {
		return &Error{Kind: ErrorValidation, Message: verr.Error(), Err: err}
	}
	return &Error{Kind: ErrorUnknown, Message: err.Error(), Err: err}
}

// PeriodSummary aggregates a child's records over [start, end] without
// generating a narrative
func (s *SummaryService) PeriodSummary(childID int64, start, end time.Time) (*models.PeriodSummary, error) {
	start, end = models.Day(start), models.Day(end)
	if end.Before(start) {
		return nil, &Error{Kind: ErrorValidation, Message: "period end is before period start"}
	}
	child, growth, milestones, behavior, err := s.load(childID, start, end)
	if err != nil {
		return nil, err
	}
	period, err := analytics.Build(*child, start, end, growth, milestones, behavior)
	if err != nil {
		return nil, asError(err)
	}
	return period, nil
}

// Summary returns the persisted summary for a child and period start
func (s *SummaryService) Summary(childID int64, periodStart time.Time) (*models.PeriodicSummary, error) {
	summary, err := s.stores.Summaries.Find(childID, models.Day(periodStart))
	if err != nil {
		return nil, storageError("look up summary", err)
	}
	if summary == nil {
		return nil, &Error{Kind: ErrorNotFound, Message: "no summary for this period"}
	}
	return summary, nil
}

// Summaries lists a child's persisted summaries, most recent first
func (s *SummaryService) Summaries(childID int64) ([]models.PeriodicSummary, error) {
	child, err := s.stores.Children.GetChild(childID)
	if err != nil {
		return nil, storageError("load child", err)
	}
	if child == nil {
		return nil, notFound(childID)
	}
	summaries, err := s.stores.Summaries.ListForChild(childID)
	if err != nil {
		return nil, storageError("list summaries", err)
	}
	return summaries, nil
}

// ChildError records a child whose summary could not be generated in a batch
type ChildError struct {
	ChildID int64     `json:"child_id"`
	Name    string    `json:"name"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// BatchResult tallies a batch run. NotProcessed counts children skipped
// because the run was canceled.
type BatchResult struct {
	PeriodStart  time.Time    `json:"period_start"`
	PeriodEnd    time.Time    `json:"period_end"`
	Total        int          `json:"total"`
	Succeeded    int          `json:"succeeded"`
	Skipped      int          `json:"skipped"`
	Failed       int          `json:"failed"`
	NotProcessed int          `json:"not_processed"`
	Errors       []ChildError `json:"errors"`
}

// GenerateAll runs GenerateSummary for every child, one at a time. A failed
// child is recorded and the run continues; cancellation of ctx stops the run
// before the next child.
func (s *SummaryService) GenerateAll(ctx context.Context, periodStart *time.Time) (BatchResult, error) {
	start, end := s.Period(periodStart)
	result := BatchResult{PeriodStart: start, PeriodEnd: end, Errors: []ChildError{}}

	children, err := s.stores.Children.ListChildren()
	if err != nil {
		return result, storageError("list children", err)
	}
	result.Total = len(children)

	for i, child := range children {
		if ctx.Err() != nil {
			result.NotProcessed = len(children) - i
			s.logger.Warn("Batch run canceled", "remaining", result.NotProcessed)
			break
		}

		outcome := s.GenerateSummary(ctx, child.ID, &start)
		switch outcome.Kind {
		case OutcomeSuccess:
			result.Succeeded++
		case OutcomeAlreadyExists:
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, ChildError{
				ChildID: child.ID,
				Name:    child.Name,
				Kind:    outcome.ErrKind,
				Message: outcome.Message,
			})
		}
		s.metrics.BatchChild(outcome.Kind.String())
	}

	s.logger.Info("Batch run finished",
		"period_start", start.Format(models.DateLayout),
		"total", result.Total,
		"succeeded", result.Succeeded,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"not_processed", result.NotProcessed)
	return result, nil
}
