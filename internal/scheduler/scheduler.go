// Package scheduler runs named periodic jobs with an explicit lifecycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic unit of work. ctx is canceled when the job is
// canceled or the scheduler stops.
type Job func(ctx context.Context)

// Scheduler registers and cancels periodic jobs
type Scheduler interface {
	Register(name string, interval time.Duration, job Job) error
	Cancel(name string) bool
	Stop()
}

// ErrStopped is returned by Register after Stop
var ErrStopped = errors.New("scheduler stopped")

type entry struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// TickerScheduler runs every job on its own ticker goroutine. Runs of the
// same job never overlap; a tick that fires during a run is dropped.
type TickerScheduler struct {
	mu      sync.Mutex
	jobs    map[string]*entry
	stopped bool
	logger  *slog.Logger
}

// New creates a TickerScheduler
func New(logger *slog.Logger) *TickerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickerScheduler{jobs: make(map[string]*entry), logger: logger}
}

// Register starts running job every interval under name
func (s *TickerScheduler) Register(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %q", interval, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{cancel: cancel, done: make(chan struct{})}
	s.jobs[name] = e

	go s.run(ctx, name, interval, job, e.done)
	s.logger.Info("Scheduled job registered", "job", name, "interval", interval)
	return nil
}

func (s *TickerScheduler) run(ctx context.Context, name string, interval time.Duration, job Job, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := time.Now()
			job(ctx)
			s.logger.Debug("Scheduled job ran", "job", name, "took", time.Since(started))
		}
	}
}

// Cancel stops the named job and waits for a running invocation to return.
// It reports whether the job existed.
func (s *TickerScheduler) Cancel(name string) bool {
	s.mu.Lock()
	e, ok := s.jobs[name]
	delete(s.jobs, name)
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.cancel()
	<-e.done
	s.logger.Info("Scheduled job canceled", "job", name)
	return true
}

// Stop cancels every job and waits for them to return
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	jobs := s.jobs
	s.jobs = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range jobs {
		e.cancel()
	}
	for _, e := range jobs {
		<-e.done
	}
}
