package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// RunFunc is the work executed on each tick.
type RunFunc func(ctx context.Context) error

// Service runs a pipeline on a cron schedule. A tick that fires while the
// previous run is still going is skipped, never queued.
type Service struct {
	cron   *cron.Cron
	run    RunFunc
	logger arbor.ILogger

	mu           sync.Mutex // protects the fields below
	isProcessing bool
	running      bool
	entryID      cron.EntryID
	ctx          context.Context
	lastRun      *time.Time
	lastError    string
}

// NewService creates a new scheduler service
func NewService(run RunFunc, logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		run:    run,
		logger: logger,
	}
}

// Start registers cronExpr and starts the scheduler. ctx is passed to every run.
func (s *Service) Start(ctx context.Context, cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	id, err := s.cron.AddFunc(cronExpr, func() { s.TriggerNow() })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = id
	s.ctx = ctx
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Str("next_run", s.cron.Entry(id).Next.Format(time.RFC3339)).
		Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler has been started.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled time, or the zero time when stopped.
func (s *Service) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// LastRun returns when the last run finished and its error message, if any.
func (s *Service) LastRun() (*time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastError
}

// TriggerNow runs immediately on the caller's goroutine.
// Returns false when a run was already in progress and this one was skipped.
func (s *Service) TriggerNow() (ran bool) {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping this cycle")
		return false
	}
	s.isProcessing = true
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	var runErr error
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled run")
			runErr = fmt.Errorf("panic: %v", r)
		}

		finished := time.Now()
		s.mu.Lock()
		s.isProcessing = false
		s.lastRun = &finished
		s.lastError = ""
		if runErr != nil {
			s.lastError = runErr.Error()
		}
		s.mu.Unlock()
	}()

	ran = true
	s.logger.Info().Msg("Scheduled run starting")
	runErr = s.run(ctx)
	if runErr != nil {
		s.logger.Error().Err(runErr).Msg("Scheduled run failed")
	}
	return ran
}
