// Package scheduler runs named recurring tasks on top of gocron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownJob   = errors.New("scheduler: unknown job")
	ErrDuplicateJob = errors.New("scheduler: job already scheduled")
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

// Run describes one execution of a job.
type Run struct {
	ID       uuid.UUID
	Job      string
	Started  time.Time
	Finished time.Time
	Err      error
}

// Scheduler owns a gocron scheduler and the tasks registered on it. Tasks
// are kept by name so they can also be run on demand.
type Scheduler struct {
	cron *gocron.Scheduler
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	tasks map[string]Task
	last  map[string]Run
}

// New returns a stopped scheduler. Jobs never overlap with themselves and
// wait for their first interval before running.
func New(log zerolog.Logger) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	cron.WaitForScheduleAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron,
		log:    log.With().Str("component", "scheduler").Logger(),
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]Task),
		last:   make(map[string]Run),
	}
}

// Every schedules task under name, running every interval once started.
//
//	s.Every("cleanup", 24*time.Hour, cleaner.RunAll)
func (s *Scheduler) Every(name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: %s: interval must be positive, got %s", name, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	if _, err := s.cron.Every(interval).Tag(name).Do(func() {
		_, _ = s.execute(s.runContext(), name, task)
	}); err != nil {
		return fmt.Errorf("scheduler: %s: %w", name, err)
	}
	s.tasks[name] = task
	s.log.Debug().Str("job", name).Dur("interval", interval).Msg("job scheduled")
	return nil
}

// RunNow runs the named job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (Run, error) {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, name, task)
}

func (s *Scheduler) execute(ctx context.Context, name string, task Task) (Run, error) {
	run := Run{ID: uuid.New(), Job: name, Started: time.Now()}
	log := s.log.With().Str("job", name).Str("run_id", run.ID.String()).Logger()
	log.Info().Msg("job started")

	run.Err = task(ctx)
	run.Finished = time.Now()

	s.mu.Lock()
	s.last[name] = run
	s.mu.Unlock()

	if run.Err != nil {
		log.Error().Err(run.Err).Dur("took", run.Finished.Sub(run.Started)).Msg("job failed")
		return run, run.Err
	}
	log.Info().Dur("took", run.Finished.Sub(run.Started)).Msg("job finished")
	return run, nil
}

// LastRun returns the most recent run of name.
func (s *Scheduler) LastRun(name string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.last[name]
	return run, ok
}

// Jobs returns the scheduled job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start runs the scheduler in the background. A stopped scheduler can be
// started again; its tasks get a fresh context.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.mu.Unlock()
	s.cron.StartAsync()
	s.log.Info().Int("jobs", len(s.Jobs())).Msg("scheduler started")
}

// Stop stops the scheduler and cancels the context of running tasks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.cron.Stop()
}

// runContext is the context handed to scheduled runs.
func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// IsRunning reports whether Start was called and Stop was not.
func (s *Scheduler) IsRunning() bool {
	return s.cron.IsRunning()
}
