package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/syncdeck/core/pkg/logger"
	"github.com/syncdeck/core/pkg/models"
	"github.com/syncdeck/core/pkg/registry"
	"github.com/syncdeck/core/pkg/schedule"
	"github.com/syncdeck/core/pkg/store"
)

// JobExecutor hands a due job to the run machinery. The loop never waits
// for execution to finish.
type JobExecutor interface {
	Execute(ctx context.Context, job models.Job)
}

// Config holds the loop's timing knobs.
type Config struct {
	// Timezone is the IANA zone due-ness is evaluated in; invalid names
	// fall back to UTC with a logged warning.
	Timezone     string
	TickInterval time.Duration
	// StartupDelay postpones the first tick so dependent services finish
	// initializing before jobs start firing.
	StartupDelay   time.Duration
	DebounceWindow time.Duration
	// MaxConcurrent caps simultaneously running jobs; 0 disables the gate.
	MaxConcurrent int
}

// Loop is the top-level driver: on every tick it asks the store for enabled
// jobs, consults the schedule evaluator and hands due jobs to the executor,
// de-duplicating against recently-triggered and currently-running jobs.
type Loop struct {
	cfg      Config
	store    store.Store
	executor JobExecutor
	registry *registry.Registry
	debounce *Debounce
	logger   *logger.Logger
	loc      *time.Location

	// now is the clock; tests substitute fixed times
	now func() time.Time

	cron       *cron.Cron
	startTimer *time.Timer
	mu         sync.Mutex
	// evaluating guards against a tick starting while the previous one
	// still runs; the overlapping tick is dropped, not queued
	evaluating atomic.Bool
}

// New creates the loop. The debounce map and registry are injected so tests
// can observe and pre-populate them.
func New(cfg Config, st store.Store, executor JobExecutor, reg *registry.Registry, debounce *Debounce) *Loop {
	log := logger.New("scheduler")

	loc, fellBack := schedule.Location(cfg.Timezone)
	if fellBack {
		log.Warn().
			Str("timezone", cfg.Timezone).
			Str("action", "timezone_fallback").
			Msg("Unknown timezone, using UTC")
	}

	return &Loop{
		cfg:      cfg,
		store:    st,
		executor: executor,
		registry: reg,
		debounce: debounce,
		logger:   log,
		loc:      loc,
		now:      time.Now,
	}
}

// Start arms the startup delay and then begins ticking. It returns
// immediately; ticks run on the cron scheduler's goroutine.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	c := cron.New(cron.WithLocation(l.loc))
	spec := fmt.Sprintf("@every %s", l.cfg.TickInterval)
	if _, err := c.AddFunc(spec, func() { l.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule tick: %w", err)
	}
	l.cron = c

	l.startTimer = time.AfterFunc(l.cfg.StartupDelay, func() {
		l.logger.Info().
			Str("action", "scheduler_started").
			Dur("tick_interval", l.cfg.TickInterval).
			Str("timezone", l.loc.String()).
			Int("max_concurrent", l.cfg.MaxConcurrent).
			Msg("Scheduler loop started")
		c.Start()
	})

	return nil
}

// Stop halts ticking and waits for an in-flight evaluation pass to finish.
// Running jobs are not touched; they finalize on their own.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.startTimer != nil {
		l.startTimer.Stop()
	}
	if l.cron != nil {
		<-l.cron.Stop().Done()
		l.cron = nil
	}
	l.logger.Info().Str("action", "scheduler_stopped").Msg("Scheduler loop stopped")
}

// tick runs one evaluation pass over all enabled jobs.
func (l *Loop) tick(ctx context.Context) {
	if !l.evaluating.CompareAndSwap(false, true) {
		l.logger.Warn().Str("action", "tick_overlap").Msg("Previous tick still evaluating, skipping")
		return
	}
	defer l.evaluating.Store(false)

	started := l.now()

	jobs, err := l.store.ListEnabledJobs(ctx)
	if err != nil {
		l.logger.Error().Err(err).Str("action", "list_jobs_failed").Msg("Could not list enabled jobs")
		return
	}

	triggered, skipped := 0, 0
	for _, job := range jobs {
		if l.evaluateJob(ctx, job) {
			triggered++
		} else {
			skipped++
		}
	}

	l.logger.LogTick(len(jobs), triggered, skipped, l.now().Sub(started))
}

// evaluateJob decides and triggers one job. A panic or error while
// evaluating one job never aborts the tick for the others.
func (l *Loop) evaluateJob(ctx context.Context, job models.Job) (fired bool) {
	log := l.logger.WithJob(job.ID, job.Name)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("action", "evaluate_panic").
				Interface("panic", rec).
				Msg("Job evaluation panicked, continuing with remaining jobs")
			fired = false
		}
	}()

	if !job.Configured() {
		return false
	}

	spec := schedule.Parse(job.Schedule)
	if spec.Kind == schedule.KindUnrecognized {
		log.Warn().
			Str("schedule", job.Schedule).
			Str("action", "schedule_unrecognized").
			Msg("Unrecognized schedule, job will never run")
		return false
	}

	now := l.now()
	if l.debounce.Recently(job.ID, now) {
		return false
	}

	running, err := l.store.IsRunning(ctx, job.ID)
	if err != nil {
		log.Error().Err(err).Str("action", "running_check_failed").Msg("Could not check running state")
		return false
	}
	if running {
		return false
	}

	last, err := l.store.LastRunStartTime(ctx, job.ID)
	if err != nil {
		log.Error().Err(err).Str("action", "last_run_lookup_failed").Msg("Could not look up last run")
		return false
	}

	nowLocal := now.In(l.loc)
	var lastLocal *time.Time
	if last != nil {
		t := last.In(l.loc)
		lastLocal = &t
	}

	if !schedule.Due(spec, nowLocal, lastLocal) {
		return false
	}

	// Admission gate: no debounce record here, so a held-back job is
	// reconsidered on the next tick.
	if l.cfg.MaxConcurrent > 0 && l.registry.Len() >= l.cfg.MaxConcurrent {
		log.Info().
			Int("max_concurrent", l.cfg.MaxConcurrent).
			Str("action", "admission_deferred").
			Msg("Concurrency limit reached, deferring job")
		return false
	}

	l.debounce.Record(job.ID, now)

	log.Info().
		Str("schedule", job.Schedule).
		Str("action", "job_triggered").
		Msg("Job due, handing to runner")

	go l.executor.Execute(ctx, job)
	return true
}
