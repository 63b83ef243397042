package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syncdeck/core/pkg/logger"
	"github.com/syncdeck/core/pkg/models"
	"github.com/syncdeck/core/pkg/notifier"
	"github.com/syncdeck/core/pkg/progress"
	"github.com/syncdeck/core/pkg/registry"
	"github.com/syncdeck/core/pkg/store"
	"github.com/syncdeck/core/pkg/utils"
)

// Config holds the sync-tool invocation settings shared by all runs.
type Config struct {
	BinaryPath       string
	ConfigPath       string
	BandwidthLimit   string
	SnapshotInterval time.Duration
}

// Runner owns the full lifecycle of a run: launch, progress streaming,
// finalization and notification. One Execute call handles exactly one run;
// multiple runs may execute concurrently.
type Runner struct {
	cfg      Config
	store    store.Store
	notifier notifier.Notifier
	registry *registry.Registry
	locks    store.JobLockManager // optional, nil disables cross-replica locking
	launcher Launcher
	logger   *logger.Logger
}

// New creates a runner. Passing a nil locks manager disables the
// cross-replica advisory locks (single-instance deployments).
func New(cfg Config, st store.Store, n notifier.Notifier, reg *registry.Registry, locks store.JobLockManager, launcher Launcher) *Runner {
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	return &Runner{
		cfg:      cfg,
		store:    st,
		notifier: n,
		registry: reg,
		locks:    locks,
		launcher: launcher,
		logger:   logger.New("job-runner"),
	}
}

func runKind(kind models.SyncKind) models.RunKind {
	if kind == models.SyncKindVerify {
		return models.RunKindVerify
	}
	return models.RunKindBackup
}

// Execute runs one job to completion. It blocks until the run is finalized;
// the scheduler invokes it on its own goroutine.
func (r *Runner) Execute(ctx context.Context, job models.Job) {
	log := r.logger.
		WithRequestID(uuid.New().String()).
		WithJob(job.ID, job.Name)

	kind := runKind(job.Kind)

	if r.locks != nil {
		acquired, err := r.locks.AcquireLock(ctx, job.ID)
		if err != nil {
			log.Error().Err(err).Str("action", "lock_error").Msg("Job lock check failed, not running")
			return
		}
		if !acquired {
			log.Info().Str("action", "job_locked").Msg("Job running on another instance, skipping")
			return
		}
		defer func() {
			if err := r.locks.ReleaseLock(context.WithoutCancel(ctx), job.ID); err != nil {
				log.Warn().Err(err).Str("action", "lock_release_failed").Msg("Failed to release job lock")
			}
		}()
	}

	run, err := r.store.CreateRun(ctx, job.ID, kind)
	if err != nil {
		log.Error().Err(err).Str("action", "create_run_failed").Msg("Could not create run record")
		return
	}
	log = log.WithRun(run.ID, kind)

	// Configuration errors finalize immediately; no process is spawned.
	if !job.Configured() {
		r.finalize(ctx, log, job, run, models.RunOutcome{
			Status:     models.RunStatusFailure,
			FinishedAt: time.Now(),
			Counters:   models.Counters{Errors: 1},
			Summary:    "Configuration error: job is missing a source or destination",
		})
		return
	}

	args, err := r.BuildArgs(job)
	if err != nil {
		r.finalize(ctx, log, job, run, models.RunOutcome{
			Status:     models.RunStatusFailure,
			FinishedAt: time.Now(),
			Counters:   models.Counters{Errors: 1},
			Summary:    fmt.Sprintf("Configuration error: %v", err),
		})
		return
	}

	// A registered handle for this run id would mean a second process for
	// the same run; refuse rather than double-spawn.
	if r.registry.IsRunning(run.ID) {
		log.Error().Str("action", "duplicate_run").Msg("Run already has a live process, refusing to spawn")
		return
	}

	log.LogRunStart(job.Name, kind, job.Source, job.Destination)

	proc, err := r.launcher.Launch(r.cfg.BinaryPath, args)
	if err != nil {
		// Binary missing, permission denied, and similar launch errors
		// finalize as failure and still notify.
		r.finalize(ctx, log, job, run, models.RunOutcome{
			Status:     models.RunStatusFailure,
			FinishedAt: time.Now(),
			Counters:   models.Counters{Errors: 1},
			Summary:    fmt.Sprintf("Failed to start sync tool: %v", err),
		})
		return
	}

	r.registry.Register(run.ID, proc.Handle())

	parser := progress.New(kind)
	tail := newLogTail(models.LogTailLimit)
	r.stream(ctx, log, run.ID, proc, parser, tail)

	exit := proc.Wait()
	parser.Flush()
	r.registry.Unregister(run.ID)

	outcome := r.classifyOutcome(run, parser, tail, exit, time.Now())
	r.finalize(ctx, log, job, run, outcome)
}

// stream drains the process output into the parser, persisting a snapshot
// whenever the snapshot interval has elapsed since the last persist.
func (r *Runner) stream(ctx context.Context, log *logger.Logger, runID int64, proc Proc, parser *progress.Parser, tail *logTail) {
	buf := make([]byte, 16*1024)
	lastPersist := time.Now()

	out := proc.Output()
	for {
		n, err := out.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			tail.Write(chunk)
			parser.Consume(chunk)

			if time.Since(lastPersist) >= r.cfg.SnapshotInterval {
				snapshot := models.ProgressSnapshot{
					Counters:  parser.Counters(),
					Summary:   parser.Summary(),
					Timestamp: time.Now(),
				}
				if perr := r.store.AppendProgress(ctx, runID, snapshot); perr != nil {
					log.Warn().Err(perr).Str("action", "progress_persist_failed").Msg("Could not persist progress snapshot")
				}
				lastPersist = time.Now()
			}
		}
		if err != nil {
			return
		}
	}
}

// classifyOutcome turns the exit status and accumulated counters into the
// terminal run record. The recorded stop reason takes precedence over
// signal inference. An unexplained termination signal is still treated as
// cancelled, since the stop signal is the only signal anyone sends these
// processes.
func (r *Runner) classifyOutcome(run *models.Run, parser *progress.Parser, tail *logTail, exit ExitStatus, finished time.Time) models.RunOutcome {
	counters := parser.Counters()
	duration := finished.Sub(run.StartedAt)

	_, stopRequested := r.registry.TakeStopReason(run.ID)

	outcome := models.RunOutcome{
		FinishedAt: finished,
		Counters:   counters,
		LogTail:    tail.String(),
	}

	switch {
	case stopRequested || exit.Signaled:
		outcome.Status = models.RunStatusCancelled
		outcome.Summary = fmt.Sprintf("Stopped by user after %s, %d files transferred",
			progress.FormatBytes(counters.BytesDone), counters.Files)

	case exit.Err != nil:
		outcome.Status = models.RunStatusFailure
		if outcome.Counters.Errors == 0 {
			outcome.Counters.Errors = 1
		}
		outcome.Summary = fmt.Sprintf("Sync tool failed: %v", exit.Err)

	case exit.Code == 0:
		outcome.Status = models.RunStatusSuccess
		outcome.Summary = successSummary(run.Kind, counters, duration)

	default:
		outcome.Status = models.RunStatusFailure
		if outcome.Counters.Errors == 0 {
			// nonzero exit with no parsed errors still counts as one
			outcome.Counters.Errors = 1
		}
		outcome.Summary = fmt.Sprintf("Sync tool exited with code %d, %d errors",
			exit.Code, outcome.Counters.Errors)
	}

	return outcome
}

// successSummary reports totals, average throughput and the error count.
// A zero exit with nonzero errors is still a success; both facts are shown.
func successSummary(kind models.RunKind, c models.Counters, duration time.Duration) string {
	if kind == models.RunKindVerify {
		return fmt.Sprintf("Verified in %s: %d matched, %d differ, %d missing, %d errors",
			duration.Round(time.Second), c.FilesMatched, c.FilesDiffer, c.FilesMissing, c.Errors)
	}

	avg := "0 B/s"
	if duration > 0 {
		avg = progress.FormatSpeed(float64(c.BytesDone) / duration.Seconds())
	}
	return fmt.Sprintf("Transferred %s, %d files in %s (avg %s), %d errors",
		progress.FormatBytes(c.BytesDone), c.Files, duration.Round(time.Second), avg, c.Errors)
}

// finalize persists the terminal record and emits the notification event.
// Cancelled runs never notify.
func (r *Runner) finalize(ctx context.Context, log *logger.Logger, job models.Job, run *models.Run, outcome models.RunOutcome) {
	if err := r.store.FinalizeRun(ctx, run.ID, outcome); err != nil {
		log.Error().Err(err).Str("action", "finalize_failed").Msg("Could not finalize run")
	}

	duration := outcome.FinishedAt.Sub(run.StartedAt)
	log.LogRunComplete(job.Name, outcome.Status, duration, outcome.Counters)

	if outcome.Status == models.RunStatusCancelled {
		return
	}

	r.notifier.Notify(ctx, models.NotificationEvent{
		JobName:         job.Name,
		JobLabel:        utils.JobLabel(job.Name),
		Status:          outcome.Status,
		Counters:        outcome.Counters,
		DurationSeconds: int64(duration.Seconds()),
		Summary:         outcome.Summary,
	})
}

// CancelRun requests cancellation of a running run. When no live process is
// registered (it may have exited between the caller's status check and this
// call) the run is reconciled to cancelled directly; finalization being
// idempotent makes the race harmless.
func (r *Runner) CancelRun(ctx context.Context, runID int64) error {
	if r.registry.Stop(runID, registry.StopReasonUser) {
		// the exit handler owns the terminal status from here
		return nil
	}

	err := r.store.FinalizeRun(ctx, runID, models.RunOutcome{
		Status:     models.RunStatusCancelled,
		FinishedAt: time.Now(),
		Summary:    "Stopped by user; process had already exited",
	})
	if err != nil {
		return fmt.Errorf("failed to reconcile cancelled run %d: %w", runID, err)
	}
	return nil
}
