package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/syncdeck/core/pkg/models"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("job not found")

// Store is the engine's view of the job repository. The dashboard owns the
// schema and all job mutation; the engine only reads job definitions and
// writes run records.
type Store interface {
	// ListEnabledJobs returns every enabled job definition.
	ListEnabledJobs(ctx context.Context) ([]models.Job, error)

	// GetJob returns one job by id, ErrJobNotFound when absent.
	GetJob(ctx context.Context, jobID int64) (*models.Job, error)

	// CreateRun inserts a new run in running state and returns it.
	CreateRun(ctx context.Context, jobID int64, kind models.RunKind) (*models.Run, error)

	// AppendProgress persists a progress snapshot for a still-running run.
	AppendProgress(ctx context.Context, runID int64, snapshot models.ProgressSnapshot) error

	// FinalizeRun writes the terminal record for a run. Finalization is
	// idempotent: a run that already reached a terminal status is left
	// untouched and no error is returned.
	FinalizeRun(ctx context.Context, runID int64, outcome models.RunOutcome) error

	// LastRunStartTime returns the start time of the job's most recent
	// run, or nil when the job has never run.
	LastRunStartTime(ctx context.Context, jobID int64) (*time.Time, error)

	// IsRunning reports whether a non-terminal run exists for the job.
	IsRunning(ctx context.Context, jobID int64) (bool, error)

	// ActiveRuns returns all runs currently in running state.
	ActiveRuns(ctx context.Context) ([]models.Run, error)
}

// DBTX is the subset of the pgx pool used by the store and lock manager,
// narrowed so tests can substitute fakes.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
