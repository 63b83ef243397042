package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/syncdeck/core/pkg/logger"
	"github.com/syncdeck/core/pkg/models"
)

// PostgresStore implements Store on top of the dashboard's Postgres schema.
type PostgresStore struct {
	db     DBTX
	logger *logger.Logger
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.New("job-store"),
	}
}

const jobColumns = `id, name, kind, enabled, source, destination, schedule, extra_args, description`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Name, &j.Kind, &j.Enabled, &j.Source,
		&j.Destination, &j.Schedule, &j.ExtraArgs, &j.Description)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) ListEnabledJobs(ctx context.Context) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM sync_jobs WHERE enabled ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID int64) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM sync_jobs WHERE id = $1`

	j, err := scanJob(s.db.QueryRow(ctx, query, jobID))
	if err == pgx.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %d: %w", jobID, err)
	}
	return j, nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, jobID int64, kind models.RunKind) (*models.Run, error) {
	query := `
		INSERT INTO sync_runs (job_id, kind, status, started_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, started_at`

	run := models.Run{
		JobID:  jobID,
		Kind:   kind,
		Status: models.RunStatusRunning,
	}
	err := s.db.QueryRow(ctx, query, jobID, kind, models.RunStatusRunning).
		Scan(&run.ID, &run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run for job %d: %w", jobID, err)
	}

	s.logger.Info().
		Int64("job_id", jobID).
		Int64("run_id", run.ID).
		Str("run_kind", string(kind)).
		Str("action", "run_created").
		Msg("Run record created")

	return &run, nil
}

func (s *PostgresStore) AppendProgress(ctx context.Context, runID int64, snapshot models.ProgressSnapshot) error {
	// Progress lands on the run row itself so the dashboard's poll of a
	// running job is a single-row read. Only non-terminal runs accept
	// updates; a snapshot racing the finalizer is dropped silently.
	query := `
		UPDATE sync_runs
		SET bytes_done = $2, bytes_total = $3, files = $4, errors = $5,
		    speed = $6, eta_seconds = $7, rate_limit_hits = $8,
		    files_matched = $9, files_differ = $10, files_missing = $11,
		    summary = $12, updated_at = $13
		WHERE id = $1 AND status = 'running'`

	c := snapshot.Counters
	_, err := s.db.Exec(ctx, query, runID,
		c.BytesDone, c.BytesTotal, c.Files, c.Errors,
		c.Speed, c.ETASeconds, c.RateLimitHits,
		c.FilesMatched, c.FilesDiffer, c.FilesMissing,
		snapshot.Summary, snapshot.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append progress for run %d: %w", runID, err)
	}
	return nil
}

func (s *PostgresStore) FinalizeRun(ctx context.Context, runID int64, outcome models.RunOutcome) error {
	// The status guard makes finalization idempotent: once terminal, a run
	// is never mutated again, no matter who calls finalize afterwards.
	query := `
		UPDATE sync_runs
		SET status = $2, finished_at = $3,
		    bytes_done = $4, bytes_total = $5, files = $6, errors = $7,
		    speed = $8, eta_seconds = 0, rate_limit_hits = $9,
		    files_matched = $10, files_differ = $11, files_missing = $12,
		    summary = $13, log_tail = $14, updated_at = now()
		WHERE id = $1 AND status = 'running'`

	c := outcome.Counters
	tag, err := s.db.Exec(ctx, query, runID,
		outcome.Status, outcome.FinishedAt,
		c.BytesDone, c.BytesTotal, c.Files, c.Errors,
		c.Speed, c.RateLimitHits,
		c.FilesMatched, c.FilesDiffer, c.FilesMissing,
		outcome.Summary, outcome.LogTail)
	if err != nil {
		return fmt.Errorf("failed to finalize run %d: %w", runID, err)
	}

	if tag.RowsAffected() == 0 {
		// Either the run is unknown or it already reached a terminal
		// status. The latter is the accepted stop/exit race.
		var exists bool
		err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM sync_runs WHERE id = $1)`, runID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check run %d after finalize: %w", runID, err)
		}
		if !exists {
			return ErrRunNotFound
		}
		s.logger.Debug().
			Int64("run_id", runID).
			Str("action", "finalize_noop").
			Msg("Run already terminal, finalize skipped")
		return nil
	}

	s.logger.Info().
		Int64("run_id", runID).
		Str("status", string(outcome.Status)).
		Str("action", "run_finalized").
		Msg("Run finalized")

	return nil
}

func (s *PostgresStore) LastRunStartTime(ctx context.Context, jobID int64) (*time.Time, error) {
	query := `SELECT started_at FROM sync_runs WHERE job_id = $1 ORDER BY started_at DESC LIMIT 1`

	var started time.Time
	err := s.db.QueryRow(ctx, query, jobID).Scan(&started)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run time for job %d: %w", jobID, err)
	}
	return &started, nil
}

func (s *PostgresStore) IsRunning(ctx context.Context, jobID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sync_runs WHERE job_id = $1 AND status = 'running')`

	var running bool
	if err := s.db.QueryRow(ctx, query, jobID).Scan(&running); err != nil {
		return false, fmt.Errorf("failed to check running state for job %d: %w", jobID, err)
	}
	return running, nil
}

func (s *PostgresStore) ActiveRuns(ctx context.Context) ([]models.Run, error) {
	query := `
		SELECT id, job_id, kind, status, started_at,
		       bytes_done, bytes_total, files, errors, speed, eta_seconds,
		       rate_limit_hits, files_matched, files_differ, files_missing,
		       COALESCE(summary, '')
		FROM sync_runs
		WHERE status = 'running'
		ORDER BY started_at`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var r models.Run
		c := &r.Counters
		err := rows.Scan(&r.ID, &r.JobID, &r.Kind, &r.Status, &r.StartedAt,
			&c.BytesDone, &c.BytesTotal, &c.Files, &c.Errors, &c.Speed,
			&c.ETASeconds, &c.RateLimitHits,
			&c.FilesMatched, &c.FilesDiffer, &c.FilesMissing,
			&r.Summary)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
