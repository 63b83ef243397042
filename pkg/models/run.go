package models

import "time"

// RunKind distinguishes transfer runs from verification runs
type RunKind string

const (
	RunKindBackup RunKind = "backup"
	RunKindVerify RunKind = "verify"
)

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSuccess   RunStatus = "success"
	RunStatusFailure   RunStatus = "failure"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusSkipped   RunStatus = "skipped"
)

// Terminal reports whether the status is final. A run that reached a
// terminal status is never mutated again.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusFailure, RunStatusCancelled, RunStatusSkipped:
		return true
	}
	return false
}

// Counters holds the transfer counters accumulated over one run.
// Transfer runs use the byte/file fields; verify runs use the check fields.
// RateLimitHits is a cross-cutting observability signal counted from the
// output stream independently of the tool's own stats.
type Counters struct {
	BytesDone     int64   `json:"bytes_done"`
	BytesTotal    int64   `json:"bytes_total"`
	Files         int64   `json:"files"`
	Errors        int64   `json:"errors"`
	Speed         float64 `json:"speed"`
	ETASeconds    int64   `json:"eta_seconds"`
	RateLimitHits int64   `json:"rate_limit_hits"`

	FilesMatched int64 `json:"files_matched,omitempty"`
	FilesDiffer  int64 `json:"files_differ,omitempty"`
	FilesMissing int64 `json:"files_missing,omitempty"`
}

// Run represents one execution attempt of a job
type Run struct {
	ID         int64      `json:"id"`
	JobID      int64      `json:"job_id"`
	Kind       RunKind    `json:"kind"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Counters   Counters   `json:"counters"`
	Summary    string     `json:"summary"`
	// LogTail is a bounded excerpt of the combined process output,
	// capped at the last LogTailLimit characters.
	LogTail string `json:"log_tail,omitempty"`
}

// LogTailLimit bounds the persisted log excerpt of a run.
const LogTailLimit = 4000

// ProgressSnapshot is a point-in-time view of a still-running run,
// persisted periodically while the process streams output.
type ProgressSnapshot struct {
	Counters  Counters  `json:"counters"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// RunOutcome is the terminal record of a run handed to the store exactly once.
type RunOutcome struct {
	Status     RunStatus `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
	Counters   Counters  `json:"counters"`
	Summary    string    `json:"summary"`
	LogTail    string    `json:"log_tail"`
}

// NotificationEvent is the payload handed to the notifier when a run
// finishes. Cancelled runs never produce an event.
type NotificationEvent struct {
	JobName         string    `json:"job_name"`
	JobLabel        string    `json:"job_label"`
	Status          RunStatus `json:"status"`
	Counters        Counters  `json:"counters"`
	DurationSeconds int64     `json:"duration_seconds"`
	Summary         string    `json:"summary"`
}
