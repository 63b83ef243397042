package models

// SyncKind determines which sync-tool subcommand a job maps to
type SyncKind string

const (
	// SyncKindCopy copies new/changed files to the destination, never deletes
	SyncKindCopy SyncKind = "copy"
	// SyncKindMirror makes the destination identical to the source, deleting extras
	SyncKindMirror SyncKind = "mirror"
	// SyncKindVerify compares source against destination without transferring
	SyncKindVerify SyncKind = "verify"
)

// Job represents a configured synchronization job. Jobs are immutable during
// a run; all mutation happens through the store, never in the engine.
type Job struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Kind        SyncKind `json:"kind"`
	Enabled     bool     `json:"enabled"`
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	// Schedule is the raw schedule string as stored by the dashboard,
	// e.g. "daily 02:00", "every 6h", "weekly mon 05:00".
	// It is parsed on every evaluation, never persisted as a variant.
	Schedule string `json:"schedule"`
	// ExtraArgs holds additional sync-tool arguments, either as a
	// space-separated string or a JSON string array. Both forms are accepted.
	ExtraArgs   string `json:"extra_args"`
	Description string `json:"description"`
}

// Configured reports whether the job has both endpoints set.
// Jobs without a source or destination are never triggered.
func (j *Job) Configured() bool {
	return j.Source != "" && j.Destination != ""
}
