package api

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ActiveRunResponse represents a running sync in API responses
type ActiveRunResponse struct {
	RunID      int64     `json:"run_id"`
	JobID      int64     `json:"job_id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	BytesDone  int64     `json:"bytes_done"`
	BytesTotal int64     `json:"bytes_total"`
	Files      int64     `json:"files"`
	Errors     int64     `json:"errors"`
	Summary    string    `json:"summary"`
}

// CancelResponse acknowledges a cancellation request
type CancelResponse struct {
	RunID     int64  `json:"run_id"`
	Requested bool   `json:"requested"`
	Message   string `json:"message,omitempty"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error string `json:"error"`
}
