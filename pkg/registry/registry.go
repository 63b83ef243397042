package registry

import (
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/syncdeck/core/pkg/logger"
)

// StopReason records why a stop was requested for a run. The runner's exit
// handler consults it directly instead of inferring intent from which OS
// signal terminated the process.
type StopReason string

const (
	// StopReasonUser marks a stop initiated from the dashboard.
	StopReasonUser StopReason = "user_requested"
	// StopReasonShutdown marks a stop issued during engine shutdown.
	StopReasonShutdown StopReason = "engine_shutdown"
)

// Process is the controllable surface of a live OS process. *os.Process
// satisfies it; tests substitute fakes.
type Process interface {
	Signal(sig os.Signal) error
	Kill() error
}

// Registry tracks the live process of every running run, keyed by run id.
// A handle is registered at launch and removed the moment the process
// exits, regardless of cause. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	procs   map[int64]Process
	reasons map[int64]StopReason

	grace time.Duration
	log   *logger.Logger
}

// New creates a registry. grace is how long a stopped process gets to exit
// after the graceful signal before a kill is sent.
func New(grace time.Duration, log *logger.Logger) *Registry {
	return &Registry{
		procs:   make(map[int64]Process),
		reasons: make(map[int64]StopReason),
		grace:   grace,
		log:     log,
	}
}

// Register records the live process for a run. Registering a run id that
// already has a handle is a bug in the caller; the existing handle wins and
// the attempt is logged, so a second process is never tracked for one run.
func (r *Registry) Register(runID int64, p Process) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.procs[runID]; exists {
		r.log.Error().
			Int64("run_id", runID).
			Str("action", "register_conflict").
			Msg("Run already has a registered process")
		return false
	}
	r.procs[runID] = p
	return true
}

// Unregister removes the handle for a run. Called by the runner's exit
// handler; a no-op when the run is not registered.
func (r *Registry) Unregister(runID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, runID)
}

// Stop sends the graceful termination signal to the run's process and arms
// a timer that kills it if it has not exited within the grace period. The
// reason is recorded for the exit handler before the signal is delivered.
//
// Stop returns false when no handle is registered: the process may have
// exited between the caller's status check and this call. The caller must
// then reconcile the run's status directly.
func (r *Registry) Stop(runID int64, reason StopReason) bool {
	r.mu.Lock()
	p, ok := r.procs[runID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.reasons[runID] = reason
	r.mu.Unlock()

	r.log.Info().
		Int64("run_id", runID).
		Str("action", "stop_requested").
		Str("reason", string(reason)).
		Msg("Sending termination signal")

	if err := p.Signal(syscall.SIGTERM); err != nil {
		// Process likely exited between lookup and signal; the exit
		// handler owns the terminal status either way.
		r.log.Warn().
			Err(err).
			Int64("run_id", runID).
			Str("action", "stop_signal_failed").
			Msg("Termination signal not delivered")
	}

	time.AfterFunc(r.grace, func() {
		r.mu.Lock()
		p, stillRunning := r.procs[runID]
		r.mu.Unlock()
		if !stillRunning {
			return
		}
		r.log.Warn().
			Int64("run_id", runID).
			Str("action", "stop_escalated").
			Dur("grace", r.grace).
			Msg("Process did not exit in time, killing")
		_ = p.Kill()
	})

	return true
}

// StopAll requests a stop for every registered run. Used at engine
// shutdown so child processes do not outlive the engine.
func (r *Registry) StopAll(reason StopReason) {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.procs))
	for runID := range r.procs {
		ids = append(ids, runID)
	}
	r.mu.Unlock()

	for _, runID := range ids {
		r.Stop(runID, reason)
	}
}

// TakeStopReason returns and clears the recorded stop reason for a run.
// The runner's exit handler calls this exactly once per run.
func (r *Registry) TakeStopReason(runID int64) (StopReason, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reason, ok := r.reasons[runID]
	if ok {
		delete(r.reasons, runID)
	}
	return reason, ok
}

// IsRunning reports whether a live process is registered for the run.
func (r *Registry) IsRunning(runID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.procs[runID]
	return ok
}

// Len returns the number of registered processes. The scheduler uses it as
// the in-flight count for the admission gate.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}
