package scheduler

import (
	"sync"
	"time"
)

// Debounce remembers when each job was last triggered, so a job cannot fire
// twice within one scheduling granularity even if ticks overlap a slow
// evaluation. Entries older than the window are simply ignored; the map
// holds at most one entry per job so no explicit eviction is needed.
type Debounce struct {
	mu     sync.Mutex
	window time.Duration
	last   map[int64]time.Time
}

func NewDebounce(window time.Duration) *Debounce {
	return &Debounce{
		window: window,
		last:   make(map[int64]time.Time),
	}
}

// Recently reports whether the job was triggered within the window.
func (d *Debounce) Recently(jobID int64, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.last[jobID]
	return ok && now.Sub(last) < d.window
}

// Record marks the job as triggered at now.
func (d *Debounce) Record(jobID int64, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last[jobID] = now
}
