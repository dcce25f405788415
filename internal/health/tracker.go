package health

import (
	"fmt"
	"sync"
	"time"
)

// RunReport summarises one reconcile run.
type RunReport struct {
	Finished time.Time `json:"finished"`
	Summary  string    `json:"summary"`
	Failed   int       `json:"failed"`
	Error    string    `json:"error,omitempty"`
}

// Tracker remembers the outcome of recent runs for the /ready endpoint.
//
// Not ready: no run has finished yet, or the last run aborted.
// Degraded: the last run had failed actions, or no clean run happened
// within the stale window.
type Tracker struct {
	staleAfter time.Duration
	now        func() time.Time

	mu          sync.RWMutex
	last        *RunReport
	lastSuccess time.Time
}

// NewTracker creates a tracker. A staleAfter of zero disables the
// staleness check.
func NewTracker(staleAfter time.Duration) *Tracker {
	return &Tracker{
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Observe records a finished run. err is the run's fatal error, if any.
func (t *Tracker) Observe(summary string, failed int, err error) {
	report := &RunReport{
		Finished: t.now(),
		Summary:  summary,
		Failed:   failed,
	}
	if err != nil {
		report.Error = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = report
	if err == nil && failed == 0 {
		t.lastSuccess = report.Finished
	}
}

// Status returns the readiness status, a message explaining it, and a
// copy of the last run report.
func (t *Tracker) Status() (string, string, *RunReport) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.last == nil {
		return StatusNotReady, "no run completed yet", nil
	}

	last := *t.last

	if last.Error != "" {
		return StatusNotReady, "last run aborted: " + last.Error, &last
	}

	if last.Failed > 0 {
		return StatusDegraded, fmt.Sprintf("%d action(s) failed in last run", last.Failed), &last
	}

	if t.staleAfter > 0 && t.now().Sub(t.lastSuccess) > t.staleAfter {
		return StatusDegraded, "no successful run since " + t.lastSuccess.Format(time.RFC3339), &last
	}

	return StatusReady, "", &last
}
