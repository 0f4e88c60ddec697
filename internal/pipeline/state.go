// Package pipeline runs the Instagram-to-article sync: fetch the feed,
// diff it against stored posts, push new posts through the LLM agent, and
// persist the resulting articles.
package pipeline

import (
	"sync"
	"time"
)

// Status is the lifecycle state of the pipeline register.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunCounts summarizes one pipeline run.
type RunCounts struct {
	Fetched             int `json:"fetched"`
	Created             int `json:"created"`
	Deleted             int `json:"deleted"`
	SkippedExisting     int `json:"skipped_existing"`
	SkippedNotListing   int `json:"skipped_not_listing"`
	SkippedError        int `json:"skipped_error"`
	SkippedSlugConflict int `json:"skipped_slug_conflict"`
}

// RunState is the externally visible state of the pipeline.
type RunState struct {
	Status     Status     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Counts     RunCounts  `json:"counts"`
}

// register serializes run-state transitions. Only one run may be active
// at a time; the state of the last finished run is kept until the next
// one starts.
type register struct {
	mu    sync.Mutex
	state RunState
}

func newRegister() *register {
	return &register{state: RunState{Status: StatusIdle}}
}

// tryStart transitions to running unless a run is already active.
func (r *register) tryStart(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Status == StatusRunning {
		return false
	}
	r.state = RunState{Status: StatusRunning, StartedAt: &now}
	return true
}

// finish records the terminal state of the active run.
func (r *register) finish(counts RunCounts, runErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	r.state.FinishedAt = &now
	r.state.Counts = counts
	if runErr != nil {
		r.state.Status = StatusFailed
		r.state.Error = runErr.Error()
		return
	}
	r.state.Status = StatusCompleted
}

// snapshot returns a copy of the current state.
func (r *register) snapshot() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
