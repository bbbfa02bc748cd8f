package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a pipeline run
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PipelineRun summarizes one pass of the pipeline over all tracked products
type PipelineRun struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	Total       int        `json:"total"`
	Updated     int        `json:"updated"`
	Skipped     int        `json:"skipped"`
	Notified    int        `json:"notified"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewPipelineRun creates a queued run with a fresh ID
func NewPipelineRun() *PipelineRun {
	return &PipelineRun{
		ID:        "run_" + uuid.NewString(),
		Status:    RunStatusQueued,
		CreatedAt: time.Now(),
	}
}

// Start marks the run as processing
func (r *PipelineRun) Start() {
	r.Status = RunStatusRunning
	now := time.Now()
	r.StartedAt = &now
}

// Complete tallies the per-product results and marks the run as completed
func (r *PipelineRun) Complete(results []ProductResult) {
	r.Total = len(results)
	r.Updated, r.Skipped, r.Notified = 0, 0, 0
	for _, res := range results {
		if res.Skipped() {
			r.Skipped++
			continue
		}
		r.Updated++
		if !res.Notification.IsNone() && len(res.Deliveries) > 0 {
			r.Notified++
		}
	}
	r.Status = RunStatusCompleted
	now := time.Now()
	r.CompletedAt = &now
}

// Fail marks the run as failed
func (r *PipelineRun) Fail(err error) {
	r.Status = RunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	now := time.Now()
	r.CompletedAt = &now
}

// IsCompleted returns true if the run is in a final state
func (r *PipelineRun) IsCompleted() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// Duration returns the duration of the run
func (r *PipelineRun) Duration() time.Duration {
	if r.StartedAt == nil {
		return 0
	}

	endTime := time.Now()
	if r.CompletedAt != nil {
		endTime = *r.CompletedAt
	}

	return endTime.Sub(*r.StartedAt)
}
