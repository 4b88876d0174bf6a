package models

import "time"

// RunStatus describes how a run ended.
type RunStatus string

const (
	// RunStatusActive indicates the run is still in progress.
	RunStatusActive RunStatus = "active"
	// RunStatusCompleted indicates an answer was synthesized.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed indicates the run hit a fatal error.
	RunStatusFailed RunStatus = "failed"
	// RunStatusCanceled indicates the run was canceled by the operator.
	RunStatusCanceled RunStatus = "canceled"
)

// Valid returns true if the status is a known value.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusActive, RunStatusCompleted, RunStatusFailed, RunStatusCanceled:
		return true
	default:
		return false
	}
}

// Run is the persisted summary of one objective-to-answer cycle.
type Run struct {
	ID         string     `json:"id" yaml:"id"`
	Objective  string     `json:"objective" yaml:"objective"`
	Status     RunStatus  `json:"status" yaml:"status"`
	Answer     string     `json:"answer,omitempty" yaml:"answer,omitempty"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
	Completed  []Task     `json:"completed" yaml:"completed"`
	Abandoned  []Task     `json:"abandoned,omitempty" yaml:"abandoned,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
