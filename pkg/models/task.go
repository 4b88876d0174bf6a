// Package models holds the data types shared across goalie packages.
package models

import (
	"fmt"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task is waiting in the queue.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is the current task.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone indicates the task was judged successful.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusAbandoned indicates the task ran out of attempts.
	TaskStatusAbandoned TaskStatus = "abandoned"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusAbandoned:
		return true
	default:
		return false
	}
}

// Task is one atomic unit of work in a plan.
type Task struct {
	// ID is the ordinal label assigned by the planner ("1", "2", ...).
	ID string `json:"id" yaml:"id"`
	// Description is what the task should accomplish. Rewritten on retry.
	Description string `json:"description" yaml:"description"`
	// Result is the executor output. Empty until the task has run once.
	Result string `json:"result,omitempty" yaml:"result,omitempty"`
	// HasResult distinguishes an empty result from no result.
	HasResult bool `json:"has_result,omitempty" yaml:"-"`
	// Attempts counts executions of this task, including the current one.
	Attempts int `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	// Status is the lifecycle state of the task.
	Status TaskStatus `json:"status" yaml:"status"`
	// LastError holds the most recent execution or judgement failure.
	LastError string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	// CompletedAt is when the task was recorded as done or abandoned.
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NewTask creates a pending task.
func NewTask(id, description string) Task {
	return Task{
		ID:          id,
		Description: description,
		Status:      TaskStatusPending,
	}
}

// WithResult returns a copy of the task carrying the given result.
func (t Task) WithResult(result string) Task {
	t.Result = result
	t.HasResult = true
	return t
}

// ContextLine renders the task the way it appears in the completed-task context.
func (t Task) ContextLine() string {
	return fmt.Sprintf("%s. %s, result: %s", t.ID, t.Description, t.Result)
}
