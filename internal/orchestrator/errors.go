package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrInputAborted is returned by an ObjectiveSource when the human cancels.
	ErrInputAborted = errors.New("objective input aborted")
	// ErrGeneration indicates the planner produced unusable output.
	ErrGeneration = errors.New("plan generation failed")
	// ErrExecution indicates a task could not be executed. It is recoverable.
	ErrExecution = errors.New("task execution failed")
	// ErrJudge indicates a judge could not be invoked.
	ErrJudge = errors.New("judge invocation failed")
	// ErrRewriteUnchanged indicates the rewriter returned the original description.
	ErrRewriteUnchanged = errors.New("rewritten task matches original description")
	// ErrInvalidTransition indicates a transition not in the state table.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrBusy is returned when a run is started while another is in progress.
	ErrBusy = errors.New("orchestrator is already running")
	// ErrClosed is returned when the orchestrator has been closed.
	ErrClosed = errors.New("orchestrator closed")
	// ErrEmptyObjective is returned when Run is given a blank objective.
	ErrEmptyObjective = errors.New("objective is empty")
	// ErrNoSource is returned by RunOnce and Loop when no ObjectiveSource is set.
	ErrNoSource = errors.New("no objective source configured")
)

// RunError reports a fatal error that ended a run.
type RunError struct {
	// RunID identifies the aborted run.
	RunID string
	// Objective is the objective the run was pursuing.
	Objective string
	// State is the state the run was in when it failed.
	State State
	// Err is the underlying cause.
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s aborted in %s: %v", e.RunID, e.State, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
