package orchestrator

import (
	"fmt"
	"time"
)

// State is a state of the orchestrator state machine.
type State string

const (
	StateAwaitingObjective   State = "awaiting_objective"
	StatePlanning            State = "planning"
	StateExecutingPlan       State = "executing_plan"
	StateEvaluatingTask      State = "evaluating_task"
	StateEvaluatingObjective State = "evaluating_objective"
	StateTaskFailed          State = "task_failed"
	StatePlanComplete        State = "plan_complete"
)

// allowedTransitions lists every legal edge. Aborting a run is handled
// separately and always lands in StateAwaitingObjective.
var allowedTransitions = map[State]map[State]struct{}{
	StateAwaitingObjective: {
		StatePlanning: {},
	},
	StatePlanning: {
		StateExecutingPlan: {},
	},
	StateExecutingPlan: {
		StateEvaluatingTask: {},
		StateTaskFailed:     {},
		StatePlanComplete:   {},
	},
	StateEvaluatingTask: {
		StateEvaluatingObjective: {},
		StatePlanComplete:        {},
		StateTaskFailed:          {},
	},
	StateEvaluatingObjective: {
		StateExecutingPlan: {},
		StatePlanComplete:  {},
	},
	StateTaskFailed: {
		StateExecutingPlan: {},
		StatePlanComplete:  {},
	},
	StatePlanComplete: {
		StateAwaitingObjective: {},
	},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

func validateTransition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Transition describes one state change. It is passed to the transition hook
// on the orchestrator goroutine.
type Transition struct {
	RunID string
	From  State
	To    State
	// Aborted is set when the run ended with a fatal error.
	Aborted bool
	At      time.Time
	// Snapshot is the run context after the transition was applied.
	Snapshot Snapshot
}
