package orchestrator

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/ShayCichocki/goalie/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventStateChanged is emitted on every state transition.
	EventStateChanged EventType = "state_changed"
	// EventObjectiveReceived is emitted when a run starts.
	EventObjectiveReceived EventType = "objective_received"
	// EventPlanGenerated carries the planned tasks.
	EventPlanGenerated EventType = "plan_generated"
	// EventTaskStarted is emitted when a task is dequeued for execution.
	EventTaskStarted EventType = "task_started"
	// EventTaskExecuted carries the executor result before judgement.
	EventTaskExecuted EventType = "task_executed"
	// EventTaskCompleted is emitted when a task is logged as done.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed is emitted when execution returned an error.
	EventTaskFailed EventType = "task_failed"
	// EventTaskRejected is emitted when the task judge rejected a result.
	EventTaskRejected EventType = "task_rejected"
	// EventTaskRetried is emitted when a rewritten task is requeued.
	EventTaskRetried EventType = "task_retried"
	// EventTaskAbandoned is emitted when a task runs out of attempts.
	EventTaskAbandoned EventType = "task_abandoned"
	// EventObjectiveChecked carries the objective judge verdict.
	EventObjectiveChecked EventType = "objective_checked"
	// EventAnswerReady carries the synthesized answer.
	EventAnswerReady EventType = "answer_ready"
	// EventRunFailed is emitted when a run aborts.
	EventRunFailed EventType = "run_failed"
)

// Event is emitted by the orchestrator to observers such as the console
// narrator or the HTTP status endpoint.
type Event struct {
	Type  EventType
	RunID string
	// State is the state the orchestrator is in after the event.
	State State
	// Objective is set on objective, answer and failure events.
	Objective string
	// Task is the related task, if any.
	Task *models.Task
	// Tasks carries the plan for EventPlanGenerated.
	Tasks []models.Task
	// Message provides additional detail (results, answers, judge reasons).
	Message string
	// Error contains error details for failure events.
	Error error
	// Duration is how long the related collaborator call took.
	Duration  time.Duration
	Timestamp time.Time
}

// EventEmitter delivers events over a buffered channel. Events that cannot
// be delivered within a short grace period are dropped.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
	closed       atomic.Bool
}

// NewEventEmitter creates an emitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event, dropping it if the channel stays full.
func (e *EventEmitter) Emit(event Event) {
	if e.closed.Load() {
		return
	}

	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[orchestrator] warning: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the number of dropped events.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the receive side of the event channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the event channel. Emit must not be called concurrently with Close.
func (e *EventEmitter) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.events)
	}
}
