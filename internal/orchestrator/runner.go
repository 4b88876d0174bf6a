package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// RunnerState is the state of the task execution actor.
type RunnerState int32

const (
	// RunnerIdle means the runner is waiting for a TaskMessage.
	RunnerIdle RunnerState = iota
	// RunnerRunning means the runner is executing a task.
	RunnerRunning
)

func (s RunnerState) String() string {
	if s == RunnerRunning {
		return "running"
	}
	return "idle"
}

// TaskMessage assigns one task to the runner.
type TaskMessage struct {
	// Seq correlates the message with its TaskComplete reply.
	Seq uint64
	// Ctx bounds the execution. The runner passes it to the executor.
	Ctx     context.Context
	Request ExecutionRequest
}

// TaskComplete reports the outcome of a TaskMessage to the owner.
type TaskComplete struct {
	Seq      uint64
	TaskID   string
	Result   string
	Err      error
	Duration time.Duration
}

// TaskRunner is an independently scheduled actor that executes one task at a
// time. It receives work on its mailbox and replies on the owner's inbox; it
// shares no state with its owner.
type TaskRunner struct {
	executor TaskExecutor
	mailbox  chan TaskMessage
	owner    chan<- TaskComplete
	state    atomic.Int32

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewTaskRunner creates a runner that reports to owner. Call Start to spawn it.
func NewTaskRunner(executor TaskExecutor, owner chan<- TaskComplete) *TaskRunner {
	return &TaskRunner{
		executor: executor,
		mailbox:  make(chan TaskMessage, 1),
		owner:    owner,
		done:     make(chan struct{}),
	}
}

// Start spawns the runner goroutine. Further calls are no-ops.
func (r *TaskRunner) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.loop()
	})
}

// Send delivers a task to the runner's mailbox. It blocks only while the
// mailbox is full, and gives up when msg.Ctx is done or the runner stops.
func (r *TaskRunner) Send(msg TaskMessage) error {
	ctx := msg.Ctx
	if ctx == nil {
		ctx = context.Background()
		msg.Ctx = ctx
	}

	select {
	case <-r.done:
		return ErrClosed
	default:
	}

	select {
	case r.mailbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrClosed
	}
}

// State returns the current runner state.
func (r *TaskRunner) State() RunnerState {
	return RunnerState(r.state.Load())
}

// Stop terminates the runner and waits for the goroutine to exit.
// An in-flight execution is abandoned once its context is canceled by the owner.
func (r *TaskRunner) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
}

func (r *TaskRunner) loop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.done:
			return
		case msg := <-r.mailbox:
			r.state.Store(int32(RunnerRunning))
			reply := r.run(msg)
			r.state.Store(int32(RunnerIdle))

			select {
			case r.owner <- reply:
			case <-r.done:
				return
			}
		}
	}
}

func (r *TaskRunner) run(msg TaskMessage) (reply TaskComplete) {
	start := time.Now()
	reply = TaskComplete{Seq: msg.Seq, TaskID: msg.Request.Task.ID}

	defer func() {
		if p := recover(); p != nil {
			reply.Err = fmt.Errorf("%w: executor panic: %v", ErrExecution, p)
		}
		reply.Duration = time.Since(start)
	}()

	reply.Result, reply.Err = r.executor.Execute(msg.Ctx, msg.Request)
	return reply
}
