package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ShayCichocki/goalie/pkg/models"
)

// Outcome is the result of a run that reached PlanComplete.
type Outcome struct {
	RunID      string
	Objective  string
	Answer     string
	Completed  []models.Task
	Abandoned  []models.Task
	Status     models.RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run converts the outcome into its persisted form.
func (o *Outcome) Run() *models.Run {
	finished := o.FinishedAt
	return &models.Run{
		ID:         o.RunID,
		Objective:  o.Objective,
		Status:     o.Status,
		Answer:     o.Answer,
		Completed:  o.Completed,
		Abandoned:  o.Abandoned,
		StartedAt:  o.StartedAt,
		FinishedAt: &finished,
	}
}

// Orchestrator runs the goal-pursuit state machine. It owns the run context
// and is its only writer. One run may be active at a time.
type Orchestrator struct {
	cfg       RequiredConfig
	opts      orchestratorOptions
	configErr error

	rc    *runContext
	state atomic.Value // State

	runner *TaskRunner
	inbox  chan TaskComplete
	seq    uint64

	emitter *EventEmitter
	running atomic.Bool
	closed  atomic.Bool
}

// New creates an orchestrator and spawns its TaskRunner.
// Missing collaborators are reported by the first Run.
func New(cfg RequiredConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:  cfg,
		opts: defaultOptions(),
		rc:   newRunContext(),
	}
	for _, opt := range opts {
		opt(&o.opts)
	}

	o.configErr = cfg.validate()
	o.state.Store(StateAwaitingObjective)
	o.emitter = NewEventEmitter(o.opts.eventBuffer)
	o.inbox = make(chan TaskComplete, 1)

	executor := cfg.Executor
	if executor == nil {
		executor = TaskExecutorFunc(func(context.Context, ExecutionRequest) (string, error) {
			return "", fmt.Errorf("%w: no executor configured", ErrExecution)
		})
	}
	o.runner = NewTaskRunner(executor, o.inbox)
	o.runner.Start()

	return o
}

func (c RequiredConfig) validate() error {
	var missing []string
	if c.Planner == nil {
		missing = append(missing, "planner")
	}
	if c.Executor == nil {
		missing = append(missing, "executor")
	}
	if c.TaskJudge == nil {
		missing = append(missing, "task judge")
	}
	if c.ObjectiveJudge == nil {
		missing = append(missing, "objective judge")
	}
	if c.Rewriter == nil {
		missing = append(missing, "rewriter")
	}
	if c.Synthesizer == nil {
		missing = append(missing, "synthesizer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("orchestrator missing collaborators: %s", strings.Join(missing, ", "))
	}
	return nil
}

// State returns the current state. Safe to call from any goroutine.
func (o *Orchestrator) State() State {
	return o.state.Load().(State)
}

// Snapshot returns a copy of the run context. It is only consistent when
// called from a transition hook or while no run is active.
func (o *Orchestrator) Snapshot() Snapshot {
	return o.rc.snapshot()
}

// Events returns the event channel. It is closed by Close.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// DroppedEvents returns how many events were dropped because nobody read them.
func (o *Orchestrator) DroppedEvents() uint64 {
	return o.emitter.DroppedCount()
}

// Close stops the TaskRunner and closes the event channel.
// It must not be called while a run is active.
func (o *Orchestrator) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}
	o.runner.Stop()
	o.emitter.Close()
	return nil
}

func (o *Orchestrator) acquire() error {
	if o.closed.Load() {
		return ErrClosed
	}
	if o.configErr != nil {
		return o.configErr
	}
	if !o.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// Run executes one run for the given objective, starting in Planning.
// Fatal errors are returned as *RunError and leave the orchestrator back in
// AwaitingObjective with an empty run context.
func (o *Orchestrator) Run(ctx context.Context, objective string) (*Outcome, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, ErrEmptyObjective
	}
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.running.Store(false)

	return o.run(ctx, objective)
}

// RunOnce reads an objective from the configured source and runs it.
// Blank objectives are skipped.
func (o *Orchestrator) RunOnce(ctx context.Context) (*Outcome, error) {
	if o.opts.source == nil {
		return nil, ErrNoSource
	}
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.running.Store(false)

	objective, err := o.awaitObjective(ctx)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, objective)
}

// Loop runs objectives from the source until the source aborts or ctx is
// canceled. Failed runs are logged and the loop continues.
func (o *Orchestrator) Loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		_, err := o.RunOnce(ctx)
		if err == nil {
			continue
		}

		if errors.Is(err, ErrInputAborted) || ctx.Err() != nil {
			return nil
		}

		var runErr *RunError
		if errors.As(err, &runErr) {
			log.Printf("[orchestrator] warning: %v", runErr)
			continue
		}
		return err
	}
}

func (o *Orchestrator) awaitObjective(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		callCtx, cancel := withTimeout(ctx, o.opts.timeouts.Objective)
		objective, err := o.opts.source.NextObjective(callCtx)
		cancel()
		if err != nil {
			return "", fmt.Errorf("await objective: %w", err)
		}

		objective = strings.TrimSpace(objective)
		if objective != "" {
			return objective, nil
		}
		o.opts.logger.Log("[orchestrator] ignoring blank objective")
	}
}

func (o *Orchestrator) run(ctx context.Context, objective string) (*Outcome, error) {
	rc := o.rc
	rc.runID = o.opts.newRunID()
	rc.objective = objective
	rc.startedAt = o.opts.now()

	o.opts.logger.Log("[run %s] objective: %s", rc.runID, objective)
	o.emit(Event{Type: EventObjectiveReceived})

	if err := o.transition(StateAwaitingObjective, StatePlanning); err != nil {
		return nil, o.abort(ctx, StateAwaitingObjective, err)
	}

	for {
		state := o.State()
		if err := ctx.Err(); err != nil {
			return nil, o.abort(ctx, state, err)
		}

		var next State
		var err error
		switch state {
		case StatePlanning:
			next, err = o.planning(ctx)
		case StateExecutingPlan:
			next, err = o.executingPlan(ctx)
		case StateEvaluatingTask:
			next, err = o.evaluatingTask(ctx)
		case StateEvaluatingObjective:
			next, err = o.evaluatingObjective(ctx)
		case StateTaskFailed:
			next, err = o.taskFailed(ctx)
		case StatePlanComplete:
			return o.planComplete(ctx)
		default:
			err = fmt.Errorf("%w: unexpected state %s", ErrInvalidTransition, state)
		}
		if err != nil {
			return nil, o.abort(ctx, state, err)
		}

		if err := o.transition(state, next); err != nil {
			return nil, o.abort(ctx, state, err)
		}
	}
}

func (o *Orchestrator) planning(ctx context.Context) (State, error) {
	rc := o.rc

	var tasks []models.Task
	var err error
	for attempt := 1; attempt <= o.opts.planAttempts; attempt++ {
		start := time.Now()
		callCtx, cancel := withTimeout(ctx, o.opts.timeouts.Plan)
		tasks, err = o.cfg.Planner.Plan(callCtx, rc.objective)
		cancel()
		if err == nil {
			err = checkUniqueIDs(tasks)
		}
		if err == nil {
			o.opts.logger.Log("[run %s] planned %d tasks in %s", rc.runID, len(tasks), time.Since(start))
			break
		}

		o.opts.logger.Log("[run %s] plan attempt %d/%d failed: %v", rc.runID, attempt, o.opts.planAttempts, err)
		if !errors.Is(err, ErrGeneration) || ctx.Err() != nil {
			return "", fmt.Errorf("plan: %w", err)
		}
	}
	if err != nil {
		return "", fmt.Errorf("plan after %d attempts: %w", o.opts.planAttempts, err)
	}

	for _, task := range tasks {
		task.Status = models.TaskStatusPending
		task.Attempts = 0
		rc.pending.PushBack(task)
	}

	o.emit(Event{Type: EventPlanGenerated, Tasks: rc.pending.Items()})
	return StateExecutingPlan, nil
}

func checkUniqueIDs(tasks []models.Task) error {
	seen := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		if _, dup := seen[task.ID]; dup {
			return fmt.Errorf("%w: duplicate task id %q", ErrGeneration, task.ID)
		}
		seen[task.ID] = struct{}{}
	}
	return nil
}

func (o *Orchestrator) executingPlan(ctx context.Context) (State, error) {
	rc := o.rc

	task, ok := rc.pending.PopFront()
	if !ok {
		o.opts.logger.Log("[run %s] no pending tasks, completing plan", rc.runID)
		return StatePlanComplete, nil
	}

	task.Status = models.TaskStatusInProgress
	task.Attempts++
	rc.current = &task

	snapshot := task
	o.emit(Event{Type: EventTaskStarted, Task: &snapshot})
	o.opts.logger.Log("[run %s] executing task %s (attempt %d): %s", rc.runID, task.ID, task.Attempts, task.Description)

	result, duration, err := o.dispatch(ctx, task)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("execute task %s: %w", task.ID, ctxErr)
		}
		if !isRecoverableExecution(err) {
			return "", fmt.Errorf("execute task %s: %w", task.ID, err)
		}

		rc.current.Result = ""
		rc.current.HasResult = false
		rc.current.LastError = err.Error()

		failed := *rc.current
		o.emit(Event{Type: EventTaskFailed, Task: &failed, Error: err, Duration: duration})
		o.opts.logger.Log("[run %s] task %s failed: %v", rc.runID, task.ID, err)
		return StateTaskFailed, nil
	}

	executed := rc.current.WithResult(result)
	rc.current = &executed

	o.emit(Event{Type: EventTaskExecuted, Task: &executed, Message: result, Duration: duration})
	return StateEvaluatingTask, nil
}

// isRecoverableExecution reports whether an executor error should route the
// task to TaskFailed rather than abort the run.
func isRecoverableExecution(err error) bool {
	return errors.Is(err, ErrExecution) || errors.Is(err, context.DeadlineExceeded)
}

// dispatch sends the task to the TaskRunner and waits for its TaskComplete.
// Completions carrying an older sequence number are discarded.
func (o *Orchestrator) dispatch(ctx context.Context, task models.Task) (string, time.Duration, error) {
	o.seq++
	seq := o.seq

	callCtx, cancel := withTimeout(ctx, o.opts.timeouts.Execute)
	defer cancel()

	msg := TaskMessage{
		Seq: seq,
		Ctx: callCtx,
		Request: ExecutionRequest{
			Task:      task,
			Objective: o.rc.objective,
			Context:   o.rc.priorResults(),
		},
	}
	if err := o.runner.Send(msg); err != nil {
		return "", 0, err
	}

	for {
		select {
		case reply := <-o.inbox:
			if reply.Seq != seq {
				o.opts.logger.Log("[run %s] discarding stale completion seq=%d task=%s", o.rc.runID, reply.Seq, reply.TaskID)
				continue
			}
			return reply.Result, reply.Duration, reply.Err

		case <-callCtx.Done():
			if err := ctx.Err(); err != nil {
				return "", 0, err
			}
			return "", o.opts.timeouts.Execute, fmt.Errorf("%w: timed out after %s", ErrExecution, o.opts.timeouts.Execute)
		}
	}
}

func (o *Orchestrator) evaluatingTask(ctx context.Context) (State, error) {
	rc := o.rc
	task := *rc.current

	start := time.Now()
	callCtx, cancel := withTimeout(ctx, o.opts.timeouts.Judge)
	judgement := o.cfg.TaskJudge.JudgeTask(callCtx, rc.objective, rc.priorResults(), task)
	cancel()
	o.opts.logger.Log("[run %s] task %s judged %s in %s: %s", rc.runID, task.ID, judgement.Verdict, time.Since(start), judgement.Reason)

	switch judgement.Verdict {
	case VerdictSuccess:
		now := o.opts.now()
		task.Status = models.TaskStatusDone
		task.LastError = ""
		task.CompletedAt = &now
		rc.completed.Append(task)
		rc.current = nil

		o.emit(Event{Type: EventTaskCompleted, Task: &task, Message: judgement.Reason})
		if rc.pending.IsEmpty() {
			return StatePlanComplete, nil
		}
		return StateEvaluatingObjective, nil

	case VerdictRetryable:
		rc.current.LastError = judgement.Reason
		rejected := *rc.current
		o.emit(Event{Type: EventTaskRejected, Task: &rejected, Message: judgement.Reason})
		return StateTaskFailed, nil

	default:
		return "", judgeError("task judge", judgement)
	}
}

func (o *Orchestrator) evaluatingObjective(ctx context.Context) (State, error) {
	rc := o.rc

	callCtx, cancel := withTimeout(ctx, o.opts.timeouts.Judge)
	judgement := o.cfg.ObjectiveJudge.JudgeObjective(callCtx, rc.objective, rc.priorResults())
	cancel()
	o.opts.logger.Log("[run %s] objective judged %s: %s", rc.runID, judgement.Verdict, judgement.Reason)

	switch judgement.Verdict {
	case VerdictSuccess:
		o.emit(Event{Type: EventObjectiveChecked, Message: "complete"})
		return StatePlanComplete, nil

	case VerdictRetryable:
		o.emit(Event{Type: EventObjectiveChecked, Message: "incomplete"})
		if rc.pending.IsEmpty() {
			// Nothing left to try; finish with what we have.
			o.opts.logger.Log("[run %s] objective incomplete with empty queue, completing plan", rc.runID)
			return StatePlanComplete, nil
		}
		return StateExecutingPlan, nil

	default:
		return "", judgeError("objective judge", judgement)
	}
}

func judgeError(name string, j Judgement) error {
	switch {
	case j.Err == nil && j.Verdict != VerdictFatal:
		return fmt.Errorf("%w: %s returned unknown verdict %d", ErrJudge, name, int(j.Verdict))
	case j.Err == nil:
		return fmt.Errorf("%w: %s: %s", ErrJudge, name, j.Reason)
	case errors.Is(j.Err, ErrJudge):
		return fmt.Errorf("%s: %w", name, j.Err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrJudge, name, j.Err)
	}
}

func (o *Orchestrator) taskFailed(ctx context.Context) (State, error) {
	rc := o.rc
	task := *rc.current

	if task.Attempts >= o.opts.maxAttempts {
		now := o.opts.now()
		task.Status = models.TaskStatusAbandoned
		task.CompletedAt = &now
		rc.abandoned.Append(task)
		rc.current = nil

		o.emit(Event{Type: EventTaskAbandoned, Task: &task, Message: task.LastError})
		log.Printf("[orchestrator] warning: abandoning task %s after %d attempts: %s", task.ID, task.Attempts, task.LastError)

		if rc.pending.IsEmpty() {
			return StatePlanComplete, nil
		}
		return StateExecutingPlan, nil
	}

	callCtx, cancel := withTimeout(ctx, o.opts.timeouts.Rewrite)
	revised, err := o.cfg.Rewriter.Rewrite(callCtx, rc.objective, task)
	cancel()
	if err != nil {
		return "", fmt.Errorf("rewrite task %s: %w", task.ID, err)
	}

	revised = strings.TrimSpace(revised)
	if revised == "" || revised == strings.TrimSpace(task.Description) {
		return "", fmt.Errorf("rewrite task %s: %w", task.ID, ErrRewriteUnchanged)
	}

	o.opts.logger.Log("[run %s] task %s rewritten: %q -> %q", rc.runID, task.ID, task.Description, revised)
	task.Description = revised
	task.Result = ""
	task.HasResult = false
	task.Status = models.TaskStatusPending
	rc.pending.PushFront(task)
	rc.current = nil

	o.emit(Event{Type: EventTaskRetried, Task: &task, Message: revised})
	return StateExecutingPlan, nil
}

func (o *Orchestrator) planComplete(ctx context.Context) (*Outcome, error) {
	rc := o.rc

	callCtx, cancel := withTimeout(ctx, o.opts.timeouts.Synthesize)
	answer, err := o.cfg.Synthesizer.Synthesize(callCtx, rc.objective, rc.priorResults())
	cancel()
	if err != nil {
		return nil, o.abort(ctx, StatePlanComplete, fmt.Errorf("synthesize answer: %w", err))
	}

	outcome := &Outcome{
		RunID:      rc.runID,
		Objective:  rc.objective,
		Answer:     answer,
		Completed:  rc.completed.Items(),
		Abandoned:  rc.abandoned.Items(),
		Status:     models.RunStatusCompleted,
		StartedAt:  rc.startedAt,
		FinishedAt: o.opts.now(),
	}

	o.emit(Event{Type: EventAnswerReady, Message: answer})
	o.record(ctx, outcome.Run())

	rc.reset()
	o.setState(StatePlanComplete, StateAwaitingObjective, outcome.RunID, false)
	o.opts.logger.Log("[run %s] complete: %d done, %d abandoned", outcome.RunID, len(outcome.Completed), len(outcome.Abandoned))
	return outcome, nil
}

// abort ends the run with a fatal error, records it, and resets the run
// context so the next objective starts clean.
func (o *Orchestrator) abort(ctx context.Context, state State, err error) error {
	rc := o.rc
	runErr := &RunError{RunID: rc.runID, Objective: rc.objective, State: state, Err: err}

	status := models.RunStatusFailed
	if errors.Is(err, context.Canceled) {
		status = models.RunStatusCanceled
	}

	finished := o.opts.now()
	run := &models.Run{
		ID:         rc.runID,
		Objective:  rc.objective,
		Status:     status,
		Error:      err.Error(),
		Completed:  rc.completed.Items(),
		Abandoned:  rc.abandoned.Items(),
		StartedAt:  rc.startedAt,
		FinishedAt: &finished,
	}

	o.emit(Event{Type: EventRunFailed, Error: runErr})
	o.opts.logger.Log("[run %s] aborted in %s: %v", rc.runID, state, err)
	o.record(ctx, run)

	runID := rc.runID
	rc.reset()
	o.setState(state, StateAwaitingObjective, runID, true)
	return runErr
}

func (o *Orchestrator) record(ctx context.Context, run *models.Run) {
	if o.opts.recorder == nil {
		return
	}
	if err := o.opts.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		log.Printf("[orchestrator] warning: failed to record run %s: %v", run.ID, err)
	}
}

func (o *Orchestrator) transition(from, to State) error {
	if err := validateTransition(from, to); err != nil {
		return err
	}
	o.setState(from, to, o.rc.runID, false)
	return nil
}

func (o *Orchestrator) setState(from, to State, runID string, aborted bool) {
	o.state.Store(to)
	o.opts.logger.Log("[run %s] %s -> %s", runID, from, to)
	o.emitFor(runID, Event{Type: EventStateChanged, Message: string(from)})

	if o.opts.hook != nil {
		o.opts.hook(Transition{
			RunID:    runID,
			From:     from,
			To:       to,
			Aborted:  aborted,
			At:       o.opts.now(),
			Snapshot: o.rc.snapshot(),
		})
	}
}

func (o *Orchestrator) emit(event Event) {
	o.emitFor(o.rc.runID, event)
}

func (o *Orchestrator) emitFor(runID string, event Event) {
	event.RunID = runID
	event.State = o.State()
	if event.Objective == "" {
		event.Objective = o.rc.objective
	}
	event.Timestamp = time.Now()
	o.emitter.Emit(event)
}
