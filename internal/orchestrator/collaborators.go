package orchestrator

import (
	"context"

	"github.com/ShayCichocki/goalie/pkg/models"
)

// ObjectiveSource supplies one objective per run.
// Implementations return an error wrapping ErrInputAborted when the human cancels.
type ObjectiveSource interface {
	NextObjective(ctx context.Context) (string, error)
}

// Planner decomposes an objective into an ordered list of tasks.
// Unparseable output is reported as an error wrapping ErrGeneration.
type Planner interface {
	Plan(ctx context.Context, objective string) ([]models.Task, error)
}

// ExecutionRequest is everything the executor gets to see about a task.
type ExecutionRequest struct {
	Task      models.Task
	Objective string
	// Context is the rendered completed-task log.
	Context string
}

// TaskExecutor turns a task description into a result.
type TaskExecutor interface {
	Execute(ctx context.Context, req ExecutionRequest) (string, error)
}

// Verdict is the outcome class of a judge call.
type Verdict int

const (
	// VerdictSuccess means the task succeeded, or the objective is complete.
	VerdictSuccess Verdict = iota
	// VerdictRetryable means the task was rejected, or the objective is incomplete.
	VerdictRetryable
	// VerdictFatal means the judge itself failed and the run must stop.
	VerdictFatal
)

func (v Verdict) String() string {
	switch v {
	case VerdictSuccess:
		return "success"
	case VerdictRetryable:
		return "retryable"
	case VerdictFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Judgement is returned by every judge call.
type Judgement struct {
	Verdict Verdict
	// Reason is a short human readable explanation, possibly empty.
	Reason string
	// Err is set for VerdictFatal.
	Err error
}

// Succeeded builds a success judgement.
func Succeeded(reason string) Judgement {
	return Judgement{Verdict: VerdictSuccess, Reason: reason}
}

// Rejected builds a retryable judgement.
func Rejected(reason string) Judgement {
	return Judgement{Verdict: VerdictRetryable, Reason: reason}
}

// Failed builds a fatal judgement.
func Failed(err error) Judgement {
	return Judgement{Verdict: VerdictFatal, Err: err}
}

// TaskJudge decides whether an executed task accomplished what it set out to do.
type TaskJudge interface {
	JudgeTask(ctx context.Context, objective, priorResults string, task models.Task) Judgement
}

// ObjectiveJudge decides whether the objective as a whole is satisfied.
type ObjectiveJudge interface {
	JudgeObjective(ctx context.Context, objective, priorResults string) Judgement
}

// Rewriter revises a failed task so that it may succeed.
// The returned description must differ from the original.
type Rewriter interface {
	Rewrite(ctx context.Context, objective string, task models.Task) (string, error)
}

// Synthesizer produces the final answer from the completed-task context.
type Synthesizer interface {
	Synthesize(ctx context.Context, objective, priorResults string) (string, error)
}

// Recorder persists the summary of a finished run.
type Recorder interface {
	RecordRun(ctx context.Context, run *models.Run) error
}

// ObjectiveSourceFunc adapts a function to ObjectiveSource.
type ObjectiveSourceFunc func(ctx context.Context) (string, error)

func (f ObjectiveSourceFunc) NextObjective(ctx context.Context) (string, error) { return f(ctx) }

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx context.Context, objective string) ([]models.Task, error)

func (f PlannerFunc) Plan(ctx context.Context, objective string) ([]models.Task, error) {
	return f(ctx, objective)
}

// TaskExecutorFunc adapts a function to TaskExecutor.
type TaskExecutorFunc func(ctx context.Context, req ExecutionRequest) (string, error)

func (f TaskExecutorFunc) Execute(ctx context.Context, req ExecutionRequest) (string, error) {
	return f(ctx, req)
}

// TaskJudgeFunc adapts a function to TaskJudge.
type TaskJudgeFunc func(ctx context.Context, objective, priorResults string, task models.Task) Judgement

func (f TaskJudgeFunc) JudgeTask(ctx context.Context, objective, priorResults string, task models.Task) Judgement {
	return f(ctx, objective, priorResults, task)
}

// ObjectiveJudgeFunc adapts a function to ObjectiveJudge.
type ObjectiveJudgeFunc func(ctx context.Context, objective, priorResults string) Judgement

func (f ObjectiveJudgeFunc) JudgeObjective(ctx context.Context, objective, priorResults string) Judgement {
	return f(ctx, objective, priorResults)
}

// RewriterFunc adapts a function to Rewriter.
type RewriterFunc func(ctx context.Context, objective string, task models.Task) (string, error)

func (f RewriterFunc) Rewrite(ctx context.Context, objective string, task models.Task) (string, error) {
	return f(ctx, objective, task)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, objective, priorResults string) (string, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, objective, priorResults string) (string, error) {
	return f(ctx, objective, priorResults)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, run *models.Run) error

func (f RecorderFunc) RecordRun(ctx context.Context, run *models.Run) error { return f(ctx, run) }
