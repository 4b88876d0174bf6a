// Package agent implements the task-executor agent: a tool-using model loop
// that turns one task description into a result.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ShayCichocki/goalie/internal/api"
	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

// Runner runs one system/user prompt pair to completion. *api.AgentLoop
// satisfies it.
type Runner interface {
	Run(ctx context.Context, systemPrompt, userPrompt string) (*api.LoopResult, error)
}

// Executor executes tasks with a Runner. It implements orchestrator.TaskExecutor.
type Executor struct {
	runner Runner
	tools  *api.Toolbox
}

// NewExecutor creates an executor. tools is only used to describe the
// available actions in the prompt; the runner owns execution.
func NewExecutor(runner Runner, tools *api.Toolbox) *Executor {
	return &Executor{runner: runner, tools: tools}
}

// Execute runs one task. Step budget exhaustion, API failures and empty
// answers are reported as orchestrator.ErrExecution so the task is retried.
func (e *Executor) Execute(ctx context.Context, req orchestrator.ExecutionRequest) (string, error) {
	system := BuildSystemPrompt(req.Context, e.tools)
	user := BuildTaskPrompt(req.Objective, req.Task.Description)

	result, err := e.runner.Run(ctx, system, user)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, api.ErrMaxIterations) {
			return "", fmt.Errorf("%w: task %s exceeded its step budget", orchestrator.ErrExecution, req.Task.ID)
		}
		return "", fmt.Errorf("%w: task %s: %w", orchestrator.ErrExecution, req.Task.ID, err)
	}

	answer := FinalAnswer(result.Output)
	if answer == "" {
		return "", fmt.Errorf("%w: task %s produced no result", orchestrator.ErrExecution, req.Task.ID)
	}

	log.Printf("[agent] task %s finished in %d steps (%d tool calls)", req.Task.ID, result.Iterations, result.ToolCalls)
	return answer, nil
}

// FinalAnswer extracts the text after the last "Final Answer:" marker, or the
// whole trimmed output when the model omitted it.
func FinalAnswer(output string) string {
	const marker = "Final Answer:"
	if i := strings.LastIndex(output, marker); i >= 0 {
		return strings.TrimSpace(output[i+len(marker):])
	}
	return strings.TrimSpace(output)
}
