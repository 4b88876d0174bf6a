package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/goalie/internal/orchestrator"
	"github.com/ShayCichocki/goalie/internal/plan"
	"github.com/ShayCichocki/goalie/pkg/models"
)

// Completer makes a single tool-free model call. *api.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// Collaborators bundles the model-backed planner, judges, rewriter and
// synthesizer. A single value satisfies every corresponding orchestrator
// interface.
type Collaborators struct {
	completer Completer
	prompts   Prompts
	tools     string
}

// New creates the collaborators. tools is the "name: description" list the
// planner prompt advertises; it may be empty.
func New(completer Completer, prompts Prompts, tools string) *Collaborators {
	return &Collaborators{completer: completer, prompts: prompts, tools: tools}
}

var (
	_ orchestrator.Planner        = (*Collaborators)(nil)
	_ orchestrator.TaskJudge      = (*Collaborators)(nil)
	_ orchestrator.ObjectiveJudge = (*Collaborators)(nil)
	_ orchestrator.Rewriter       = (*Collaborators)(nil)
	_ orchestrator.Synthesizer    = (*Collaborators)(nil)
)

func (c *Collaborators) complete(ctx context.Context, name, src string, data promptData) (string, error) {
	prompt, err := render(name, src, data)
	if err != nil {
		return "", err
	}
	return c.completer.Complete(ctx, "", prompt)
}

// Plan asks the model for a numbered task list and parses it.
func (c *Collaborators) Plan(ctx context.Context, objective string) ([]models.Task, error) {
	out, err := c.complete(ctx, "planner", c.prompts.Planner, promptData{Objective: objective, Tools: c.tools})
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	tasks, err := plan.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrGeneration, err)
	}
	return tasks, nil
}

// JudgeTask asks whether the task result accomplishes the task.
func (c *Collaborators) JudgeTask(ctx context.Context, objective, priorResults string, task models.Task) orchestrator.Judgement {
	out, err := c.complete(ctx, "task_judge", c.prompts.TaskJudge, promptData{
		Objective: objective,
		Context:   priorResults,
		Task:      task.Description,
		Result:    task.Result,
	})
	if err != nil {
		return orchestrator.Failed(fmt.Errorf("%w: %w", orchestrator.ErrJudge, err))
	}

	ok, err := ParseBool(out)
	switch {
	case err != nil:
		return orchestrator.Rejected(err.Error())
	case ok:
		return orchestrator.Succeeded("task accomplished")
	default:
		return orchestrator.Rejected("task not accomplished")
	}
}

// JudgeObjective asks whether the objective is fully accomplished.
func (c *Collaborators) JudgeObjective(ctx context.Context, objective, priorResults string) orchestrator.Judgement {
	out, err := c.complete(ctx, "objective_judge", c.prompts.ObjectiveJudge, promptData{
		Objective: objective,
		Context:   priorResults,
	})
	if err != nil {
		return orchestrator.Failed(fmt.Errorf("%w: %w", orchestrator.ErrJudge, err))
	}

	ok, err := ParseBool(out)
	switch {
	case err != nil:
		return orchestrator.Rejected(err.Error())
	case ok:
		return orchestrator.Succeeded("objective accomplished")
	default:
		return orchestrator.Rejected("objective not yet accomplished")
	}
}

// Rewrite asks for a revised description of a failed task.
func (c *Collaborators) Rewrite(ctx context.Context, objective string, task models.Task) (string, error) {
	out, err := c.complete(ctx, "rewriter", c.prompts.Rewriter, promptData{
		Objective:   objective,
		Task:        task.Description,
		Result:      task.Result,
		LastFailure: task.LastError,
	})
	if err != nil {
		return "", fmt.Errorf("rewriter: %w", err)
	}
	return CleanTaskLine(out), nil
}

// Synthesize asks for the final formatted answer.
func (c *Collaborators) Synthesize(ctx context.Context, objective, priorResults string) (string, error) {
	out, err := c.complete(ctx, "synthesizer", c.prompts.Synthesizer, promptData{
		Objective: objective,
		Context:   priorResults,
	})
	if err != nil {
		return "", fmt.Errorf("synthesizer: %w", err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("synthesizer returned an empty answer")
	}
	return out, nil
}

var boolWord = regexp.MustCompile(`(?i)\b(true|false)\b`)

// ParseBool reads the first "true" or "false" in a judge response.
func ParseBool(text string) (bool, error) {
	m := boolWord.FindStringSubmatch(text)
	if m == nil {
		return false, fmt.Errorf("judge response has no true/false verdict: %q", truncate(text, 80))
	}
	return strings.EqualFold(m[1], "true"), nil
}

var taskPrefix = regexp.MustCompile(`(?i)^\s*(?:(?:revised|new|modified)\s+)?(?:task(?:\s+description)?\s*:|\d+[.)])\s*`)

// CleanTaskLine reduces a rewriter response to a single task description.
func CleanTaskLine(text string) string {
	text = strings.TrimSpace(text)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = taskPrefix.ReplaceAllString(line, "")
		return strings.Trim(line, " \t\"'`")
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
