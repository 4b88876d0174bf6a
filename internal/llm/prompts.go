// Package llm implements the model-backed orchestrator collaborators: the
// planner, both judges, the task rewriter and the answer synthesizer.
package llm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"go.yaml.in/yaml/v3"
)

// Prompts holds the text/template source for each collaborator.
type Prompts struct {
	Planner        string `yaml:"planner"`
	TaskJudge      string `yaml:"task_judge"`
	ObjectiveJudge string `yaml:"objective_judge"`
	Rewriter       string `yaml:"rewriter"`
	Synthesizer    string `yaml:"synthesizer"`
}

// promptData is the value every template is executed against.
type promptData struct {
	Objective   string
	Context     string
	Task        string
	Result      string
	Tools       string
	LastFailure string
}

const defaultPlanner = `You are a planning AI that creates a plan for a given objective.
Create a numbered list of tasks for the following objective: {{.Objective}}
Each task should be a single sentence.
Each task should be isolated from the others: if a task can be decomposed into
several tasks, it should only appear in its decomposed form.
The tasks must have a logical progression where the results of earlier tasks
inform the next task, but no task may be part of another.
Define as few tasks as possible to accomplish the objective.
{{- if .Tools}}

The agent executing the tasks can use these tools:
{{.Tools}}
{{- end}}

Respond only with the numbered list, one task per line, formatted as "1. <task>".`

const defaultTaskJudge = `You are an AI who performs the following TASK: {{.Task}}
The overall objective is: {{.Objective}}
Take into account these previously completed tasks and their results:
{{if .Context}}{{.Context}}{{else}}(none){{end}}

Your task: {{.Task}}
Evaluate whether or not the TASK you were given has been FULLY accomplished
successfully, based on the following result:
{{.Result}}

Respond with one of the following lowercased boolean values: true, false.`

const defaultObjectiveJudge = `You are an AI who performs a set of tasks based on the following objective: {{.Objective}}
Take into account these previously completed tasks and their results:
{{if .Context}}{{.Context}}{{else}}(none){{end}}

Evaluate whether or not the OBJECTIVE you were given has been FULLY accomplished
successfully, based on these results.
Respond with one of the following lowercased boolean values: true, false.`

const defaultRewriter = `You are a task creation AI that uses the result of an execution agent
to revise tasks for the following objective: {{.Objective}}
The last attempted task has the result: {{if .Result}}{{.Result}}{{else}}(no result){{end}}
{{- if .LastFailure}}
It failed because: {{.LastFailure}}
{{- end}}
This result was based on this task description: {{.Task}}
Given the task description and the result, the task has FAILED.
MODIFY the task so that it may succeed. It must not be the same as the original
task description. Respond with the revised task description only, as one sentence.`

const defaultSynthesizer = `You are an AI who performs one task based on the following objective: {{.Objective}}
Based on the following results, create a well formatted and thoughtful response in Markdown.
The heading should be the title, and the results should be a numbered list.
Include headings for the result and for the explanation.

{{.Context}}

Explain how you arrived at the final answer, and how it accomplished the objective.`

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		Planner:        defaultPlanner,
		TaskJudge:      defaultTaskJudge,
		ObjectiveJudge: defaultObjectiveJudge,
		Rewriter:       defaultRewriter,
		Synthesizer:    defaultSynthesizer,
	}
}

// LoadPrompts returns the defaults with any templates in the YAML file at
// path layered on top. An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("read prompts: %w", err)
	}

	var overrides Prompts
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return prompts, fmt.Errorf("parse prompts %s: %w", path, err)
	}

	prompts.merge(overrides)
	if err := prompts.Validate(); err != nil {
		return prompts, fmt.Errorf("prompts %s: %w", path, err)
	}
	return prompts, nil
}

// WritePrompts writes prompts as a YAML override file, creating parent
// directories.
func WritePrompts(path string, p Prompts) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create prompts directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (p *Prompts) merge(o Prompts) {
	if o.Planner != "" {
		p.Planner = o.Planner
	}
	if o.TaskJudge != "" {
		p.TaskJudge = o.TaskJudge
	}
	if o.ObjectiveJudge != "" {
		p.ObjectiveJudge = o.ObjectiveJudge
	}
	if o.Rewriter != "" {
		p.Rewriter = o.Rewriter
	}
	if o.Synthesizer != "" {
		p.Synthesizer = o.Synthesizer
	}
}

// Validate checks that every template parses.
func (p Prompts) Validate() error {
	for name, src := range map[string]string{
		"planner":         p.Planner,
		"task_judge":      p.TaskJudge,
		"objective_judge": p.ObjectiveJudge,
		"rewriter":        p.Rewriter,
		"synthesizer":     p.Synthesizer,
	} {
		if _, err := template.New(name).Option("missingkey=error").Parse(src); err != nil {
			return fmt.Errorf("template %s: %w", name, err)
		}
	}
	return nil
}

func render(name, src string, data promptData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}
