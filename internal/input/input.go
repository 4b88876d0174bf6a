// Package input provides the objective sources and answer sinks that sit at
// the edges of the orchestrator: a terminal line reader, an HTTP intake and a
// Redis stream.
package input

import (
	"context"
	"errors"
	"strings"

	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

// Result is what a run produced for one objective.
type Result struct {
	Objective string
	// Outcome is nil when the run failed.
	Outcome *orchestrator.Outcome
	Err     error
}

// ResultOf builds a Result from the return values of an orchestrator run.
func ResultOf(out *orchestrator.Outcome, err error) Result {
	res := Result{Outcome: out, Err: err}
	if out != nil {
		res.Objective = out.Objective
	}
	var runErr *orchestrator.RunError
	if errors.As(err, &runErr) {
		res.Objective = runErr.Objective
	}
	return res
}

// Answer returns the synthesized answer, or "" for failed runs.
func (r Result) Answer() string {
	if r.Outcome == nil {
		return ""
	}
	return r.Outcome.Answer
}

// RunID returns the orchestrator run id if one was assigned.
func (r Result) RunID() string {
	if r.Outcome != nil {
		return r.Outcome.RunID
	}
	var runErr *orchestrator.RunError
	if errors.As(r.Err, &runErr) {
		return runErr.RunID
	}
	return ""
}

// PromptSource is an objective source that can also put the executor
// agent's questions to the operator.
type PromptSource interface {
	orchestrator.ObjectiveSource
	Ask(ctx context.Context, question string) (string, error)
}

var (
	_ PromptSource = (*LineSource)(nil)
	_ Sink         = (*ConsoleSink)(nil)
	_ Sink         = (*HTTPIntake)(nil)
	_ Sink         = (*RedisSource)(nil)
)

// Sink receives the result of every run.
type Sink interface {
	Deliver(ctx context.Context, res Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res Result) error

func (f SinkFunc) Deliver(ctx context.Context, res Result) error { return f(ctx, res) }

// MultiSink delivers to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, res Result) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Deliver(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsQuit reports whether a line asks the interactive session to end.
func IsQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", ":q":
		return true
	default:
		return false
	}
}
