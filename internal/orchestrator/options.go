package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxAttempts is how many times a task may run before it is abandoned.
	DefaultMaxAttempts = 3
	// DefaultPlanAttempts is how many times planning is tried on GenerationError.
	DefaultPlanAttempts = 2
	// DefaultEventBuffer is the event channel capacity.
	DefaultEventBuffer = 256
)

// RequiredConfig holds the collaborators every orchestrator needs.
type RequiredConfig struct {
	Planner        Planner
	Executor       TaskExecutor
	TaskJudge      TaskJudge
	ObjectiveJudge ObjectiveJudge
	Rewriter       Rewriter
	Synthesizer    Synthesizer
}

// Timeouts bounds each collaborator call. Zero disables the bound.
type Timeouts struct {
	Objective  time.Duration
	Plan       time.Duration
	Execute    time.Duration
	Judge      time.Duration
	Rewrite    time.Duration
	Synthesize time.Duration
}

// DefaultTimeouts returns the bounds used when none are configured.
// Objective input is unbounded since it waits on a human.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Plan:       2 * time.Minute,
		Execute:    10 * time.Minute,
		Judge:      2 * time.Minute,
		Rewrite:    2 * time.Minute,
		Synthesize: 3 * time.Minute,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Option configures an Orchestrator.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	source       ObjectiveSource
	maxAttempts  int
	planAttempts int
	timeouts     Timeouts
	logger       *DebugLogger
	recorder     Recorder
	hook         func(Transition)
	eventBuffer  int
	newRunID     func() string
	now          func() time.Time
}

func defaultOptions() orchestratorOptions {
	return orchestratorOptions{
		maxAttempts:  DefaultMaxAttempts,
		planAttempts: DefaultPlanAttempts,
		timeouts:     DefaultTimeouts(),
		logger:       NopLogger(),
		eventBuffer:  DefaultEventBuffer,
		newRunID:     func() string { return uuid.New().String()[:8] },
		now:          time.Now,
	}
}

// WithObjectiveSource sets where RunOnce and Loop get objectives from.
func WithObjectiveSource(s ObjectiveSource) Option {
	return func(o *orchestratorOptions) { o.source = s }
}

// WithMaxAttempts sets how many executions a task gets before it is abandoned.
func WithMaxAttempts(n int) Option {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithPlanAttempts sets how many times planning is tried on GenerationError.
func WithPlanAttempts(n int) Option {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.planAttempts = n
		}
	}
}

// WithTimeouts sets per-call timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(o *orchestratorOptions) { o.timeouts = t }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *orchestratorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder persists each finished run.
func WithRecorder(r Recorder) Option {
	return func(o *orchestratorOptions) { o.recorder = r }
}

// WithTransitionHook registers a callback invoked synchronously on every transition.
func WithTransitionHook(fn func(Transition)) Option {
	return func(o *orchestratorOptions) { o.hook = fn }
}

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(n int) Option {
	return func(o *orchestratorOptions) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithRunIDFunc overrides run ID generation (mainly for testing).
func WithRunIDFunc(fn func() string) Option {
	return func(o *orchestratorOptions) { o.newRunID = fn }
}

// WithClock overrides the time source (mainly for testing).
func WithClock(fn func() time.Time) Option {
	return func(o *orchestratorOptions) { o.now = fn }
}
