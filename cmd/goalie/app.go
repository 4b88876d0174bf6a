package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShayCichocki/goalie/internal/agent"
	"github.com/ShayCichocki/goalie/internal/api"
	"github.com/ShayCichocki/goalie/internal/config"
	"github.com/ShayCichocki/goalie/internal/input"
	"github.com/ShayCichocki/goalie/internal/llm"
	"github.com/ShayCichocki/goalie/internal/orchestrator"
	"github.com/ShayCichocki/goalie/internal/signals"
	"github.com/ShayCichocki/goalie/internal/state"
)

// narratorSettle bounds how long a sink waits for the narrator to catch up
// with the events of a finished run.
const narratorSettle = time.Second

type appOptions struct {
	// source feeds RunOnce. Nil for one-shot runs.
	source orchestrator.ObjectiveSource
	// prompter backs ask_user. Nil omits the tool.
	prompter agent.Prompter
	// out receives the narration. Nil silences it.
	out io.Writer
	// observers see every orchestrator event after the narrator.
	observers []func(orchestrator.Event)
}

// app wires configuration into a ready orchestrator.
type app struct {
	cfg      *config.Config
	root     string
	client   *api.Client
	orch     *orchestrator.Orchestrator
	db       *state.DB
	watcher  *signals.Watcher
	logger   *orchestrator.DebugLogger
	narrator *narrator
	events   chan struct{}
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	a := &app{cfg: cfg, root: root, events: make(chan struct{})}

	a.client, err = newAPIClient(cfg)
	if err != nil {
		return nil, err
	}

	prompts, err := llm.LoadPrompts(cfg.Prompts)
	if err != nil {
		return nil, err
	}

	a.watcher, err = signals.NewWatcher(root)
	if err != nil {
		log.Printf("[goalie] warning: kill signals disabled: %v", err)
		a.watcher = nil
	}

	toolCfg := agent.ToolConfig{
		FetchTimeout:  cfg.Agent.FetchTimeout,
		MaxFetchBytes: cfg.Agent.MaxFetchBytes,
	}
	if cfg.Agent.AskUser {
		toolCfg.Prompter = opts.prompter
	}
	tools := agent.DefaultTools(toolCfg)

	loopCfg := api.AgentLoopConfig{
		Client:        a.client,
		Tools:         tools,
		MaxIterations: cfg.Agent.MaxSteps,
	}
	if a.watcher != nil {
		loopCfg.ShouldStop = a.watcher.ShouldStop
	}
	executor := agent.NewExecutor(api.NewAgentLoop(loopCfg), tools)
	collab := llm.New(a.client, prompts, tools.Describe())

	a.logger = orchestrator.NopLogger()
	if cfg.DebugLog {
		a.logger = orchestrator.NewDebugLoggerForDir(root)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithMaxAttempts(cfg.Orchestrator.MaxAttempts),
		orchestrator.WithPlanAttempts(cfg.Orchestrator.PlanAttempts),
		orchestrator.WithTimeouts(timeoutsFrom(cfg.Timeouts)),
		orchestrator.WithEventBuffer(cfg.Orchestrator.EventBuffer),
		orchestrator.WithLogger(a.logger),
	}
	if opts.source != nil {
		orchOpts = append(orchOpts, orchestrator.WithObjectiveSource(opts.source))
	}

	if cfg.History.Enabled {
		a.db, err = openHistory(cfg, root, true)
		if err != nil {
			log.Printf("[goalie] warning: run history disabled: %v", err)
			a.db = nil
		} else {
			orchOpts = append(orchOpts, orchestrator.WithRecorder(a.db))
		}
	}

	a.orch = orchestrator.New(orchestrator.RequiredConfig{
		Planner:        collab,
		Executor:       executor,
		TaskJudge:      collab,
		ObjectiveJudge: collab,
		Rewriter:       collab,
		Synthesizer:    collab,
	}, orchOpts...)

	out := opts.out
	if out == nil {
		out = io.Discard
	}
	a.narrator = newNarrator(out, cfg.Verbose)
	go a.dispatch(opts.observers)

	return a, nil
}

func (a *app) dispatch(observers []func(orchestrator.Event)) {
	defer close(a.events)
	for ev := range a.orch.Events() {
		a.narrator.Handle(ev)
		for _, fn := range observers {
			fn(ev)
		}
	}
}

// openHistory opens and migrates the run history, optionally pruning
// expired runs.
func openHistory(cfg *config.Config, root string, prune bool) (*state.DB, error) {
	path := cfg.History.Path
	if path == "" {
		path = state.DefaultPath(root)
	}

	db, err := state.OpenWithDriver(cfg.History.Driver, path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if prune && cfg.History.Retention > 0 {
		if n, err := db.PurgeOldRuns(cfg.History.Retention); err != nil {
			log.Printf("[goalie] warning: purge run history: %v", err)
		} else if n > 0 {
			log.Printf("[goalie] purged %d runs older than %s", n, cfg.History.Retention)
		}
	}
	return db, nil
}

func timeoutsFrom(t config.TimeoutsConfig) orchestrator.Timeouts {
	return orchestrator.Timeouts{
		Objective:  t.Objective,
		Plan:       t.Plan,
		Execute:    t.Execute,
		Judge:      t.Judge,
		Rewrite:    t.Rewrite,
		Synthesize: t.Synthesize,
	}
}

// runContext derives a per-run context canceled by the kill file.
func (a *app) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.watcher == nil {
		return context.WithCancel(ctx)
	}
	return a.watcher.WithKill(ctx)
}

// killed reports and clears a pending kill signal.
func (a *app) killed() bool {
	if a.watcher == nil || !a.watcher.ShouldStop() {
		return false
	}
	a.watcher.Clear()
	return true
}

// runOne pursues a single objective.
func (a *app) runOne(ctx context.Context, objective string) (*orchestrator.Outcome, error) {
	runCtx, cancel := a.runContext(ctx)
	defer cancel()

	out, err := a.orch.Run(runCtx, objective)
	if a.killed() && err != nil {
		err = fmt.Errorf("stopped by kill signal: %w", err)
	}
	a.settle(out, err)
	return out, err
}

// drive runs objectives from the configured source until the source is
// exhausted or ctx is canceled, delivering every result to sink. A kill
// signal ends the active run only.
func (a *app) drive(ctx context.Context, sink input.Sink) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		runCtx, cancel := a.runContext(ctx)
		out, err := a.orch.RunOnce(runCtx)
		cancel()

		wasKilled := a.killed()
		switch {
		case err == nil:
		case errors.Is(err, orchestrator.ErrInputAborted), ctx.Err() != nil:
			return nil
		default:
			var runErr *orchestrator.RunError
			if !errors.As(err, &runErr) {
				// killed while waiting for an objective
				if wasKilled {
					continue
				}
				return err
			}
			if wasKilled {
				err = fmt.Errorf("stopped by kill signal: %w", err)
			}
		}

		a.settle(out, err)
		if derr := sink.Deliver(ctx, input.ResultOf(out, err)); derr != nil {
			log.Printf("[goalie] warning: deliver result: %v", derr)
		}
	}
}

// settle waits for the narrator to print the end of the run.
func (a *app) settle(out *orchestrator.Outcome, err error) {
	res := input.ResultOf(out, err)
	if id := res.RunID(); id != "" {
		a.narrator.Wait(id, narratorSettle)
	}
}

// Close releases everything newApp opened.
func (a *app) Close() {
	a.orch.Close()
	<-a.events
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Close()
	a.narrator.Summary(a.client.Tracker())
}

// signalContext returns a context canceled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
