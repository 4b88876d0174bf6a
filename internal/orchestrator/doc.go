// Package orchestrator drives the goal-pursuit loop.
//
// An Orchestrator takes an objective, asks a Planner for an ordered list of
// tasks, and works through them one at a time:
//
//	AwaitingObjective -> Planning -> ExecutingPlan -> EvaluatingTask
//	    -> EvaluatingObjective -> ExecutingPlan ... -> PlanComplete -> AwaitingObjective
//
// Rejected or failed tasks go through TaskFailed, where a Rewriter revises the
// description and the task is pushed back onto the front of the pending queue.
// A task that keeps failing is abandoned after a configured number of attempts.
//
// Task execution is delegated to a TaskRunner actor spawned once per
// orchestrator. The orchestrator sends it a TaskMessage and waits for the
// matching TaskComplete on its inbox; the actor never touches the run context.
//
// All collaborators are injected interfaces, so tests can drive the state
// machine with deterministic stubs:
//
//	orch := orchestrator.New(orchestrator.RequiredConfig{
//		Planner:        planner,
//		Executor:       executor,
//		TaskJudge:      judge,
//		ObjectiveJudge: objectiveJudge,
//		Rewriter:       rewriter,
//		Synthesizer:    synthesizer,
//	}, orchestrator.WithMaxAttempts(3))
//	defer orch.Close()
//	outcome, err := orch.Run(ctx, "Summarize today's weather")
package orchestrator
