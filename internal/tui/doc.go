// Package tui provides goalie's terminal widgets.
//
// Prompt runs a one-shot bubbletea program around a text input and is used
// both for objectives and for ask_user questions from the executor agent.
// RenderTasks draws a plan or task log as a lipgloss table for the console
// narrator.
//
// Usage:
//
//	src := tui.NewSource(os.Stdin, os.Stdout)
//	orch := orchestrator.New(cfg, orchestrator.WithObjectiveSource(src))
//
//	fmt.Println(tui.RenderTasks("Plan", tasks, 80))
package tui
