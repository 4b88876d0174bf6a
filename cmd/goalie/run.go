package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/goalie/internal/input"
)

var runNoAsk bool

var runCmd = &cobra.Command{
	Use:   "run <objective>",
	Short: "Pursue a single objective and print the answer",
	Long: `Run pursues one objective and exits.

The objective is planned into tasks, each task is executed by the agent and
judged, failed tasks are rewritten and retried, and the final answer is
printed. The exit status is non-zero when the run fails.

Examples:
  goalie run "What is the population of Lisbon divided by that of Porto?"
  goalie run --no-ask "Summarize https://go.dev/doc/effective_go"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runObjective,
}

func init() {
	runCmd.Flags().BoolVar(&runNoAsk, "no-ask", false, "Do not let the agent ask questions on stdin")
}

func runObjective(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runNoAsk {
		cfg.Agent.AskUser = false
	}

	objective := strings.TrimSpace(strings.Join(args, " "))
	if objective == "" {
		return fmt.Errorf("objective is empty")
	}

	a, err := newApp(cfg, appOptions{
		prompter: input.NewLineSource(os.Stdin, os.Stdout),
		out:      os.Stdout,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	out, err := a.runOne(ctx, objective)
	if derr := input.NewConsoleSink(os.Stdout).Deliver(ctx, input.ResultOf(out, err)); derr != nil {
		return derr
	}
	return err
}
