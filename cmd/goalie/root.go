package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/goalie/internal/config"
	"github.com/ShayCichocki/goalie/internal/input"
	"github.com/ShayCichocki/goalie/internal/tui"
)

var (
	configPath string
	verbose    bool
	plainInput bool
)

var rootCmd = &cobra.Command{
	Use:   "goalie",
	Short: "Autonomous objective pursuit",
	Long: `Goalie takes an objective, plans it into tasks, executes each task with a
tool-using agent, judges the results, and synthesizes a final answer.

With no arguments, goalie starts an interactive session: it asks for an
objective, pursues it, prints the answer and asks for the next one. Type
"quit" or press Esc to leave.

Failed tasks are rewritten and retried up to orchestrator.max_attempts times.
Create .goalie/signals/kill (or run 'goalie stop') to abort the active run.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/goalie/config.yaml plus .goalie.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Narrate every state transition")
	rootCmd.Flags().BoolVar(&plainInput, "plain", false, "Read objectives as plain lines instead of the interactive prompt")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the configuration and applies persistent flags.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func runInteractive(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var source input.PromptSource
	if plainInput || cfg.Input.Source == config.SourceLine {
		source = input.NewLineSource(os.Stdin, os.Stdout)
	} else {
		source = tui.NewSource(os.Stdin, os.Stdout)
	}

	a, err := newApp(cfg, appOptions{
		source:   source,
		prompter: source,
		out:      os.Stdout,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	fmt.Println(bold.Sprint("goalie") + " ready. Type an objective, or \"quit\" to leave.")
	return a.drive(ctx, input.NewConsoleSink(os.Stdout))
}
