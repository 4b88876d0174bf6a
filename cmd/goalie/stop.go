package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/goalie/internal/signals"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Abort the run active in this directory",
	Long: `Stop writes .goalie/signals/kill. A goalie process running in the same
directory aborts its active run, records it as canceled, and moves on to the
next objective.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		w, err := signals.NewWatcher(root)
		if err != nil {
			return fmt.Errorf("open signals directory: %w", err)
		}
		defer w.Close()

		if err := w.SendKill(); err != nil {
			return fmt.Errorf("write kill signal: %w", err)
		}
		fmt.Printf("Kill signal sent (%s).\n", w.Dir())
		return nil
	},
}
