package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/goalie/internal/state"
	"github.com/ShayCichocki/goalie/internal/tui"
	"github.com/ShayCichocki/goalie/pkg/models"
)

var (
	historyLimit     int
	historyFormat    string
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs",
	Long: `History lists recorded runs, newest first.

Runs are stored in .goalie/history.db (history.path) when history.enabled is
true. The history is an audit trail; runs are never resumed from it.`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete runs older than --older-than",
	RunE:  runHistoryPurge,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
	historyShowCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format: text, yaml or json")
	historyPurgeCmd.Flags().DurationVar(&historyOlderThan, "older-than", 30*24*time.Hour, "Age of runs to delete")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

func openHistoryForCLI() (*state.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return openHistory(cfg, root, false)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, err := openHistoryForCLI()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tTASKS\tOBJECTIVE")
	for _, r := range runs {
		tasks := fmt.Sprintf("%d", r.Completed)
		if r.Abandoned > 0 {
			tasks += fmt.Sprintf(" (+%d abandoned)", r.Abandoned)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Status,
			tasks,
			preview(r.Objective),
		)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := openHistoryForCLI()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(args[0])
	if errors.Is(err, state.ErrRunNotFound) {
		return fmt.Errorf("no run with id %q (see 'goalie history')", args[0])
	}
	if err != nil {
		return err
	}

	switch strings.ToLower(historyFormat) {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(run)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case "text":
		printRun(run)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, yaml or json)", historyFormat)
	}
}

func printRun(run *models.Run) {
	fmt.Printf("%s %s\n", bold.Sprint("Run"), run.ID)
	fmt.Printf("%s %s\n", bold.Sprint("Objective:"), run.Objective)
	fmt.Printf("%s %s\n", bold.Sprint("Status:"), statusColor(run.Status).Sprint(run.Status))
	fmt.Printf("%s %s", bold.Sprint("Started:"), run.StartedAt.Local().Format(time.RFC1123))
	if run.FinishedAt != nil {
		fmt.Printf(" (took %s)", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	fmt.Println()

	tasks := append(append([]models.Task{}, run.Completed...), run.Abandoned...)
	fmt.Println(tui.RenderTasks("Tasks", tasks, 80))

	if run.Error != "" {
		fmt.Printf("%s %s\n", red.Sprint("Error:"), run.Error)
	}
	if run.Answer != "" {
		fmt.Printf("\n%s\n%s\n", green.Sprint("Answer"), run.Answer)
	}
}

func runHistoryPurge(cmd *cobra.Command, args []string) error {
	db, err := openHistoryForCLI()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.PurgeOldRuns(historyOlderThan)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d runs older than %s\n", n, historyOlderThan)
	return nil
}

func statusColor(s models.RunStatus) *color.Color {
	switch s {
	case models.RunStatusCompleted:
		return green
	case models.RunStatusFailed:
		return red
	case models.RunStatusCanceled:
		return yellow
	default:
		return faint
	}
}
