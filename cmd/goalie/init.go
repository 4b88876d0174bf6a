package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/goalie/internal/config"
	"github.com/ShayCichocki/goalie/internal/llm"
)

var (
	initForce       bool
	initWithPrompts bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a goalie workspace",
	Long: `Initialize a directory for use with goalie.

This command:
  - Checks that Anthropic credentials are available
  - Creates the .goalie directory (logs, signals, history)
  - Writes a .goalie.yaml project config template
  - Adds goalie entries to .gitignore
  - Optionally writes the default prompts for editing (--with-prompts)

Examples:
  goalie init                 # Initialize current directory
  goalie init ./research      # Initialize specific directory
  goalie init --with-prompts  # Also write .goalie/prompts.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().BoolVar(&initWithPrompts, "with-prompts", false, "Write the default prompts to .goalie/prompts.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing goalie in %s...\n\n", absPath)

	goalieDir := filepath.Join(absPath, ".goalie")
	if _, err := os.Stat(goalieDir); err == nil && !initForce {
		fmt.Printf("Directory already initialized. Use --force to reinitialize.\n")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		printStatus("⚠", fmt.Sprintf("Config not loaded, using defaults (%v)", err), color.FgYellow)
		cfg = config.Default()
	}
	if creds, err := config.ResolveCredentials(cfg); err != nil {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "Credentials: "+creds.String(), color.FgGreen)
	}

	for _, sub := range []string{"logs", "signals"} {
		if err := os.MkdirAll(filepath.Join(goalieDir, sub), 0755); err != nil {
			return fmt.Errorf("creating .goalie/%s directory: %w", sub, err)
		}
	}
	printStatus("✓", "Created .goalie directory structure", color.FgGreen)

	projectConfig := filepath.Join(absPath, ".goalie.yaml")
	if _, err := os.Stat(projectConfig); os.IsNotExist(err) || initForce {
		if err := os.WriteFile(projectConfig, []byte(projectConfigTemplate), 0644); err != nil {
			return fmt.Errorf("creating .goalie.yaml: %w", err)
		}
		printStatus("✓", "Created .goalie.yaml template", color.FgGreen)
	} else {
		printStatus("✓", ".goalie.yaml exists", color.FgGreen)
	}

	if initWithPrompts {
		path := filepath.Join(goalieDir, "prompts.yaml")
		if err := llm.WritePrompts(path, llm.DefaultPrompts()); err != nil {
			return fmt.Errorf("writing prompts: %w", err)
		}
		printStatus("✓", "Wrote default prompts to .goalie/prompts.yaml (set prompts: in .goalie.yaml to use them)", color.FgGreen)
	}

	if updated, err := updateGitignore(absPath); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	} else if updated {
		printStatus("✓", "Updated .gitignore with goalie entries", color.FgGreen)
	}

	fmt.Printf("\n%s goalie initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  goalie                     # interactive session")
	fmt.Println("  goalie run \"your objective\"")
	fmt.Println("  goalie serve --source http # accept objectives over HTTP")
	return nil
}

const projectConfigTemplate = `# goalie project configuration. Values here override ~/.config/goalie/config.yaml.
orchestrator:
  max_attempts: 3
  plan_attempts: 2
timeouts:
  execute: 10m
agent:
  max_steps: 10
  ask_user: true
history:
  enabled: true
  driver: sqlite
# prompts: .goalie/prompts.yaml
# debug_log: true
`

var gitignoreEntries = []string{
	".goalie/logs/",
	".goalie/signals/",
	".goalie/history.db*",
}

// updateGitignore appends missing goalie entries. It reports whether the
// file changed.
func updateGitignore(root string) (bool, error) {
	path := filepath.Join(root, ".gitignore")

	var existing string
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	}

	var missing []string
	for _, entry := range gitignoreEntries {
		if !strings.Contains(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	var b strings.Builder
	b.WriteString(existing)
	if len(existing) > 0 && !strings.HasSuffix(existing, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# goalie\n")
	for _, entry := range missing {
		b.WriteString(entry + "\n")
	}

	return true, os.WriteFile(path, []byte(b.String()), 0644)
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
