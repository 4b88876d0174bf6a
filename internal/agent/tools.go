package agent

import (
	"time"

	"github.com/ShayCichocki/goalie/internal/api"
)

// ToolConfig configures the built-in tools.
type ToolConfig struct {
	FetchTimeout  time.Duration
	MaxFetchBytes int64
	// Prompter backs ask_user. The tool is omitted when nil.
	Prompter Prompter
}

// DefaultTools returns the calculator, fetch_url and, when a prompter is
// configured, ask_user tools.
func DefaultTools(cfg ToolConfig) *api.Toolbox {
	box := api.NewToolbox(
		Calculator{},
		NewFetchURL(cfg.FetchTimeout, cfg.MaxFetchBytes),
	)
	if cfg.Prompter != nil {
		box.Add(NewAskUser(cfg.Prompter))
	}
	return box
}
