// Package config handles configuration loading and management for goalie.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Objective sources selectable with input.source.
const (
	SourceTerminal = "terminal"
	SourceLine     = "line"
	SourceHTTP     = "http"
	SourceRedis    = "redis"
)

// Config holds all configuration for goalie.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Timeouts     TimeoutsConfig     `mapstructure:"timeouts"`
	Agent        AgentConfig        `mapstructure:"agent"`
	Input        InputConfig        `mapstructure:"input"`
	History      HistoryConfig      `mapstructure:"history"`
	// Prompts is an optional YAML file overriding the collaborator prompts.
	Prompts string `mapstructure:"prompts"`
	// DebugLog enables .goalie/logs/orchestrator-debug.log.
	DebugLog bool `mapstructure:"debug_log"`
	// Verbose narrates every orchestrator event on the console.
	Verbose bool `mapstructure:"verbose"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	MaxTokens  int64  `mapstructure:"max_tokens"`
	Bedrock    bool   `mapstructure:"bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OrchestratorConfig holds retry and buffering limits.
type OrchestratorConfig struct {
	MaxAttempts  int `mapstructure:"max_attempts"`
	PlanAttempts int `mapstructure:"plan_attempts"`
	EventBuffer  int `mapstructure:"event_buffer"`
}

// TimeoutsConfig holds the per-call collaborator timeouts. Zero disables a bound.
type TimeoutsConfig struct {
	Objective  time.Duration `mapstructure:"objective"`
	Plan       time.Duration `mapstructure:"plan"`
	Execute    time.Duration `mapstructure:"execute"`
	Judge      time.Duration `mapstructure:"judge"`
	Rewrite    time.Duration `mapstructure:"rewrite"`
	Synthesize time.Duration `mapstructure:"synthesize"`
}

// AgentConfig holds executor agent settings.
type AgentConfig struct {
	MaxSteps      int           `mapstructure:"max_steps"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxFetchBytes int64         `mapstructure:"max_fetch_bytes"`
	AskUser       bool          `mapstructure:"ask_user"`
}

// InputConfig selects where objectives come from.
type InputConfig struct {
	Source       string `mapstructure:"source"`
	HTTPAddr     string `mapstructure:"http_addr"`
	QueueSize    int    `mapstructure:"queue_size"`
	RedisURL     string `mapstructure:"redis_url"`
	RedisStream  string `mapstructure:"redis_stream"`
	AnswerStream string `mapstructure:"answer_stream"`
	// RedisStart is the stream id to start reading after ("$" for new entries).
	RedisStart string `mapstructure:"redis_start"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `mapstructure:"driver"`
	// Path defaults to .goalie/history.db in the working directory.
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, GOALIE_<SECTION>_<KEY>)
// 2. Project config (.goalie.yaml in current directory or parent)
// 3. User config (~/.config/goalie/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return finish(v)
}

// LoadFromPath loads configuration from a specific file. Environment
// variables still apply.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Input.RedisURL = expandEnv(cfg.Input.RedisURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("GOALIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("anthropic.api_key", "GOALIE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("input.redis_url", "GOALIE_INPUT_REDIS_URL", "REDIS_URL")
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	switch c.Input.Source {
	case SourceTerminal, SourceLine, SourceHTTP, SourceRedis:
	default:
		return fmt.Errorf("invalid input.source %q (want terminal, line, http or redis)", c.Input.Source)
	}
	switch c.History.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("invalid history.driver %q (want sqlite or sqlite3)", c.History.Driver)
	}
	if c.Orchestrator.MaxAttempts < 1 {
		return fmt.Errorf("orchestrator.max_attempts must be at least 1, got %d", c.Orchestrator.MaxAttempts)
	}
	if c.Orchestrator.PlanAttempts < 1 {
		return fmt.Errorf("orchestrator.plan_attempts must be at least 1, got %d", c.Orchestrator.PlanAttempts)
	}
	if c.Input.Source == SourceRedis && c.Input.RedisURL == "" {
		return fmt.Errorf("input.redis_url is required when input.source is redis")
	}
	return nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveTo(cfg, GetUserConfigPath())
}

// SaveTo writes the configuration as YAML to path.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.bedrock", cfg.Anthropic.Bedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("orchestrator.max_attempts", cfg.Orchestrator.MaxAttempts)
	v.Set("orchestrator.plan_attempts", cfg.Orchestrator.PlanAttempts)
	v.Set("orchestrator.event_buffer", cfg.Orchestrator.EventBuffer)
	v.Set("timeouts.objective", cfg.Timeouts.Objective.String())
	v.Set("timeouts.plan", cfg.Timeouts.Plan.String())
	v.Set("timeouts.execute", cfg.Timeouts.Execute.String())
	v.Set("timeouts.judge", cfg.Timeouts.Judge.String())
	v.Set("timeouts.rewrite", cfg.Timeouts.Rewrite.String())
	v.Set("timeouts.synthesize", cfg.Timeouts.Synthesize.String())
	v.Set("agent.max_steps", cfg.Agent.MaxSteps)
	v.Set("agent.fetch_timeout", cfg.Agent.FetchTimeout.String())
	v.Set("agent.max_fetch_bytes", cfg.Agent.MaxFetchBytes)
	v.Set("agent.ask_user", cfg.Agent.AskUser)
	v.Set("input.source", cfg.Input.Source)
	v.Set("input.http_addr", cfg.Input.HTTPAddr)
	v.Set("input.queue_size", cfg.Input.QueueSize)
	v.Set("input.redis_url", cfg.Input.RedisURL)
	v.Set("input.redis_stream", cfg.Input.RedisStream)
	v.Set("input.answer_stream", cfg.Input.AnswerStream)
	v.Set("input.redis_start", cfg.Input.RedisStart)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.driver", cfg.History.Driver)
	v.Set("history.path", cfg.History.Path)
	v.Set("history.retention", cfg.History.Retention.String())
	v.Set("prompts", cfg.Prompts)
	v.Set("debug_log", cfg.DebugLog)
	v.Set("verbose", cfg.Verbose)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
	v.SetDefault("anthropic.max_tokens", d.Anthropic.MaxTokens)
	v.SetDefault("anthropic.bedrock", d.Anthropic.Bedrock)
	v.SetDefault("anthropic.aws_region", d.Anthropic.AWSRegion)
	v.SetDefault("anthropic.aws_profile", d.Anthropic.AWSProfile)

	v.SetDefault("orchestrator.max_attempts", d.Orchestrator.MaxAttempts)
	v.SetDefault("orchestrator.plan_attempts", d.Orchestrator.PlanAttempts)
	v.SetDefault("orchestrator.event_buffer", d.Orchestrator.EventBuffer)

	v.SetDefault("timeouts.objective", "0s")
	v.SetDefault("timeouts.plan", "2m")
	v.SetDefault("timeouts.execute", "10m")
	v.SetDefault("timeouts.judge", "2m")
	v.SetDefault("timeouts.rewrite", "2m")
	v.SetDefault("timeouts.synthesize", "3m")

	v.SetDefault("agent.max_steps", d.Agent.MaxSteps)
	v.SetDefault("agent.fetch_timeout", "30s")
	v.SetDefault("agent.max_fetch_bytes", d.Agent.MaxFetchBytes)
	v.SetDefault("agent.ask_user", d.Agent.AskUser)

	v.SetDefault("input.source", d.Input.Source)
	v.SetDefault("input.http_addr", d.Input.HTTPAddr)
	v.SetDefault("input.queue_size", d.Input.QueueSize)
	v.SetDefault("input.redis_url", d.Input.RedisURL)
	v.SetDefault("input.redis_stream", d.Input.RedisStream)
	v.SetDefault("input.answer_stream", d.Input.AnswerStream)
	v.SetDefault("input.redis_start", d.Input.RedisStart)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.driver", d.History.Driver)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.retention", "720h")

	v.SetDefault("prompts", "")
	v.SetDefault("debug_log", false)
	v.SetDefault("verbose", false)
}

// getUserConfigDir returns the XDG config directory for goalie.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "goalie")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "goalie")
	}
	return filepath.Join(home, ".config", "goalie")
}

// findProjectConfig searches for .goalie.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".goalie.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 4096,
			AWSRegion: "us-east-1",
		},
		Orchestrator: OrchestratorConfig{
			MaxAttempts:  3,
			PlanAttempts: 2,
			EventBuffer:  256,
		},
		Timeouts: TimeoutsConfig{
			Plan:       2 * time.Minute,
			Execute:    10 * time.Minute,
			Judge:      2 * time.Minute,
			Rewrite:    2 * time.Minute,
			Synthesize: 3 * time.Minute,
		},
		Agent: AgentConfig{
			MaxSteps:      10,
			FetchTimeout:  30 * time.Second,
			MaxFetchBytes: 1 << 20,
			AskUser:       true,
		},
		Input: InputConfig{
			Source:       SourceTerminal,
			HTTPAddr:     "127.0.0.1:8787",
			QueueSize:    64,
			RedisStream:  "goalie.objectives",
			AnswerStream: "goalie.answers",
			RedisStart:   "$",
		},
		History: HistoryConfig{
			Enabled:   true,
			Driver:    "sqlite",
			Retention: 30 * 24 * time.Hour,
		},
	}
}
