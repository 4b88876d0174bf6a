package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/goalie/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify goalie configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/goalie/config.yaml
Project-specific overrides can be placed in .goalie.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			return setConfigKey(cfg, args[0], args[1])
		}
	},
}

// configKeys lists the keys shown by 'goalie config', in display order.
var configKeys = []string{
	"anthropic.api_key",
	"anthropic.model",
	"anthropic.max_tokens",
	"anthropic.bedrock",
	"anthropic.aws_region",
	"orchestrator.max_attempts",
	"orchestrator.plan_attempts",
	"timeouts.plan",
	"timeouts.execute",
	"timeouts.judge",
	"timeouts.rewrite",
	"timeouts.synthesize",
	"agent.max_steps",
	"agent.ask_user",
	"input.source",
	"input.http_addr",
	"input.redis_url",
	"history.enabled",
	"history.driver",
	"history.retention",
	"prompts",
	"debug_log",
}

func displayAllConfig(cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		fmt.Printf("%s: %s\n", key, value)
	}
	creds, _ := config.ResolveCredentials(cfg)
	fmt.Printf("\n%s\n", faint.Sprintf("credentials: %s", creds))
}

func setConfigKey(cfg *config.Config, key, value string) error {
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	shown := value
	if strings.EqualFold(key, "anthropic.api_key") {
		shown = config.MaskAPIKey(value)
	}
	fmt.Printf("Set %s = %s\n", key, shown)
	return nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.max_tokens":
		return strconv.FormatInt(cfg.Anthropic.MaxTokens, 10), nil
	case "anthropic.bedrock":
		return strconv.FormatBool(cfg.Anthropic.Bedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "orchestrator.max_attempts":
		return strconv.Itoa(cfg.Orchestrator.MaxAttempts), nil
	case "orchestrator.plan_attempts":
		return strconv.Itoa(cfg.Orchestrator.PlanAttempts), nil
	case "timeouts.plan":
		return cfg.Timeouts.Plan.String(), nil
	case "timeouts.execute":
		return cfg.Timeouts.Execute.String(), nil
	case "timeouts.judge":
		return cfg.Timeouts.Judge.String(), nil
	case "timeouts.rewrite":
		return cfg.Timeouts.Rewrite.String(), nil
	case "timeouts.synthesize":
		return cfg.Timeouts.Synthesize.String(), nil
	case "agent.max_steps":
		return strconv.Itoa(cfg.Agent.MaxSteps), nil
	case "agent.ask_user":
		return strconv.FormatBool(cfg.Agent.AskUser), nil
	case "input.source":
		return cfg.Input.Source, nil
	case "input.http_addr":
		return cfg.Input.HTTPAddr, nil
	case "input.redis_url":
		return cfg.Input.RedisURL, nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.driver":
		return cfg.History.Driver, nil
	case "history.retention":
		return cfg.History.Retention.String(), nil
	case "prompts":
		return cfg.Prompts, nil
	case "debug_log":
		return strconv.FormatBool(cfg.DebugLog), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.max_tokens":
		cfg.Anthropic.MaxTokens, err = strconv.ParseInt(value, 10, 64)
	case "anthropic.bedrock":
		cfg.Anthropic.Bedrock, err = strconv.ParseBool(value)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "orchestrator.max_attempts":
		cfg.Orchestrator.MaxAttempts, err = strconv.Atoi(value)
	case "orchestrator.plan_attempts":
		cfg.Orchestrator.PlanAttempts, err = strconv.Atoi(value)
	case "timeouts.plan":
		cfg.Timeouts.Plan, err = time.ParseDuration(value)
	case "timeouts.execute":
		cfg.Timeouts.Execute, err = time.ParseDuration(value)
	case "timeouts.judge":
		cfg.Timeouts.Judge, err = time.ParseDuration(value)
	case "timeouts.rewrite":
		cfg.Timeouts.Rewrite, err = time.ParseDuration(value)
	case "timeouts.synthesize":
		cfg.Timeouts.Synthesize, err = time.ParseDuration(value)
	case "agent.max_steps":
		cfg.Agent.MaxSteps, err = strconv.Atoi(value)
	case "agent.ask_user":
		cfg.Agent.AskUser, err = strconv.ParseBool(value)
	case "input.source":
		cfg.Input.Source = value
	case "input.http_addr":
		cfg.Input.HTTPAddr = value
	case "input.redis_url":
		cfg.Input.RedisURL = value
	case "history.enabled":
		cfg.History.Enabled, err = strconv.ParseBool(value)
	case "history.driver":
		cfg.History.Driver = value
	case "history.retention":
		cfg.History.Retention, err = time.ParseDuration(value)
	case "prompts":
		cfg.Prompts = value
	case "debug_log":
		cfg.DebugLog, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
