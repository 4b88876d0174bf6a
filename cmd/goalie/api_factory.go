package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/goalie/internal/api"
	"github.com/ShayCichocki/goalie/internal/config"
)

// newAPIClient creates the Anthropic client shared by the collaborators and
// the executor agent.
func newAPIClient(cfg *config.Config) (*api.Client, error) {
	creds, err := config.ResolveCredentials(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w (set ANTHROPIC_API_KEY or run 'goalie config anthropic.api_key <key>')", err)
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        creds.APIKey,
		MaxTokens:     cfg.Anthropic.MaxTokens,
		UseAWSBedrock: cfg.Anthropic.Bedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return client, nil
}
