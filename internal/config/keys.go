package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoAPIKey is returned when neither an API key nor Bedrock is configured.
	ErrNoAPIKey = errors.New("no Anthropic API key configured")
	// ErrInvalidAPIKey is returned by ValidateAPIKey for malformed keys.
	ErrInvalidAPIKey = errors.New("invalid Anthropic API key")
)

const apiKeyPrefix = "sk-ant-"

// keyEnvVars are consulted in order before the config file.
var keyEnvVars = []string{"GOALIE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}

// KeySource says where the credentials came from.
type KeySource string

const (
	KeySourceEnv     KeySource = "environment"
	KeySourceConfig  KeySource = "config_file"
	KeySourceBedrock KeySource = "aws_bedrock"
	KeySourceNone    KeySource = "none"
)

// Credentials is what the API client authenticates with. APIKey is empty
// for Bedrock, which uses the AWS credential chain.
type Credentials struct {
	APIKey string
	Source KeySource
	// Origin names the variable, file or AWS profile behind Source.
	Origin string
}

// String describes the credentials without revealing the key.
func (c Credentials) String() string {
	switch c.Source {
	case KeySourceBedrock:
		return "AWS Bedrock (" + c.Origin + ")"
	case KeySourceNone:
		return "none"
	default:
		return fmt.Sprintf("%s from %s", MaskAPIKey(c.APIKey), c.Origin)
	}
}

// ResolveCredentials picks the credentials for cfg: Bedrock when enabled,
// then GOALIE_ANTHROPIC_API_KEY, ANTHROPIC_API_KEY and finally
// anthropic.api_key. Config values that still hold an unexpanded ${VAR}
// reference count as unset.
func ResolveCredentials(cfg *Config) (Credentials, error) {
	if cfg != nil && cfg.Anthropic.Bedrock {
		profile := cfg.Anthropic.AWSProfile
		if profile == "" {
			profile = "default profile"
		}
		return Credentials{Source: KeySourceBedrock, Origin: profile + ", " + cfg.Anthropic.AWSRegion}, nil
	}

	for _, name := range keyEnvVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return Credentials{APIKey: key, Source: KeySourceEnv, Origin: name}, nil
		}
	}

	if cfg != nil {
		key := strings.TrimSpace(os.ExpandEnv(cfg.Anthropic.APIKey))
		if key != "" && !strings.HasPrefix(key, "${") {
			return Credentials{APIKey: key, Source: KeySourceConfig, Origin: "anthropic.api_key"}, nil
		}
	}

	return Credentials{Source: KeySourceNone}, ErrNoAPIKey
}

// ValidateAPIKey checks the shape of a key before it is saved. It does not
// contact the API.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrNoAPIKey
	case !strings.HasPrefix(key, apiKeyPrefix):
		return fmt.Errorf("%w: expected %q prefix", ErrInvalidAPIKey, apiKeyPrefix)
	case strings.ContainsAny(key, " \t\r\n"):
		return fmt.Errorf("%w: contains whitespace", ErrInvalidAPIKey)
	case len(key) < len(apiKeyPrefix)+12:
		return fmt.Errorf("%w: too short", ErrInvalidAPIKey)
	}
	return nil
}

// MaskAPIKey keeps the sk-ant- prefix and the last four characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if !strings.HasPrefix(key, apiKeyPrefix) || len(key) < len(apiKeyPrefix)+8 {
		return "***"
	}
	return apiKeyPrefix + "..." + key[len(key)-4:]
}
