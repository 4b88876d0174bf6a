package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Prompter asks a human a question and returns the answer.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, question string) (string, error)

func (f PrompterFunc) Ask(ctx context.Context, question string) (string, error) { return f(ctx, question) }

// AskUser lets the agent ask the operator for information it cannot find.
type AskUser struct {
	prompter Prompter
}

// NewAskUser creates the ask_user tool.
func NewAskUser(p Prompter) *AskUser {
	return &AskUser{prompter: p}
}

func (a *AskUser) Name() string { return "ask_user" }

func (a *AskUser) Description() string {
	return "Ask the user for information you don't have that is best answered by a human. " +
		"Input should be a clear question. Use as a last resort."
}

func (a *AskUser) Parameters() (map[string]interface{}, []string) {
	return map[string]interface{}{
		"question": map[string]interface{}{
			"type":        "string",
			"description": "The question to ask the user",
		},
	}, []string{"question"}
}

func (a *AskUser) Run(ctx context.Context, input json.RawMessage) (string, error) {
	var params struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", err
	}
	question := strings.TrimSpace(params.Question)
	if question == "" {
		return "", errors.New("question is required")
	}

	answer, err := a.prompter.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "The user gave no answer.", nil
	}
	return answer, nil
}
