package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

var (
	// ErrMaxIterations is returned when the loop exhausts its step budget.
	ErrMaxIterations = errors.New("max iterations reached")
	// ErrStopped is returned when the stop check fires between iterations.
	ErrStopped = errors.New("stop signal received")
)

// DefaultMaxIterations is the step budget when none is configured.
const DefaultMaxIterations = 10

// AgentLoop manages the API call and tool execution cycle.
type AgentLoop struct {
	client        *Client
	tools         *Toolbox
	shouldStop    func() bool
	onStream      func(StreamEvent)
	maxIterations int
}

// StreamEvent represents an event during agent execution for streaming to UI.
type StreamEvent struct {
	Type    string // "text", "tool_use", "tool_result", "done", "error"
	Content string
	Tool    string
	Input   json.RawMessage
}

// LoopResult contains the results of an agent loop execution.
type LoopResult struct {
	Output     string
	TokensIn   int64
	TokensOut  int64
	ToolCalls  int
	Iterations int
	Stopped    bool
}

// AgentLoopConfig contains configuration for the agent loop.
type AgentLoopConfig struct {
	Client *Client
	Tools  *Toolbox
	// ShouldStop is polled before each API call.
	ShouldStop func() bool
	// MaxIterations caps API calls per Run. Defaults to DefaultMaxIterations.
	MaxIterations int
}

// NewAgentLoop creates a new agent loop with the given configuration.
func NewAgentLoop(cfg AgentLoopConfig) *AgentLoop {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	return &AgentLoop{
		client:        cfg.Client,
		tools:         cfg.Tools,
		shouldStop:    cfg.ShouldStop,
		maxIterations: maxIter,
	}
}

// SetStreamHandler sets a callback for streaming events during execution.
func (l *AgentLoop) SetStreamHandler(fn func(StreamEvent)) {
	l.onStream = fn
}

func (l *AgentLoop) emit(event StreamEvent) {
	if l.onStream != nil {
		l.onStream(event)
	}
}

// Run converses with the model, executing requested tools, until the model
// ends its turn without asking for a tool.
func (l *AgentLoop) Run(ctx context.Context, systemPrompt, userPrompt string) (*LoopResult, error) {
	result := &LoopResult{}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}

	for result.Iterations < l.maxIterations {
		if l.shouldStop != nil && l.shouldStop() {
			result.Stopped = true
			return result, ErrStopped
		}
		result.Iterations++

		resp, err := l.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
			Model:     l.client.Model(),
			MaxTokens: l.client.maxTokens,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: messages,
			Tools:    l.tools.Definitions(),
		})
		if err != nil {
			l.emit(StreamEvent{Type: "error", Content: err.Error()})
			return result, fmt.Errorf("API call failed: %w", err)
		}

		result.TokensIn += resp.Usage.InputTokens
		result.TokensOut += resp.Usage.OutputTokens
		l.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				l.emit(StreamEvent{Type: "text", Content: variant.Text})
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				result.ToolCalls++
				l.emit(StreamEvent{Type: "tool_use", Tool: variant.Name, Input: variant.Input})
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				toolResult := l.tools.Execute(ctx, variant.Name, variant.Input)
				l.emit(StreamEvent{Type: "tool_result", Tool: variant.Name, Content: truncateForDisplay(toolResult.Content)})

				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, toolResult.Content, toolResult.IsError))
			}
		}

		if resp.StopReason == anthropic.StopReasonEndTurn || len(toolResultBlocks) == 0 {
			result.Output = textOutput
			l.emit(StreamEvent{Type: "done"})
			return result, nil
		}

		messages = append(messages,
			anthropic.NewAssistantMessage(assistantBlocks...),
			anthropic.NewUserMessage(toolResultBlocks...))
	}

	return result, fmt.Errorf("%w (%d)", ErrMaxIterations, l.maxIterations)
}

func truncateForDisplay(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
