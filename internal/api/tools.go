package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Tool is an action primitive the agent loop can invoke.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema properties and required field names.
	Parameters() (properties map[string]interface{}, required []string)
	// Run executes the tool. Errors are reported back to the model, not the caller.
	Run(ctx context.Context, input json.RawMessage) (string, error)
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Content string
	IsError bool
}

// Toolbox is an ordered set of tools addressed by name.
type Toolbox struct {
	tools  []Tool
	byName map[string]Tool
}

// NewToolbox creates a toolbox. Later tools replace earlier ones with the same name.
func NewToolbox(tools ...Tool) *Toolbox {
	b := &Toolbox{byName: make(map[string]Tool)}
	for _, tool := range tools {
		b.Add(tool)
	}
	return b
}

// Add registers a tool.
func (b *Toolbox) Add(tool Tool) {
	if _, exists := b.byName[tool.Name()]; exists {
		for i, t := range b.tools {
			if t.Name() == tool.Name() {
				b.tools[i] = tool
			}
		}
	} else {
		b.tools = append(b.tools, tool)
	}
	b.byName[tool.Name()] = tool
}

// Len returns the number of tools.
func (b *Toolbox) Len() int {
	if b == nil {
		return 0
	}
	return len(b.tools)
}

// Names returns tool names in registration order.
func (b *Toolbox) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, len(b.tools))
	for i, t := range b.tools {
		names[i] = t.Name()
	}
	return names
}

// Describe renders "name: description" lines for prompts.
func (b *Toolbox) Describe() string {
	if b == nil {
		return ""
	}
	lines := make([]string, len(b.tools))
	for i, t := range b.tools {
		lines[i] = fmt.Sprintf("%s: %s", t.Name(), t.Description())
	}
	return strings.Join(lines, "\n")
}

// Definitions returns the tool schemas for API calls.
func (b *Toolbox) Definitions() []anthropic.ToolUnionParam {
	if b == nil {
		return nil
	}
	defs := make([]anthropic.ToolUnionParam, 0, len(b.tools))
	for _, t := range b.tools {
		props, required := t.Parameters()
		defs = append(defs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name(),
				Description: anthropic.String(t.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: props,
					Required:   required,
				},
			},
		})
	}
	return defs
}

// Execute runs a tool by name with the given JSON input.
func (b *Toolbox) Execute(ctx context.Context, name string, input json.RawMessage) ToolResult {
	if b == nil {
		return ToolResult{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
	tool, ok := b.byName[name]
	if !ok {
		return ToolResult{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}

	out, err := tool.Run(ctx, input)
	if err != nil {
		return ToolResult{Content: fmt.Sprintf("%s failed: %v", name, err), IsError: true}
	}
	return ToolResult{Content: out}
}
