package agent

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/goalie/internal/api"
)

const systemPreamble = `Execute the following task as best you can.
This is what you already know:
%s

You have access to the following tools:
%s

Think step by step. Use a tool whenever it gets you closer to an accurate result.
Ask the user only as a last resort, for information no other tool can provide.
When you are done, reply with a line starting with "Final Answer:" followed by
the result of the task.`

// BuildSystemPrompt renders the executor instructions with the completed-task
// context and the tool list.
func BuildSystemPrompt(priorResults string, tools *api.Toolbox) string {
	if strings.TrimSpace(priorResults) == "" {
		priorResults = "(nothing yet)"
	}
	toolList := tools.Describe()
	if toolList == "" {
		toolList = "(none)"
	}
	return fmt.Sprintf(systemPreamble, priorResults, toolList)
}

// BuildTaskPrompt renders the user turn for one task.
func BuildTaskPrompt(objective, task string) string {
	return fmt.Sprintf("Objective: %s\n\nTask: %s", objective, task)
}
