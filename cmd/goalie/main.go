// Command goalie pursues objectives autonomously: it plans tasks, executes
// them with a tool-using agent, judges the results and synthesizes an answer.
package main

func main() {
	Execute()
}
