package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/goalie/pkg/models"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")) // gray
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))  // green
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))  // dark green
	abandonedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
)

func statusStyle(s models.TaskStatus) lipgloss.Style {
	switch s {
	case models.TaskStatusInProgress:
		return runningStyle
	case models.TaskStatusDone:
		return doneStyle
	case models.TaskStatusAbandoned:
		return abandonedStyle
	default:
		return pendingStyle
	}
}

func statusIcon(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusInProgress:
		return "●"
	case models.TaskStatusDone:
		return "✓"
	case models.TaskStatusAbandoned:
		return "✗"
	default:
		return "○"
	}
}

// RenderTasks renders tasks as a bordered table: id, status and
// description. Descriptions are truncated to fit width.
func RenderTasks(title string, tasks []models.Task, width int) string {
	if width < 40 {
		width = 40
	}

	idWidth := 2
	for _, t := range tasks {
		idWidth = max(idWidth, lipgloss.Width(t.ID))
	}
	// border, padding, icon and separators
	descWidth := width - idWidth - 8

	lines := []string{headerStyle.Render(title)}
	if len(tasks) == 0 {
		lines = append(lines, pendingStyle.Render("(no tasks)"))
	}
	for _, t := range tasks {
		style := statusStyle(t.Status)
		desc := truncate(strings.Join(strings.Fields(t.Description), " "), descWidth)
		if t.Attempts > 1 {
			desc = truncate(fmt.Sprintf("%s (attempt %d)", desc, t.Attempts), descWidth)
		}
		lines = append(lines, fmt.Sprintf("%s %*s  %s",
			style.Render(statusIcon(t.Status)),
			idWidth, t.ID,
			style.Render(desc),
		))
	}

	return tableBorderStyle.Width(width - 2).Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if n <= 3 {
		n = 3
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
