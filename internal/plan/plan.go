// Package plan parses planner output into tasks and renders the
// completed-task context shared with every downstream collaborator.
package plan

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/goalie/pkg/models"
)

var (
	// ErrNoTasks is returned when the text contains no numbered items.
	ErrNoTasks = errors.New("no numbered tasks found")
	// ErrDuplicateID is returned when two items share an ordinal.
	ErrDuplicateID = errors.New("duplicate task id")
)

// itemPattern matches "<ordinal>. <text>" and "<ordinal>) <text>".
var itemPattern = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)

// Parse extracts the numbered list from planner output.
// Lines that are not list items (headings, blank lines, prose) are ignored.
// Surrounding quotes, commas and brackets left over from array-style output are trimmed.
func Parse(text string) ([]models.Task, error) {
	var tasks []models.Task
	seen := make(map[string]bool)

	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		m := itemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		id := strings.TrimLeft(m[1], "0")
		if id == "" {
			id = "0"
		}
		desc := cleanDescription(m[2])
		if desc == "" {
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = true

		tasks = append(tasks, models.NewTask(id, desc))
	}

	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

// cleanLine strips whitespace, array punctuation and the quotes enclosing an
// array item such as ["1. Do it",
func cleanLine(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), ", \t")
	if !strings.Contains(s, "]") {
		s = strings.TrimPrefix(s, "[")
	}
	if !strings.Contains(s, "[") {
		s = strings.TrimSuffix(s, "]")
	}
	s = strings.TrimSpace(strings.TrimRight(s, ", \t"))

	for enclosed(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// cleanDescription unwraps a description quoted as a whole. A pair is only
// removed when the quote character does not also appear inside, so
// `"Go" vs "Rust"` stays intact.
func cleanDescription(s string) string {
	s = strings.TrimSpace(s)
	for enclosed(s) && !strings.ContainsRune(s[1:len(s)-1], rune(s[0])) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func enclosed(s string) bool {
	return len(s) >= 2 && strings.ContainsRune("\"'`", rune(s[0])) && s[len(s)-1] == s[0]
}

// RenderContext formats completed tasks, one per line, in completion order.
func RenderContext(tasks []models.Task) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = t.ContextLine()
	}
	return strings.Join(lines, "\n")
}
