package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/goalie/pkg/models"
)

func typeText(m *promptModel, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestInputField_SubmitsTrimmedLine(t *testing.T) {
	f := NewInputField("")
	for _, r := range "  hello  " {
		f, _ = f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	msg, ok := cmd().(LineSubmittedMsg)
	if !ok {
		t.Fatalf("cmd returned %T, want LineSubmittedMsg", cmd())
	}
	if msg.Text != "hello" {
		t.Errorf("Text = %q, want hello", msg.Text)
	}
	if f.Value() != "" {
		t.Errorf("input not reset, Value() = %q", f.Value())
	}
}

func TestInputField_BlankEnterIgnored(t *testing.T) {
	f := NewInputField("")
	if _, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("blank enter should not submit")
	}
}

func TestPromptModel_Answer(t *testing.T) {
	m := newPromptModel("Question", "")
	typeText(m, "Lisbon")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	_, quit := m.Update(cmd())
	if quit == nil {
		t.Fatal("expected quit command after submit")
	}
	if m.answer != "Lisbon" || m.aborted {
		t.Errorf("answer = %q, aborted = %v", m.answer, m.aborted)
	}
	if m.View() != "" {
		t.Errorf("View after done = %q, want empty", m.View())
	}
}

func TestPromptModel_Escape(t *testing.T) {
	m := newPromptModel("Question", "")
	typeText(m, "partial")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.aborted {
		t.Error("escape should abort the prompt")
	}
}

func TestPromptModel_View(t *testing.T) {
	m := newPromptModel("What is your objective?", "")
	if !strings.Contains(m.View(), "What is your objective?") {
		t.Errorf("View missing title: %q", m.View())
	}
}

func TestRenderTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Description: "look up the population of Lisbon", Status: models.TaskStatusDone},
		{ID: "2", Description: strings.Repeat("very long description ", 20), Status: models.TaskStatusPending},
		{ID: "3", Description: "compare", Status: models.TaskStatusAbandoned, Attempts: 3},
	}

	out := RenderTasks("Plan", tasks, 60)
	for _, want := range []string{"Plan", "look up the population of Lisbon", "...", "attempt 3", "✓", "✗", "○"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if w := len([]rune(stripANSI(line))); w > 60 {
			t.Errorf("line wider than 60 (%d): %q", w, line)
		}
	}
}

func TestRenderTasks_Empty(t *testing.T) {
	if out := RenderTasks("Queue", nil, 0); !strings.Contains(out, "(no tasks)") {
		t.Errorf("empty table = %q", out)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
