package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/goalie/internal/input"
	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

// promptModel asks a single question and quits once it is answered.
type promptModel struct {
	title   string
	field   *InputField
	answer  string
	aborted bool
	done    bool
}

func newPromptModel(title, placeholder string) *promptModel {
	return &promptModel{
		title: title,
		field: NewInputField(placeholder),
	}
}

func (m *promptModel) Init() tea.Cmd {
	return m.field.Focus()
}

func (m *promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.field.SetWidth(min(msg.Width, 100))
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			m.aborted = true
			m.done = true
			return m, tea.Quit
		}
	case LineSubmittedMsg:
		m.answer = msg.Text
		m.done = true
		m.field.Blur()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("15")).
	Padding(0, 1)

var hintStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("244"))

func (m *promptModel) View() string {
	if m.done {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.title),
		m.field.View(),
		hintStyle.Render("  enter to submit, esc to cancel"),
	) + "\n"
}

// Prompt shows title above a text input and returns the submitted line.
// Escape and ctrl+c return an error wrapping orchestrator.ErrInputAborted.
func Prompt(ctx context.Context, in io.Reader, out io.Writer, title, placeholder string) (string, error) {
	m := newPromptModel(title, placeholder)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}

	pm := final.(*promptModel)
	if pm.aborted {
		return "", fmt.Errorf("%w: prompt canceled", orchestrator.ErrInputAborted)
	}
	return pm.answer, nil
}

// Source reads objectives and ask_user answers through Prompt. Calls are
// serialized so the objective prompt and agent questions never overlap.
type Source struct {
	in  io.Reader
	out io.Writer
	mu  sync.Mutex
}

// NewSource creates a Source on the given terminal streams.
func NewSource(in io.Reader, out io.Writer) *Source {
	return &Source{in: in, out: out}
}

// NextObjective implements orchestrator.ObjectiveSource.
func (s *Source) NextObjective(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := Prompt(ctx, s.in, s.out, "What is your objective?", "e.g. compare the populations of Lisbon and Porto")
	if err != nil {
		return "", err
	}
	if input.IsQuit(line) {
		return "", fmt.Errorf("%w: %s", orchestrator.ErrInputAborted, strings.TrimSpace(line))
	}
	return line, nil
}

// Ask implements agent.Prompter.
func (s *Source) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Prompt(ctx, s.in, s.out, "The agent asks: "+strings.TrimSpace(question), "type your answer")
}
