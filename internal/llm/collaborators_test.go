package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/goalie/internal/orchestrator"
	"github.com/ShayCichocki/goalie/pkg/models"
)

// fakeCompleter returns a fixed reply and records the last prompt.
type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.prompt = user
	return f.reply, f.err
}

func TestPlan(t *testing.T) {
	fc := &fakeCompleter{reply: "Here is the plan:\n1. Buy milk\n2. Walk dog\n"}
	c := New(fc, DefaultPrompts(), "calculator: does math")

	tasks, err := c.Plan(context.Background(), "Run errands")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Description != "Buy milk" || tasks[1].ID != "2" {
		t.Errorf("tasks = %+v", tasks)
	}
	if !strings.Contains(fc.prompt, "Run errands") || !strings.Contains(fc.prompt, "calculator: does math") {
		t.Errorf("prompt missing objective or tools:\n%s", fc.prompt)
	}
}

func TestPlan_Errors(t *testing.T) {
	c := New(&fakeCompleter{reply: "I cannot help with that."}, DefaultPrompts(), "")
	if _, err := c.Plan(context.Background(), "x"); !errors.Is(err, orchestrator.ErrGeneration) {
		t.Errorf("unparseable plan err = %v, want ErrGeneration", err)
	}

	c = New(&fakeCompleter{err: errors.New("overloaded")}, DefaultPrompts(), "")
	_, err := c.Plan(context.Background(), "x")
	if err == nil || errors.Is(err, orchestrator.ErrGeneration) {
		t.Errorf("API failure err = %v, want non-generation error", err)
	}
}

func TestJudgeTask(t *testing.T) {
	tests := []struct {
		reply string
		err   error
		want  orchestrator.Verdict
	}{
		{"true", nil, orchestrator.VerdictSuccess},
		{"True.", nil, orchestrator.VerdictSuccess},
		{"false", nil, orchestrator.VerdictRetryable},
		{"I think it is false because...", nil, orchestrator.VerdictRetryable},
		{"maybe", nil, orchestrator.VerdictRetryable},
		{"", errors.New("timeout"), orchestrator.VerdictFatal},
	}

	task := models.NewTask("1", "Find the capital of France").WithResult("Paris")
	for _, tt := range tests {
		fc := &fakeCompleter{reply: tt.reply, err: tt.err}
		c := New(fc, DefaultPrompts(), "")

		j := c.JudgeTask(context.Background(), "geography", "0. earlier, result: x", task)
		if j.Verdict != tt.want {
			t.Errorf("reply %q: verdict = %s, want %s", tt.reply, j.Verdict, tt.want)
		}
		if j.Verdict == orchestrator.VerdictFatal && !errors.Is(j.Err, orchestrator.ErrJudge) {
			t.Errorf("fatal judgement err = %v, want ErrJudge", j.Err)
		}
		if tt.err == nil && (!strings.Contains(fc.prompt, "Paris") || !strings.Contains(fc.prompt, "0. earlier, result: x")) {
			t.Errorf("prompt missing result or context:\n%s", fc.prompt)
		}
	}
}

func TestJudgeObjective(t *testing.T) {
	c := New(&fakeCompleter{reply: "true"}, DefaultPrompts(), "")
	if j := c.JudgeObjective(context.Background(), "o", "ctx"); j.Verdict != orchestrator.VerdictSuccess {
		t.Errorf("verdict = %s, want success", j.Verdict)
	}

	c = New(&fakeCompleter{reply: "false"}, DefaultPrompts(), "")
	if j := c.JudgeObjective(context.Background(), "o", "ctx"); j.Verdict != orchestrator.VerdictRetryable {
		t.Errorf("verdict = %s, want retryable", j.Verdict)
	}

	c = New(&fakeCompleter{err: errors.New("boom")}, DefaultPrompts(), "")
	if j := c.JudgeObjective(context.Background(), "o", "ctx"); j.Verdict != orchestrator.VerdictFatal {
		t.Errorf("verdict = %s, want fatal", j.Verdict)
	}
}

func TestRewrite(t *testing.T) {
	fc := &fakeCompleter{reply: "Revised task: Search an encyclopedia for the capital of France.\n\nThis should work."}
	c := New(fc, DefaultPrompts(), "")

	task := models.NewTask("1", "Find the capital")
	task.LastError = "result was vague"
	out, err := c.Rewrite(context.Background(), "geography", task)
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	if out != "Search an encyclopedia for the capital of France." {
		t.Errorf("Rewrite = %q", out)
	}
	if !strings.Contains(fc.prompt, "result was vague") {
		t.Errorf("prompt missing failure reason:\n%s", fc.prompt)
	}
}

func TestSynthesize(t *testing.T) {
	c := New(&fakeCompleter{reply: "  # Answer\n1. Paris  "}, DefaultPrompts(), "")
	out, err := c.Synthesize(context.Background(), "o", "1. a, result: b")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if out != "# Answer\n1. Paris" {
		t.Errorf("Synthesize = %q", out)
	}

	c = New(&fakeCompleter{reply: "   "}, DefaultPrompts(), "")
	if _, err := c.Synthesize(context.Background(), "o", ""); err == nil {
		t.Error("empty answer should fail")
	}
}

func TestCleanTaskLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Search the web for X", "Search the web for X"},
		{"1. Search the web for X", "Search the web for X"},
		{"Task: \"Search the web\"", "Search the web"},
		{"New task description: look harder", "look harder"},
		{"\n\n  Try again  \nextra", "Try again"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanTaskLine(tt.in); got != tt.want {
			t.Errorf("CleanTaskLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadPrompts(t *testing.T) {
	prompts, err := LoadPrompts("")
	if err != nil {
		t.Fatalf("LoadPrompts(\"\") failed: %v", err)
	}
	if prompts != DefaultPrompts() {
		t.Error("empty path should return defaults")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	data := "planner: |\n  Plan {{.Objective}} as a numbered list.\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	prompts, err = LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts failed: %v", err)
	}
	if !strings.HasPrefix(prompts.Planner, "Plan {{.Objective}}") {
		t.Errorf("Planner = %q", prompts.Planner)
	}
	if prompts.Synthesizer != DefaultPrompts().Synthesizer {
		t.Error("unset templates should keep defaults")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("planner: \"{{.Objective\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPrompts(bad); err == nil {
		t.Error("invalid template should fail")
	}

	if _, err := LoadPrompts(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestDefaultPromptsValid(t *testing.T) {
	if err := DefaultPrompts().Validate(); err != nil {
		t.Fatalf("default prompts invalid: %v", err)
	}
}

func TestWritePrompts_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prompts.yaml")
	if err := WritePrompts(path, DefaultPrompts()); err != nil {
		t.Fatalf("WritePrompts failed: %v", err)
	}

	loaded, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts failed: %v", err)
	}
	if loaded != DefaultPrompts() {
		t.Error("written defaults did not load back unchanged")
	}
}
