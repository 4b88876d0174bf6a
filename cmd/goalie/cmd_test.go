package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/goalie/internal/config"
	"github.com/ShayCichocki/goalie/internal/orchestrator"
	"github.com/ShayCichocki/goalie/pkg/models"
)

func init() {
	color.NoColor = true
}

func TestConfigValue_SetAndGet(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{key: "orchestrator.max_attempts", value: "5", want: "5"},
		{key: "timeouts.execute", value: "90s", want: "1m30s"},
		{key: "agent.ask_user", value: "false", want: "false"},
		{key: "history.driver", value: "sqlite3", want: "sqlite3"},
		{key: "Anthropic.Model", value: "claude-x", want: "claude-x"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := config.Default()
			if err := setConfigValue(cfg, tt.key, tt.value); err != nil {
				t.Fatalf("setConfigValue failed: %v", err)
			}
			got, err := getConfigValue(cfg, tt.key)
			if err != nil {
				t.Fatalf("getConfigValue failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigValue_Errors(t *testing.T) {
	cfg := config.Default()
	if _, err := getConfigValue(cfg, "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := setConfigValue(cfg, "timeouts.plan", "soon"); err == nil {
		t.Error("expected error for bad duration")
	}
	if err := setConfigValue(cfg, "anthropic.api_key", "not-a-key"); err == nil {
		t.Error("expected error for malformed api key")
	}
}

func TestConfigValue_MasksAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-REDACTED"

	got, _ := getConfigValue(cfg, "anthropic.api_key")
	if strings.Contains(got, "abcdefghijklmnop") {
		t.Errorf("api key not masked: %q", got)
	}
}

func TestTimeoutsFrom(t *testing.T) {
	got := timeoutsFrom(config.TimeoutsConfig{Plan: time.Minute, Judge: 2 * time.Second})
	if got.Plan != time.Minute || got.Judge != 2*time.Second || got.Execute != 0 {
		t.Errorf("unexpected timeouts: %+v", got)
	}
}

func TestUpdateGitignore(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".gitignore")
	if err := os.WriteFile(path, []byte("bin/"), 0644); err != nil {
		t.Fatal(err)
	}

	updated, err := updateGitignore(root)
	if err != nil || !updated {
		t.Fatalf("first update = %v, %v", updated, err)
	}
	data, _ := os.ReadFile(path)
	for _, entry := range gitignoreEntries {
		if !strings.Contains(string(data), entry) {
			t.Errorf("missing %q in .gitignore", entry)
		}
	}
	if !strings.HasPrefix(string(data), "bin/\n") {
		t.Errorf("existing entries not preserved: %q", data)
	}

	updated, err = updateGitignore(root)
	if err != nil || updated {
		t.Errorf("second update = %v, %v; want no change", updated, err)
	}
}

func TestNarrator_WaitReleasedByAnswer(t *testing.T) {
	var buf bytes.Buffer
	n := newNarrator(&buf, false)

	n.Handle(orchestrator.Event{Type: orchestrator.EventObjectiveReceived, RunID: "r1", Objective: "count stars"})
	n.Handle(orchestrator.Event{Type: orchestrator.EventAnswerReady, RunID: "r1"})

	done := make(chan struct{})
	go func() {
		n.Wait("r1", time.Minute)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the answer event")
	}

	if !strings.Contains(buf.String(), "count stars") {
		t.Errorf("objective not narrated: %q", buf.String())
	}
}

func TestNarrator_LateEventAfterTimeoutLeavesNoEntry(t *testing.T) {
	n := newNarrator(&bytes.Buffer{}, false)

	n.Wait("r2", 10*time.Millisecond)
	n.Handle(orchestrator.Event{Type: orchestrator.EventRunFailed, RunID: "r2"})

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.done) != 0 || len(n.expired) != 0 {
		t.Errorf("entries left behind: done=%d expired=%d", len(n.done), len(n.expired))
	}
}

func TestNarrator_VerboseOnlyEvents(t *testing.T) {
	var quiet, loud bytes.Buffer
	ev := orchestrator.Event{Type: orchestrator.EventStateChanged, State: orchestrator.StatePlanning, Message: "AwaitingObjective"}

	newNarrator(&quiet, false).Handle(ev)
	newNarrator(&loud, true).Handle(ev)

	if quiet.Len() != 0 {
		t.Errorf("quiet narrator printed %q", quiet.String())
	}
	if !strings.Contains(loud.String(), "[state]") {
		t.Errorf("verbose narrator printed %q", loud.String())
	}
}

func TestPreview(t *testing.T) {
	if got := preview("a\n\n b   c"); got != "a b c" {
		t.Errorf("preview collapsed to %q", got)
	}
	long := strings.Repeat("x", resultPreview+10)
	if got := preview(long); len([]rune(got)) != resultPreview+3 {
		t.Errorf("preview length = %d", len([]rune(got)))
	}
}

func TestTaskLabel(t *testing.T) {
	if got := taskLabel(&models.Task{ID: "2", Description: "sum"}); got != "2. sum" {
		t.Errorf("taskLabel = %q", got)
	}
	if taskLabel(nil) != "" {
		t.Error("nil task should have empty label")
	}
}
