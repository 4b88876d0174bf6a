package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

func TestLineSource_NextObjective(t *testing.T) {
	var out bytes.Buffer
	src := NewLineSource(strings.NewReader("find the weather\nquit\n"), &out)

	got, err := src.NextObjective(context.Background())
	if err != nil {
		t.Fatalf("NextObjective failed: %v", err)
	}
	if got != "find the weather" {
		t.Errorf("objective = %q, want %q", got, "find the weather")
	}
	if !strings.Contains(out.String(), DefaultPrompt) {
		t.Errorf("prompt not written, got %q", out.String())
	}

	_, err = src.NextObjective(context.Background())
	if !errors.Is(err, orchestrator.ErrInputAborted) {
		t.Errorf("quit error = %v, want ErrInputAborted", err)
	}
}

func TestLineSource_EOFAborts(t *testing.T) {
	src := NewLineSource(strings.NewReader(""), nil)

	_, err := src.NextObjective(context.Background())
	if !errors.Is(err, orchestrator.ErrInputAborted) {
		t.Errorf("EOF error = %v, want ErrInputAborted", err)
	}
}

func TestLineSource_AskSharesReader(t *testing.T) {
	var out bytes.Buffer
	src := NewLineSource(strings.NewReader("plan a trip\n  Lisbon  \n"), &out)

	if _, err := src.NextObjective(context.Background()); err != nil {
		t.Fatalf("NextObjective failed: %v", err)
	}
	answer, err := src.Ask(context.Background(), "Where to?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer != "Lisbon" {
		t.Errorf("answer = %q, want Lisbon", answer)
	}
	if !strings.Contains(out.String(), "Where to?") {
		t.Errorf("question not written, got %q", out.String())
	}
}

func TestLineSource_CanceledReadIsHandedOn(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewLineSource(pr, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := src.NextObjective(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}

	go func() {
		pw.Write([]byte("late objective\n"))
	}()

	got, err := src.NextObjective(context.Background())
	if err != nil {
		t.Fatalf("NextObjective failed: %v", err)
	}
	if got != "late objective" {
		t.Errorf("objective = %q, want %q", got, "late objective")
	}
}

func TestLineSource_CanceledAnswerNotTakenAsObjective(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer
	src := NewLineSource(pr, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := src.Ask(ctx, "Which city?"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}

	// The operator answers the abandoned question.
	if _, err := pw.Write([]byte("Lisbon\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(src.lines) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("answer never reached the source")
		}
		time.Sleep(time.Millisecond)
	}

	go func() {
		pw.Write([]byte("find flights\n"))
	}()

	got, err := src.NextObjective(context.Background())
	if err != nil {
		t.Fatalf("NextObjective failed: %v", err)
	}
	if got != "find flights" {
		t.Errorf("objective = %q, want %q", got, "find flights")
	}
	if !strings.HasSuffix(out.String(), DefaultPrompt) {
		t.Errorf("objective prompt not printed after the question: %q", out.String())
	}
}

func TestLineSource_CanceledAskThenObjectivePrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer
	src := NewLineSource(pr, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := src.Ask(ctx, "Which city?"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := src.NextObjective(context.Background())
		done <- result{line, err}
	}()

	// Type only once the objective prompt owns the pending read.
	deadline := time.Now().Add(2 * time.Second)
	for {
		src.mu.Lock()
		ready := src.pending && src.pendingKind == readObjective
		src.mu.Unlock()
		if ready {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("objective read never took over the pending line")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := pw.Write([]byte("compare prices\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := <-done
	got, err := r.line, r.err
	if err != nil {
		t.Fatalf("NextObjective failed: %v", err)
	}
	if got != "compare prices" {
		t.Errorf("objective = %q, want %q", got, "compare prices")
	}
	if !strings.Contains(out.String(), "Which city?") || !strings.HasSuffix(out.String(), DefaultPrompt) {
		t.Errorf("prompts = %q, want the question followed by the objective prompt", out.String())
	}
}

func TestIsQuit(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"quit", true},
		{"  EXIT ", true},
		{":q", true},
		{"quite a task", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsQuit(tt.line); got != tt.want {
			t.Errorf("IsQuit(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
