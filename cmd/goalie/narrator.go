package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/goalie/internal/api"
	"github.com/ShayCichocki/goalie/internal/orchestrator"
	"github.com/ShayCichocki/goalie/internal/tui"
	"github.com/ShayCichocki/goalie/pkg/models"
)

var (
	bold    = color.New(color.Bold)
	faint   = color.New(color.Faint)
	cyan    = color.New(color.FgCyan, color.Bold)
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed)
	magenta = color.New(color.FgMagenta)
)

// resultPreview bounds task results shown in the narration.
const resultPreview = 300

// narrator prints orchestrator events as a colored console story.
type narrator struct {
	out     io.Writer
	verbose bool

	mu   sync.Mutex
	done map[string]chan struct{}
	// expired holds runs whose Wait gave up before the terminal event.
	expired map[string]struct{}
}

func newNarrator(out io.Writer, verbose bool) *narrator {
	return &narrator{
		out:     out,
		verbose: verbose,
		done:    make(map[string]chan struct{}),
		expired: make(map[string]struct{}),
	}
}

// Handle prints one event.
func (n *narrator) Handle(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventStateChanged:
		if n.verbose {
			n.printf("%s %s -> %s\n", faint.Sprint("[state]"), ev.Message, ev.State)
		}
	case orchestrator.EventObjectiveReceived:
		n.printf("\n%s %s %s\n", cyan.Sprint("Objective"), ev.Objective, faint.Sprintf("(run %s)", ev.RunID))
	case orchestrator.EventPlanGenerated:
		n.printf("%s\n", tui.RenderTasks("Plan", ev.Tasks, 80))
	case orchestrator.EventTaskStarted:
		n.printf("%s %s\n", magenta.Sprint("▶ Task"), taskLabel(ev.Task))
	case orchestrator.EventTaskExecuted:
		if n.verbose {
			n.printf("  %s %s %s\n", faint.Sprint("result:"), preview(ev.Message), faint.Sprint(ev.Duration.Round(time.Millisecond)))
		}
	case orchestrator.EventTaskCompleted:
		n.printf("  %s\n", green.Sprint("✓ done"))
		if !n.verbose && ev.Task != nil {
			n.printf("    %s\n", preview(ev.Task.Result))
		}
	case orchestrator.EventTaskFailed:
		n.printf("  %s %v\n", red.Sprint("✗ failed:"), ev.Error)
	case orchestrator.EventTaskRejected:
		n.printf("  %s %s\n", yellow.Sprint("✗ rejected:"), orDefault(ev.Message, "result did not accomplish the task"))
	case orchestrator.EventTaskRetried:
		n.printf("  %s %s\n", yellow.Sprint("↻ retrying as:"), taskLabel(ev.Task))
	case orchestrator.EventTaskAbandoned:
		n.printf("  %s %s\n", red.Sprint("⊘ abandoned:"), taskLabel(ev.Task))
	case orchestrator.EventObjectiveChecked:
		if n.verbose {
			n.printf("%s %s\n", faint.Sprint("[objective]"), ev.Message)
		}
	case orchestrator.EventAnswerReady:
		n.finish(ev.RunID)
	case orchestrator.EventRunFailed:
		if n.verbose {
			n.printf("%s %v\n", red.Sprint("[aborted]"), ev.Error)
		}
		n.finish(ev.RunID)
	}
}

// Wait blocks until the terminal event of runID was handled or timeout passes.
func (n *narrator) Wait(runID string, timeout time.Duration) {
	n.mu.Lock()
	ch := n.doneCh(runID)
	n.mu.Unlock()

	timedOut := false
	select {
	case <-ch:
	case <-time.After(timeout):
		timedOut = true
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.done, runID)
	if timedOut {
		select {
		case <-ch:
		default:
			n.expired[runID] = struct{}{}
		}
	}
}

// doneCh returns the channel for runID, creating it. n.mu must be held.
func (n *narrator) doneCh(runID string) chan struct{} {
	ch, ok := n.done[runID]
	if !ok {
		ch = make(chan struct{})
		n.done[runID] = ch
	}
	return ch
}

// finish releases the waiter of runID. The entry is created when the event
// beats Wait, and skipped when Wait already gave up.
func (n *narrator) finish(runID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.expired[runID]; ok {
		delete(n.expired, runID)
		return
	}
	ch := n.doneCh(runID)
	select {
	case <-ch:
	default:
		close(ch)
	}
}

// Summary prints token usage for the session.
func (n *narrator) Summary(t *api.TokenTracker) {
	if t == nil || t.Calls() == 0 {
		return
	}
	in, out := t.Total()
	n.printf("%s %d calls, %d input / %d output tokens, ~$%.4f\n",
		faint.Sprint("Session usage:"), t.Calls(), in, out, t.Cost())
}

func (n *narrator) printf(format string, args ...interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, format, args...)
}

func taskLabel(t *models.Task) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%s. %s", t.ID, t.Description)
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > resultPreview {
		return string(r[:resultPreview]) + "..."
	}
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
