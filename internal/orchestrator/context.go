package orchestrator

import (
	"time"

	"github.com/ShayCichocki/goalie/internal/plan"
	"github.com/ShayCichocki/goalie/internal/queue"
	"github.com/ShayCichocki/goalie/pkg/models"
)

// runContext is the mutable state of one run. Only the orchestrator goroutine
// reads or writes it.
type runContext struct {
	runID     string
	objective string
	startedAt time.Time
	pending   *queue.Deque[models.Task]
	completed queue.Log[models.Task]
	abandoned queue.Log[models.Task]
	current   *models.Task
}

func newRunContext() *runContext {
	return &runContext{pending: queue.NewDeque[models.Task]()}
}

// reset returns the context to its process-start form.
func (rc *runContext) reset() {
	rc.runID = ""
	rc.objective = ""
	rc.startedAt = time.Time{}
	rc.pending.Clear()
	rc.completed.Reset()
	rc.abandoned.Reset()
	rc.current = nil
}

// priorResults renders the completed log for collaborators.
func (rc *runContext) priorResults() string {
	return plan.RenderContext(rc.completed.Items())
}

func (rc *runContext) snapshot() Snapshot {
	s := Snapshot{
		RunID:     rc.runID,
		Objective: rc.objective,
		Pending:   rc.pending.Items(),
		Completed: rc.completed.Items(),
		Abandoned: rc.abandoned.Items(),
	}
	if rc.current != nil {
		cur := *rc.current
		s.Current = &cur
	}
	return s
}

// Snapshot is a copy of the run context.
type Snapshot struct {
	RunID     string
	Objective string
	Pending   []models.Task
	Completed []models.Task
	Abandoned []models.Task
	Current   *models.Task
}

// IsEmpty reports whether the snapshot matches a freshly started process.
func (s Snapshot) IsEmpty() bool {
	return s.RunID == "" && s.Objective == "" &&
		len(s.Pending) == 0 && len(s.Completed) == 0 && len(s.Abandoned) == 0 &&
		s.Current == nil
}
