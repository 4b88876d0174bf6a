package input

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

// TicketStatus is the lifecycle of an objective submitted over HTTP.
type TicketStatus string

const (
	TicketQueued    TicketStatus = "queued"
	TicketRunning   TicketStatus = "running"
	TicketCompleted TicketStatus = "completed"
	TicketFailed    TicketStatus = "failed"
)

// Ticket tracks one submitted objective.
type Ticket struct {
	ID          string       `json:"id"`
	Objective   string       `json:"objective"`
	Status      TicketStatus `json:"status"`
	RunID       string       `json:"run_id,omitempty"`
	Answer      string       `json:"answer,omitempty"`
	Error       string       `json:"error,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
}

// DefaultQueueSize bounds objectives waiting for the orchestrator.
const DefaultQueueSize = 64

// maxRecentEvents bounds the event history served by /status.
const maxRecentEvents = 50

// ErrQueueFull is returned when the intake queue is at capacity.
var ErrQueueFull = errors.New("objective queue full")

type statusEvent struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	State     string    `json:"state"`
	Task      string    `json:"task,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HTTPIntake accepts objectives over HTTP and serves their answers. It is an
// objective source, an answer sink and an event observer at once.
type HTTPIntake struct {
	queue chan string

	mu      sync.RWMutex
	tickets map[string]*Ticket
	current string
	state   string
	runID   string
	recent  []statusEvent
}

// NewHTTPIntake creates an intake with the given queue capacity.
func NewHTTPIntake(queueSize int) *HTTPIntake {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &HTTPIntake{
		queue:   make(chan string, queueSize),
		tickets: make(map[string]*Ticket),
		state:   string(orchestrator.StateAwaitingObjective),
	}
}

// Submit queues an objective and returns its ticket.
func (h *HTTPIntake) Submit(objective string) (*Ticket, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, orchestrator.ErrEmptyObjective
	}

	t := &Ticket{
		ID:          uuid.New().String(),
		Objective:   objective,
		Status:      TicketQueued,
		SubmittedAt: time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case h.queue <- t.ID:
	default:
		return nil, ErrQueueFull
	}
	h.tickets[t.ID] = t
	out := *t
	return &out, nil
}

// NextObjective blocks until an objective is submitted.
func (h *HTTPIntake) NextObjective(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case id := <-h.queue:
		h.mu.Lock()
		defer h.mu.Unlock()
		t := h.tickets[id]
		t.Status = TicketRunning
		h.current = id
		return t.Objective, nil
	}
}

// Deliver records the result against the ticket currently running.
func (h *HTTPIntake) Deliver(_ context.Context, res Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == "" {
		return fmt.Errorf("deliver result for %q: no objective in flight", res.Objective)
	}
	t := h.tickets[h.current]
	h.current = ""

	now := time.Now()
	t.FinishedAt = &now
	t.RunID = res.RunID()
	if res.Err != nil {
		t.Status = TicketFailed
		t.Error = res.Err.Error()
		return nil
	}
	t.Status = TicketCompleted
	t.Answer = res.Answer()
	return nil
}

// Observe records an orchestrator event for the status endpoint.
func (h *HTTPIntake) Observe(ev orchestrator.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = string(ev.State)
	if ev.RunID != "" {
		h.runID = ev.RunID
	}
	se := statusEvent{
		Type:      string(ev.Type),
		RunID:     ev.RunID,
		State:     string(ev.State),
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	}
	if ev.Task != nil {
		se.Task = ev.Task.ID + ". " + ev.Task.Description
	}
	if ev.Error != nil {
		se.Error = ev.Error.Error()
	}
	h.recent = append(h.recent, se)
	if len(h.recent) > maxRecentEvents {
		h.recent = h.recent[len(h.recent)-maxRecentEvents:]
	}
}

// Ticket returns a copy of the ticket with the given id.
func (h *HTTPIntake) Ticket(id string) (Ticket, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

// Handler builds the gin engine serving the intake API.
func (h *HTTPIntake) Handler() *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	g.POST("/objectives", h.createObjective)
	g.GET("/answers/:id", h.getAnswer)
	g.GET("/status", h.getStatus)
	return g
}

func (h *HTTPIntake) createObjective(c *gin.Context) {
	var req struct {
		Objective string `json:"objective" binding:"required,max=10000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	t, err := h.Submit(req.Objective)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyObjective):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	case errors.Is(err, ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.Header("Location", "/answers/"+t.ID)
	c.JSON(http.StatusAccepted, t)
}

func (h *HTTPIntake) getAnswer(c *gin.Context) {
	t, ok := h.Ticket(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"err": "unknown objective id"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *HTTPIntake) getStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	recent := make([]statusEvent, len(h.recent))
	copy(recent, h.recent)
	c.JSON(http.StatusOK, gin.H{
		"state":   h.state,
		"run_id":  h.runID,
		"queued":  len(h.queue),
		"current": h.current,
		"events":  recent,
	})
}
