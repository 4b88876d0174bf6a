package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

// DefaultPrompt is shown before each objective is read.
const DefaultPrompt = "What is your objective? "

// readKind tells objective reads from ask_user answers.
type readKind int

const (
	readObjective readKind = iota
	readAnswer
)

type lineResult struct {
	line string
	err  error
}

// LineSource reads objectives, one per line, from a reader such as stdin.
// It also implements agent.Prompter so ask_user questions share the same
// reader without racing the objective prompt.
//
// Lines are only read on demand. A read abandoned by a canceled context is
// handed to the next caller of the same kind. A line typed in answer to an
// abandoned question is never returned as an objective.
type LineSource struct {
	out    io.Writer
	prompt string

	once     sync.Once
	scanner  *bufio.Scanner
	requests chan struct{}
	lines    chan lineResult

	mu          sync.Mutex
	pending     bool
	pendingKind readKind
}

// NewLineSource creates a source reading from in and writing prompts to out.
// out may be nil.
func NewLineSource(in io.Reader, out io.Writer) *LineSource {
	if out == nil {
		out = io.Discard
	}
	return &LineSource{
		out:      out,
		prompt:   DefaultPrompt,
		scanner:  bufio.NewScanner(in),
		requests: make(chan struct{}),
		lines:    make(chan lineResult, 1),
	}
}

// SetPrompt changes the objective prompt.
func (s *LineSource) SetPrompt(prompt string) {
	s.prompt = prompt
}

// NextObjective prompts for and returns one objective. EOF and quit
// commands return an error wrapping orchestrator.ErrInputAborted.
func (s *LineSource) NextObjective(ctx context.Context) (string, error) {
	line, err := s.readLine(ctx, readObjective, s.prompt)
	if err != nil {
		return "", err
	}
	if IsQuit(line) {
		return "", fmt.Errorf("%w: %s", orchestrator.ErrInputAborted, strings.TrimSpace(line))
	}
	return line, nil
}

// Ask prints the question and returns the next line.
func (s *LineSource) Ask(ctx context.Context, question string) (string, error) {
	line, err := s.readLine(ctx, readAnswer, "\n"+strings.TrimSpace(question)+"\n> ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *LineSource) readLine(ctx context.Context, kind readKind, prompt string) (string, error) {
	s.once.Do(func() { go s.scan() })

	s.mu.Lock()
	if s.pending && s.pendingKind != kind {
		// The abandoned read was prompted for something else. A line already
		// typed for it is dropped; one typed after this prompt belongs here.
		fmt.Fprint(s.out, prompt)
		select {
		case r := <-s.lines:
			s.pending = false
			if r.err != nil {
				s.mu.Unlock()
				return "", r.err
			}
		default:
			s.pendingKind = kind
		}
		if !s.pending {
			if err := s.request(ctx, kind); err != nil {
				s.mu.Unlock()
				return "", err
			}
		}
	} else if !s.pending {
		fmt.Fprint(s.out, prompt)
		if err := s.request(ctx, kind); err != nil {
			s.mu.Unlock()
			return "", err
		}
	}
	s.mu.Unlock()

	select {
	case r := <-s.lines:
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// request asks the scanner for one more line. s.mu must be held.
func (s *LineSource) request(ctx context.Context, kind readKind) error {
	select {
	case s.requests <- struct{}{}:
		s.pending = true
		s.pendingKind = kind
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LineSource) scan() {
	for range s.requests {
		if s.scanner.Scan() {
			s.lines <- lineResult{line: s.scanner.Text()}
			continue
		}
		err := s.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		s.lines <- lineResult{err: fmt.Errorf("%w: %v", orchestrator.ErrInputAborted, err)}
	}
}
