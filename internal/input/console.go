package input

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ConsoleSink prints answers and failures to a terminal.
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a sink writing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (c *ConsoleSink) Deliver(_ context.Context, res Result) error {
	if res.Err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, err := fmt.Fprintf(c.out, "%s %v\n", red.Sprint("Run failed:"), res.Err)
		return err
	}

	header := color.New(color.FgGreen, color.Bold).Sprint("Final answer")
	if id := res.RunID(); id != "" {
		header += color.New(color.Faint).Sprintf(" (run %s)", id)
	}
	_, err := fmt.Fprintf(c.out, "\n%s\n%s\n\n", header, strings.TrimSpace(res.Answer()))
	return err
}
