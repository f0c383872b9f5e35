// Package console prints the operator-facing view of a run: tagged status
// lines, detections, engagement results, and interactive prompts.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Console writes tagged lines to out and reads answers from in. It is
// safe for concurrent use; the radar and the control loop share it.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	in  io.Reader
	br  *bufio.Reader
	eol string

	cyan, yellow, red, green, bold *color.Color
}

// New creates a console. When terminal is true lines are colored and end
// in CRLF so they render while the keyboard holds the tty in raw mode.
func New(out io.Writer, in io.Reader, terminal bool) *Console {
	c := &Console{
		out:    out,
		in:     in,
		br:     bufio.NewReader(in),
		eol:    "\n",
		cyan:   color.New(color.Bold, color.FgCyan),
		yellow: color.New(color.Bold, color.FgYellow),
		red:    color.New(color.Bold, color.FgRed),
		green:  color.New(color.Bold, color.FgGreen),
		bold:   color.New(color.Bold),
	}
	if terminal {
		c.eol = "\r\n"
	}
	for _, col := range []*color.Color{c.cyan, c.yellow, c.red, c.green, c.bold} {
		if terminal {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Stdio returns a console on stdout and stdin, colored when stdout is a
// terminal.
func Stdio() *Console {
	return New(color.Output, os.Stdin, term.IsTerminal(int(os.Stdout.Fd())))
}

func (c *Console) line(tag *color.Color, label, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r[%s] %s%s", tag.Sprint(label), msg, c.eol)
}

// Infof prints a status update.
func (c *Console) Infof(format string, args ...any) {
	c.line(c.cyan, "INF", fmt.Sprintf(format, args...))
}

// Warnf prints a recoverable problem.
func (c *Console) Warnf(format string, args ...any) {
	c.line(c.yellow, "WRN", fmt.Sprintf(format, args...))
}

// Errorf prints a failure.
func (c *Console) Errorf(format string, args ...any) {
	c.line(c.red, "ERR", fmt.Sprintf(format, args...))
}

// Successf prints a completed step.
func (c *Console) Successf(format string, args ...any) {
	c.line(c.green, "SCS", fmt.Sprintf(format, args...))
}

// Readyf prints a step that is waiting on the operator.
func (c *Console) Readyf(format string, args ...any) {
	c.line(c.green, "RDY", fmt.Sprintf(format, args...))
}

// Indent prints a continuation line aligned with tagged text.
func (c *Console) Indent(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "      %s%s", msg, c.eol)
}

// Blank prints an empty line.
func (c *Console) Blank() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.eol)
}
