// Package console prints operator-facing status lines: colored warnings for
// invalid answers and failed requests, and sentence progress.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Console writes to an output and an error stream. It is safe for
// concurrent use.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	warn     *color.Color
	info     *color.Color
	progress *color.Color
}

// New returns a Console writing status to out and warnings to errOut.
func New(out, errOut io.Writer) *Console {
	return &Console{
		out:      out,
		errOut:   errOut,
		warn:     color.New(color.FgYellow, color.Bold),
		info:     color.New(color.FgGreen, color.Bold),
		progress: color.New(color.FgCyan),
	}
}

// Std writes to stdout and stderr.
func Std() *Console { return New(os.Stdout, os.Stderr) }

// Discard drops everything.
func Discard() *Console { return New(io.Discard, io.Discard) }

// Warn prints a bold yellow line to the error stream.
func (c *Console) Warn(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warn.Fprintf(c.errOut, format+"\n", args...)
}

// Info prints a bold green line.
func (c *Console) Info(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.Fprintf(c.out, format+"\n", args...)
}

// Plain prints an uncolored line, e.g. a raw payload next to a warning.
func (c *Console) Plain(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.errOut, format+"\n", args...)
}

// Progress prints "<label> done/total".
func (c *Console) Progress(label string, done, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress.Fprintf(c.out, "%s %d/%d\n", label, done, total)
}
