package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Mode selects how an existing trace file is opened.
type Mode int

const (
	// Truncate replaces an existing file.
	Truncate Mode = iota
	// Append adds to an existing file.
	Append
)

// ParseMode maps "truncate" or "append" to a Mode. Empty means Truncate.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "truncate":
		return Truncate, nil
	case "append":
		return Append, nil
	default:
		return 0, fmt.Errorf("unknown output mode %q", s)
	}
}

func (m Mode) String() string {
	if m == Append {
		return "append"
	}
	return "truncate"
}

// TextSink writes the indented plain-text trace.
type TextSink struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewTextSink creates path, and any missing parent directories, and returns
// a sink writing to it.
func NewTextSink(path string, mode Mode) (*TextSink, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if mode == Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	return &TextSink{w: bufio.NewWriter(f), closer: f}, nil
}

// NewTextWriter returns a sink writing to w. Close flushes but does not
// close w.
func NewTextWriter(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w)}
}

// Write prints one line, or a blank separator for EventWordEnd.
func (s *TextSink) Write(e Event) error {
	_, err := s.w.WriteString(Line(e) + "\n")
	return err
}

// Flush pushes buffered lines to the underlying writer.
func (s *TextSink) Flush() error { return s.w.Flush() }

// Close flushes and closes the file.
func (s *TextSink) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
