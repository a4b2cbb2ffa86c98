// Package trace carries the decomposition trace from the walker to its
// sinks: the indented text file, a spreadsheet, and the SQLite store.
package trace

import (
	"errors"
	"strings"

	"github.com/brunobiangulo/syrmorph/morph"
)

// EventType tags a trace event.
type EventType int

const (
	// EventSentence opens a sentence section.
	EventSentence EventType = iota
	// EventWord names the word a question is about.
	EventWord
	// EventAnswer is a rendered, validated answer.
	EventAnswer
	// EventWordEnd closes a top-level word block.
	EventWordEnd
)

func (t EventType) String() string {
	switch t {
	case EventSentence:
		return "sentence"
	case EventWord:
		return "word"
	case EventAnswer:
		return "answer"
	case EventWordEnd:
		return "word_end"
	default:
		return "unknown"
	}
}

// Event is one trace line.
type Event struct {
	Type     EventType
	Sentence int // zero-based sentence index
	Depth    int
	Text     string     // sentence, word or rendered answer
	Kind     morph.Kind // shape of an EventAnswer
}

// Sink consumes trace events in order.
type Sink interface {
	Write(Event) error
	Close() error
}

// Indent is one nesting level.
const Indent = "    "

// Line renders e the way the text trace prints it, without the newline.
func Line(e Event) string {
	switch e.Type {
	case EventSentence:
		return "Sentence: " + e.Text
	case EventWord:
		return strings.Repeat(Indent, e.Depth) + "Word: " + e.Text
	case EventAnswer:
		return strings.Repeat(Indent, e.Depth) + e.Text
	default:
		return ""
	}
}

// Multi fans events out to every sink.
type Multi []Sink

// Write writes e to every sink and joins their errors.
func (m Multi) Write(e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Write(Event) error { return nil }
func (discard) Close() error      { return nil }
