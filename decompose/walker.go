// Package decompose walks the decomposition tree for every word of every
// sentence, asking one structured question per node.
package decompose

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph/conversation"
	"github.com/brunobiangulo/syrmorph/morph"
	"github.com/brunobiangulo/syrmorph/oracle"
	"github.com/brunobiangulo/syrmorph/trace"
)

// Console receives operator-facing messages.
type Console interface {
	Warn(format string, args ...any)
	Plain(format string, args ...any)
}

type nopConsole struct{}

func (nopConsole) Warn(string, ...any)  {}
func (nopConsole) Plain(string, ...any) {}

// SinkError reports a trace sink that could not be written. It aborts the
// run instead of being counted as a failed word.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string { return "writing trace: " + e.Err.Error() }
func (e *SinkError) Unwrap() error { return e.Err }

// Output is where a walk writes its trace lines.
type Output struct {
	Sink     trace.Sink
	Sentence int
}

func (o Output) emit(e trace.Event) error {
	e.Sentence = o.Sentence
	if err := o.Sink.Write(e); err != nil {
		return &SinkError{Err: err}
	}
	return nil
}

// Walker asks the questions of one word's decomposition.
type Walker struct {
	asker   oracle.Asker
	log     *zap.Logger
	console Console
}

// NewWalker returns a Walker asking through a. Nil logger and console
// discard their output.
func NewWalker(a oracle.Asker, logger *zap.Logger, c Console) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = nopConsole{}
	}
	return &Walker{asker: a, log: logger.Named("walker"), console: c}
}

// Walk decomposes word at node and recurses into every child slot whose part
// of the answer is non-empty. A payload that does not decode aborts the rest
// of this word and is returned.
func (w *Walker) Walk(ctx context.Context, conv *conversation.Conversation, out Output, word string, node *morph.Node, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kind := node.Kind()
	if err := out.emit(trace.Event{Type: trace.EventWord, Depth: depth, Text: word}); err != nil {
		return err
	}

	conv.RegisterUserMessage(kind.Question(word))
	payload := w.asker.Ask(ctx, conv, kind)

	answer, err := kind.Decode(payload)
	if err != nil {
		w.log.Warn("invalid answer",
			zap.String("shape", kind.String()),
			zap.String("word", word),
			zap.Int("depth", depth),
			zap.String("payload", morph.PayloadForLog(payload)),
			zap.Error(err))
		w.console.Plain("%s", payload)
		w.console.Warn("LLM has returned an invalid JSON!")
		return fmt.Errorf("%s of %q: %w", kind, word, err)
	}

	if err := out.emit(trace.Event{Type: trace.EventAnswer, Depth: depth + 1, Text: answer.String(), Kind: kind}); err != nil {
		return err
	}

	for i := 0; i < node.Len(); i++ {
		part := answer.Part(word, i)
		child := node.Child(i)
		if child == nil || part == "" {
			continue
		}
		if err := w.Walk(ctx, conv, out, part, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
