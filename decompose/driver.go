package decompose

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/syrmorph/conversation"
	"github.com/brunobiangulo/syrmorph/morph"
	"github.com/brunobiangulo/syrmorph/oracle"
	"github.com/brunobiangulo/syrmorph/trace"
)

// Scope decides how long a conversation lives.
type Scope int

const (
	// ScopeSentence shares one conversation across every word of a sentence.
	ScopeSentence Scope = iota
	// ScopeWord gives each word a fresh conversation primed with the system
	// message only.
	ScopeWord
)

// ParseScope maps "sentence" or "word" to a Scope. Empty means ScopeSentence.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "sentence":
		return ScopeSentence, nil
	case "word":
		return ScopeWord, nil
	default:
		return 0, fmt.Errorf("unknown conversation scope %q", s)
	}
}

func (s Scope) String() string {
	if s == ScopeWord {
		return "word"
	}
	return "sentence"
}

// Stats counts what a run processed.
type Stats struct {
	Sentences       int `json:"sentences"`
	Words           int `json:"words"`
	FailedWords     int `json:"failed_words"`
	FailedSentences int `json:"failed_sentences"`
}

func (s *Stats) add(o Stats) {
	s.Sentences += o.Sentences
	s.Words += o.Words
	s.FailedWords += o.FailedWords
	s.FailedSentences += o.FailedSentences
}

// Options configures a Driver.
type Options struct {
	// Concurrency is the number of sentences decomposed at once. Values
	// below 2 run strictly sequentially.
	Concurrency int
	Scope       Scope
	// OnSentence is called after each sentence with the number finished.
	OnSentence func(done, total int)
	Logger     *zap.Logger
	Console    Console
}

// Driver decomposes sentences, isolating failures per word and per sentence.
type Driver struct {
	asker   oracle.Asker
	walker  *Walker
	tree    *morph.Node
	opts    Options
	log     *zap.Logger
	console Console
}

// NewDriver returns a Driver asking through a.
func NewDriver(a oracle.Asker, opts Options) *Driver {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Console == nil {
		opts.Console = nopConsole{}
	}
	return &Driver{
		asker:   a,
		walker:  NewWalker(a, opts.Logger, opts.Console),
		tree:    morph.Tree(),
		opts:    opts,
		log:     opts.Logger.Named("driver"),
		console: opts.Console,
	}
}

func (d *Driver) newConversation() *conversation.Conversation {
	conv := conversation.New(
		conversation.WithLogger(d.opts.Logger),
		conversation.WithWarner(d.console),
	)
	// A fresh conversation accepts the system message.
	_ = conv.RegisterSystemMessage(morph.SystemMessage)
	return conv
}

// Sentence writes the trace of one sentence to sink. Only sink failures and
// cancellation are returned; answer failures are logged and counted.
func (d *Driver) Sentence(ctx context.Context, index int, sentence string, sink trace.Sink) (Stats, error) {
	st := Stats{Sentences: 1}
	out := Output{Sink: sink, Sentence: index}

	if err := out.emit(trace.Event{Type: trace.EventSentence, Text: sentence}); err != nil {
		return st, err
	}

	conv := d.newConversation()
	conv.RegisterUserMessage(morph.ListWordsQuestion(sentence))
	payload := d.asker.Ask(ctx, conv, morph.KindListWords)

	var words []string
	answer, err := morph.KindListWords.Decode(payload)
	if err != nil {
		d.log.Warn("invalid word list",
			zap.Int("sentence", index),
			zap.String("payload", morph.PayloadForLog(payload)),
			zap.Error(err))
		d.console.Plain("%s", payload)
		d.console.Warn("LLM has returned an invalid JSON!")
		st.FailedSentences++
	} else {
		words = answer.(morph.WordList).Words
	}

	for _, word := range words {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Words++

		wordConv := conv
		if d.opts.Scope == ScopeWord {
			wordConv = d.newConversation()
		}

		if err := d.walker.Walk(ctx, wordConv, out, word, d.tree, 0); err != nil {
			var sinkErr *SinkError
			if errors.As(err, &sinkErr) || ctx.Err() != nil {
				return st, err
			}
			st.FailedWords++
			d.log.Warn("word decomposition failed",
				zap.Int("sentence", index),
				zap.String("word", word),
				zap.Error(err))
			d.console.Warn("Word decomposition failed: %s", word)
		}

		if err := out.emit(trace.Event{Type: trace.EventWordEnd}); err != nil {
			return st, err
		}
	}

	d.log.Debug("sentence done",
		zap.Int("sentence", index),
		zap.Int("words", st.Words),
		zap.Int("failed_words", st.FailedWords))
	return st, nil
}

// Run decomposes sentences in order and writes their traces to sink. With
// Concurrency above 1, sentences run in parallel, each with its own
// conversation, and are flushed to sink in input order.
func (d *Driver) Run(ctx context.Context, sentences []string, sink trace.Sink) (Stats, error) {
	if d.opts.Concurrency > 1 {
		return d.runConcurrent(ctx, sentences, sink)
	}

	var total Stats
	for i, s := range sentences {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		st, err := d.Sentence(ctx, i, s, sink)
		total.add(st)
		if err != nil {
			return total, err
		}
		d.progress(i+1, len(sentences))
	}
	return total, nil
}

func (d *Driver) runConcurrent(ctx context.Context, sentences []string, sink trace.Sink) (Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	var (
		mu       sync.Mutex
		total    Stats
		recs     = make([]*trace.Recorder, len(sentences))
		finished = make([]bool, len(sentences))
		next     int
	)

	// flush replays every finished sentence at the head of the queue.
	flush := func() error {
		for next < len(sentences) && finished[next] {
			if err := recs[next].Replay(sink); err != nil {
				return &SinkError{Err: err}
			}
			recs[next] = nil
			next++
			d.progress(next, len(sentences))
		}
		return nil
	}

	for i, s := range sentences {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec := &trace.Recorder{}
			st, err := d.Sentence(gctx, i, s, rec)

			mu.Lock()
			defer mu.Unlock()
			total.add(st)
			if err != nil {
				return err
			}
			recs[i] = rec
			finished[i] = true
			return flush()
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return total, err
}

func (d *Driver) progress(done, total int) {
	if d.opts.OnSentence != nil {
		d.opts.OnSentence(done, total)
	}
}
