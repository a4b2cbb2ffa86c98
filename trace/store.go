package trace

import (
	"context"

	"github.com/brunobiangulo/syrmorph/store"
)

// RowWriter is the part of *store.Store the store sink needs.
type RowWriter interface {
	AddSentence(ctx context.Context, runID string, idx int, text string) error
	AddRow(ctx context.Context, r store.Row) error
}

// StoreSink writes trace rows of one run to the trace store.
type StoreSink struct {
	ctx   context.Context
	db    RowWriter
	runID string
	seq   map[int]int
	words map[int]map[int]string
}

// NewStoreSink returns a sink recording into run runID.
func NewStoreSink(ctx context.Context, db RowWriter, runID string) *StoreSink {
	return &StoreSink{
		ctx:   ctx,
		db:    db,
		runID: runID,
		seq:   map[int]int{},
		words: map[int]map[int]string{},
	}
}

// Write stores sentences, words and answers.
func (s *StoreSink) Write(e Event) error {
	row := store.Row{RunID: s.runID, SentenceIdx: e.Sentence, Depth: e.Depth}
	switch e.Type {
	case EventSentence:
		s.words[e.Sentence] = map[int]string{}
		return s.db.AddSentence(s.ctx, s.runID, e.Sentence, e.Text)
	case EventWord:
		s.wordsOf(e.Sentence)[e.Depth] = e.Text
		row.Word = e.Text
	case EventAnswer:
		row.Word = s.wordsOf(e.Sentence)[e.Depth-1]
		row.Shape = e.Kind.String()
		row.Answer = e.Text
	default:
		return nil
	}
	row.Seq = s.seq[e.Sentence]
	s.seq[e.Sentence]++
	return s.db.AddRow(s.ctx, row)
}

func (s *StoreSink) wordsOf(sentence int) map[int]string {
	w, ok := s.words[sentence]
	if !ok {
		w = map[int]string{}
		s.words[sentence] = w
	}
	return w
}

// Close is a no-op; the caller owns the store.
func (s *StoreSink) Close() error { return nil }
