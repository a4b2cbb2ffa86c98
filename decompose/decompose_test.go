package decompose

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/brunobiangulo/syrmorph/conversation"
	"github.com/brunobiangulo/syrmorph/llm"
	"github.com/brunobiangulo/syrmorph/morph"
	"github.com/brunobiangulo/syrmorph/trace"
)

// call is one question seen by the fake answer service.
type call struct {
	kind     morph.Kind
	question string
	convLen  int
}

// scriptedAsker answers with respond(kind, question) and records the
// exchange in the conversation the way the real client does.
type scriptedAsker struct {
	mu      sync.Mutex
	calls   []call
	respond func(kind morph.Kind, question string) string
}

func (a *scriptedAsker) Ask(_ context.Context, conv *conversation.Conversation, kind morph.Kind) string {
	msgs := conv.Messages()
	question := msgs[len(msgs)-1].Content

	a.mu.Lock()
	a.calls = append(a.calls, call{kind: kind, question: question, convLen: conv.Len()})
	a.mu.Unlock()

	payload := a.respond(kind, question)
	if payload == "" {
		return conv.RegisterAnswer(nil, errors.New("service unavailable"))
	}
	return conv.RegisterAnswer(&llm.ChatResponse{ToolCalls: []llm.ToolCall{{
		ID:       "call_1",
		Type:     "function",
		Function: llm.FunctionCall{Name: kind.ToolName(), Arguments: payload},
	}}}, nil)
}

func (a *scriptedAsker) kinds() []morph.Kind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]morph.Kind, len(a.calls))
	for i, c := range a.calls {
		out[i] = c.kind
	}
	return out
}

// mashkhin answers every question about ܡܫܟܚܝܢ so the whole tree is walked.
func mashkhin(kind morph.Kind, question string) string {
	switch kind {
	case morph.KindListWords:
		return `{"words": ["ܡܫܟܚܝܢ"]}`
	case morph.KindPrefixedAnalyticalWord:
		return `{"prefix": null}`
	case morph.KindSuffixedPronoun:
		return `{"suffix": null}`
	case morph.KindCompleteForm:
		return `{"complete": "ܡܫܟܚܝܢ"}`
	case morph.KindPrefixedSuffixedMorpheme:
		return `{"prefix": "ܡ", "suffix": "ܝܢ"}`
	case morph.KindMorphemeType:
		switch {
		case strings.Contains(question, "word ܡ belong"):
			return `{"morpheme_type": "preformative"}`
		case strings.Contains(question, "word ܝܢ belong"):
			return `{"morpheme_type": "verbal ending"}`
		default:
			return `{"morpheme_type": "verbal stem morpheme"}`
		}
	}
	return ""
}

func word(depth int, text string) trace.Event {
	return trace.Event{Type: trace.EventWord, Depth: depth, Text: text}
}

func answer(depth int, kind morph.Kind, text string) trace.Event {
	return trace.Event{Type: trace.EventAnswer, Depth: depth, Text: text, Kind: kind}
}

func TestWalkVisitsTreeInOrder(t *testing.T) {
	a := &scriptedAsker{respond: mashkhin}
	w := NewWalker(a, nil, nil)
	rec := &trace.Recorder{}
	conv := conversation.New()

	require.NoError(t, w.Walk(context.Background(), conv, Output{Sink: rec}, "ܡܫܟܚܝܢ", morph.Tree(), 0))

	want := []trace.Event{
		word(0, "ܡܫܟܚܝܢ"),
		answer(1, morph.KindPrefixedAnalyticalWord, "Prefix: ∅"),
		word(1, "ܡܫܟܚܝܢ"),
		answer(2, morph.KindSuffixedPronoun, "Suffix: ∅"),
		word(2, "ܡܫܟܚܝܢ"),
		answer(3, morph.KindCompleteForm, "Complete form: ܡܫܟܚܝܢ"),
		word(3, "ܡܫܟܚܝܢ"),
		answer(4, morph.KindPrefixedSuffixedMorpheme, "Prefix: ܡ, Suffix: ܝܢ"),
		word(4, "ܡ"),
		answer(5, morph.KindMorphemeType, "Morpheme type: preformative"),
		word(4, "ܫܟܚ"),
		answer(5, morph.KindMorphemeType, "Morpheme type: verbal stem morpheme"),
		word(4, "ܝܢ"),
		answer(5, morph.KindMorphemeType, "Morpheme type: verbal ending"),
	}
	if diff := cmp.Diff(want, rec.Events()); diff != "" {
		t.Fatalf("trace differs (-want +got):\n%s", diff)
	}

	// The null prefix means child 0 of the root is never asked about, and
	// the suffixed pronoun's empty suffix skips its terminal child.
	assert.Equal(t, []morph.Kind{
		morph.KindPrefixedAnalyticalWord,
		morph.KindSuffixedPronoun,
		morph.KindCompleteForm,
		morph.KindPrefixedSuffixedMorpheme,
		morph.KindMorphemeType,
		morph.KindMorphemeType,
		morph.KindMorphemeType,
	}, a.kinds())

	for _, e := range rec.Events() {
		if e.Type == trace.EventWord {
			assert.LessOrEqual(t, e.Depth, morph.Tree().Height())
		}
	}

	// Every exchange added a question, a reply and an acknowledgment.
	assert.Equal(t, 3*7, conv.Len())
}

func TestWalkVisitsSuffixBranch(t *testing.T) {
	a := &scriptedAsker{respond: func(kind morph.Kind, q string) string {
		switch kind {
		case morph.KindPrefixedAnalyticalWord:
			return `{"prefix": "ܘ"}`
		case morph.KindSuffixedPronoun:
			return `{"suffix": "ܗ"}`
		case morph.KindCompleteForm:
			return `{"complete": "ܟܬܒ"}`
		case morph.KindPrefixedSuffixedMorpheme:
			return `{"prefix": null, "suffix": null}`
		case morph.KindMorphemeType:
			return `{"morpheme_type": "verbal stem morpheme"}`
		}
		return ""
	}}
	rec := &trace.Recorder{}
	err := NewWalker(a, nil, nil).Walk(context.Background(), conversation.New(), Output{Sink: rec}, "ܘܟܬܒܗ", morph.Tree(), 0)
	require.NoError(t, err)

	var words []string
	for _, e := range rec.Events() {
		if e.Type == trace.EventWord {
			words = append(words, fmt.Sprintf("%d:%s", e.Depth, e.Text))
		}
	}
	// The prefix ܘ has no child node; the stem and the suffix do. Only the
	// middle part of the morpheme split is non-empty.
	assert.Equal(t, []string{"0:ܘܟܬܒܗ", "1:ܟܬܒܗ", "2:ܟܬܒ", "3:ܟܬܒ", "4:ܟܬܒ", "2:ܗ"}, words)
}

func TestWalkInvalidPayloadAbortsWord(t *testing.T) {
	a := &scriptedAsker{respond: func(kind morph.Kind, q string) string {
		if kind == morph.KindCompleteForm {
			return `{"complete": 7}`
		}
		return mashkhin(kind, q)
	}}
	rec := &trace.Recorder{}
	err := NewWalker(a, nil, nil).Walk(context.Background(), conversation.New(), Output{Sink: rec}, "ܡܫܟܚܝܢ", morph.Tree(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, morph.ErrInvalidAnswer)

	last := rec.Events()[len(rec.Events())-1]
	assert.Equal(t, word(2, "ܡܫܟܚܝܢ"), last, "no answer line after the failed question")
	assert.NotContains(t, a.kinds(), morph.KindPrefixedSuffixedMorpheme)
}

func TestWalkPanicsOnMalformedTree(t *testing.T) {
	a := &scriptedAsker{respond: mashkhin}
	bad := morph.NewNode(morph.KindSuffixedPronoun, nil, nil, morph.NewNode(morph.KindCompleteForm))
	assert.Panics(t, func() {
		_ = NewWalker(a, nil, nil).Walk(context.Background(), conversation.New(), Output{Sink: trace.Discard}, "ܡܫܟܚܝܢ", bad, 0)
	})
}

type failingSink struct{ err error }

func (f failingSink) Write(trace.Event) error { return f.err }
func (f failingSink) Close() error            { return nil }

func TestSentenceSharesConversationAcrossWords(t *testing.T) {
	a := &scriptedAsker{respond: func(kind morph.Kind, q string) string {
		if kind == morph.KindListWords {
			return `{"words": ["ܐ", "ܒ"]}`
		}
		return `{"prefix": "ܐ"}`
	}}
	d := NewDriver(a, Options{})
	_, err := d.Sentence(context.Background(), 0, "ܐ ܒ", trace.Discard)
	require.NoError(t, err)

	require.Len(t, a.calls, 3)
	assert.Equal(t, 2, a.calls[0].convLen, "system message and word-list question")
	assert.Equal(t, 5, a.calls[1].convLen)
	assert.Equal(t, 8, a.calls[2].convLen, "second word sees the first word's exchange")
	assert.Contains(t, a.calls[0].question, "Please list all the words in the following sentence: ܐ ܒ")
}

func TestSentenceWordScope(t *testing.T) {
	a := &scriptedAsker{respond: func(kind morph.Kind, q string) string {
		if kind == morph.KindListWords {
			return `{"words": ["ܐ", "ܒ"]}`
		}
		return `{"prefix": "ܐ"}`
	}}
	d := NewDriver(a, Options{Scope: ScopeWord})
	_, err := d.Sentence(context.Background(), 0, "ܐ ܒ", trace.Discard)
	require.NoError(t, err)

	require.Len(t, a.calls, 3)
	assert.Equal(t, 2, a.calls[1].convLen)
	assert.Equal(t, 2, a.calls[2].convLen, "each word starts from the system message")
}

func TestSentenceIsolatesWordFailures(t *testing.T) {
	a := &scriptedAsker{respond: func(kind morph.Kind, q string) string {
		switch {
		case kind == morph.KindListWords:
			return `{"words": ["ܪܥ", "ܛܒ"]}`
		case strings.Contains(q, "word ܪܥ"):
			return `not json`
		default:
			return `{"prefix": "ܛܒ"}`
		}
	}}
	d := NewDriver(a, Options{})
	rec := &trace.Recorder{}
	st, err := d.Sentence(context.Background(), 3, "ܪܥ ܛܒ", rec)
	require.NoError(t, err)
	assert.Equal(t, Stats{Sentences: 1, Words: 2, FailedWords: 1}, st)

	want := "Sentence: ܪܥ ܛܒ\n" +
		"Word: ܪܥ\n" +
		"\n" +
		"Word: ܛܒ\n" +
		"    Prefix: ܛܒ\n" +
		"\n"
	assert.Equal(t, want, rec.Text())
	for _, e := range rec.Events() {
		assert.Equal(t, 3, e.Sentence)
	}
}

func TestSentenceInvalidWordList(t *testing.T) {
	for name, payload := range map[string]string{
		"malformed":      `{"words": "ܐ"}`,
		"service failed": "",
		"empty list":     `{"words": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			a := &scriptedAsker{respond: func(morph.Kind, string) string { return payload }}
			rec := &trace.Recorder{}
			st, err := NewDriver(a, Options{}).Sentence(context.Background(), 0, "ܫܠܡܐ", rec)
			require.NoError(t, err)
			assert.Equal(t, "Sentence: ܫܠܡܐ\n", rec.Text())
			assert.Zero(t, st.Words)
			assert.Len(t, a.calls, 1)
		})
	}
}

func TestSentenceSinkFailureAborts(t *testing.T) {
	boom := errors.New("disk full")
	a := &scriptedAsker{respond: mashkhin}
	_, err := NewDriver(a, Options{}).Sentence(context.Background(), 0, "ܡܫܟܚܝܢ", failingSink{boom})

	var sinkErr *SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, a.calls)
}

func TestRunSequential(t *testing.T) {
	a := &scriptedAsker{respond: mashkhin}
	var progress []int
	d := NewDriver(a, Options{OnSentence: func(done, total int) {
		assert.Equal(t, 2, total)
		progress = append(progress, done)
	}})

	rec := &trace.Recorder{}
	st, err := d.Run(context.Background(), []string{"ܡܫܟܚܝܢ", "ܡܫܟܚܝܢ ܬܘܒ"}, rec)
	require.NoError(t, err)
	assert.Equal(t, Stats{Sentences: 2, Words: 2}, st)
	assert.Equal(t, []int{1, 2}, progress)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &scriptedAsker{respond: mashkhin}
	_, err := NewDriver(a, Options{}).Run(ctx, []string{"ܐ"}, trace.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, a.calls)
}

func TestRunConcurrentKeepsSectionsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	sentences := []string{"ܐ ܒ", "ܓ", "ܕ ܗ ܘ", "ܙ", "ܚ ܛ"}
	respond := func(kind morph.Kind, q string) string {
		if kind == morph.KindListWords {
			for _, s := range sentences {
				if strings.HasSuffix(q, s+"\n\"\"\"") {
					return fmt.Sprintf(`{"words": ["%s"]}`, strings.Join(strings.Fields(s), `", "`))
				}
			}
		}
		return `{"prefix": "ܐ"}`
	}

	seq := &scriptedAsker{respond: respond}
	want := &trace.Recorder{}
	_, err := NewDriver(seq, Options{}).Run(context.Background(), sentences, want)
	require.NoError(t, err)

	par := &scriptedAsker{respond: respond}
	got := &trace.Recorder{}
	var mu sync.Mutex
	var done []int
	st, err := NewDriver(par, Options{Concurrency: 3, OnSentence: func(n, total int) {
		mu.Lock()
		done = append(done, n)
		mu.Unlock()
	}}).Run(context.Background(), sentences, got)
	require.NoError(t, err)

	assert.Equal(t, Stats{Sentences: 5, Words: 9}, st)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, done)
	if diff := cmp.Diff(want.Events(), got.Events()); diff != "" {
		t.Fatalf("concurrent trace differs from sequential (-want +got):\n%s", diff)
	}
}

func TestRunConcurrentSinkFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	boom := errors.New("disk full")
	a := &scriptedAsker{respond: mashkhin}
	_, err := NewDriver(a, Options{Concurrency: 2}).Run(context.Background(), []string{"ܐ", "ܒ", "ܓ"}, failingSink{boom})
	assert.ErrorIs(t, err, boom)
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeSentence, s)

	s, err = ParseScope("word")
	require.NoError(t, err)
	assert.Equal(t, ScopeWord, s)
	assert.Equal(t, "word", s.String())

	_, err = ParseScope("paragraph")
	assert.Error(t, err)
}
