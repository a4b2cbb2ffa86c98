// Package syrmorph decomposes Syriac sentences into words and morphemes by
// asking a language model a fixed tree of structured questions, and writes a
// nested trace of the answers.
package syrmorph

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph/console"
	"github.com/brunobiangulo/syrmorph/corpus"
	"github.com/brunobiangulo/syrmorph/decompose"
	"github.com/brunobiangulo/syrmorph/llm"
	"github.com/brunobiangulo/syrmorph/morph"
	"github.com/brunobiangulo/syrmorph/oracle"
	"github.com/brunobiangulo/syrmorph/store"
	"github.com/brunobiangulo/syrmorph/trace"
)

// Stats counts what a run processed.
type Stats = decompose.Stats

// Engine runs decompositions for one configuration. It is safe for
// concurrent use by independent ParseSentence calls.
type Engine struct {
	cfg      Config
	model    string
	provider llm.Provider
	driver   *decompose.Driver
	corpus   *corpus.Registry
	log      *zap.Logger
	console  *console.Console
	progress func(done, total int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithConsole sets the operator console.
func WithConsole(c *console.Console) Option {
	return func(e *Engine) {
		if c != nil {
			e.console = c
		}
	}
}

// WithProvider replaces the provider built from the configuration.
func WithProvider(p llm.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithProgress replaces the console progress line.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) { e.progress = fn }
}

// New validates cfg and builds the engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := morph.Validate(morph.Tree()); err != nil {
		return nil, err
	}
	model, err := cfg.ModelName()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		model:   model,
		corpus:  corpus.NewRegistry(),
		log:     zap.NewNop(),
		console: console.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.progress == nil {
		e.progress = func(done, total int) { e.console.Progress("Sentence", done, total) }
	}

	if e.provider == nil {
		e.provider, err = llm.NewProvider(llm.Config{
			Provider: cfg.LLM.Provider,
			Model:    model,
			BaseURL:  cfg.LLM.BaseURL,
			APIKey:   cfg.LLM.APIKey,
			Timeout:  cfg.LLM.Timeout,
			Logger:   e.log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating llm provider: %w", err)
		}
	}

	e.driver = decompose.NewDriver(oracle.NewClient(e.provider, model, e.log), decompose.Options{
		Concurrency: cfg.Concurrency,
		Scope:       cfg.scope(),
		OnSentence:  e.progress,
		Logger:      e.log,
		Console:     e.console,
	})
	return e, nil
}

// Model returns the model id sent with every request.
func (e *Engine) Model() string { return e.model }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// ParseFile decomposes every sentence of input and writes the trace to
// output, plus the spreadsheet and store sinks when configured.
func (e *Engine) ParseFile(ctx context.Context, input, output string) (Stats, error) {
	if _, err := os.Stat(input); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Stats{}, fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return Stats{}, fmt.Errorf("checking input: %w", err)
	}

	sentences, err := e.corpus.Load(ctx, input)
	if err != nil {
		return Stats{}, fmt.Errorf("loading corpus: %w", err)
	}

	text, err := trace.NewTextSink(output, e.cfg.outputMode())
	if err != nil {
		return Stats{}, err
	}
	sinks := trace.Multi{text}

	if e.cfg.XLSXPath != "" {
		x, err := trace.NewXLSXSink(e.cfg.XLSXPath)
		if err != nil {
			sinks.Close()
			return Stats{}, err
		}
		sinks = append(sinks, x)
	}

	var (
		db    *store.Store
		runID string
	)
	if e.cfg.SQLitePath != "" {
		db, err = store.New(e.cfg.SQLitePath, e.log)
		if err != nil {
			sinks.Close()
			return Stats{}, fmt.Errorf("opening trace store: %w", err)
		}
		defer db.Close()
		runID, err = db.BeginRun(ctx, input, e.model)
		if err != nil {
			sinks.Close()
			return Stats{}, err
		}
		sinks = append(sinks, trace.NewStoreSink(ctx, db, runID))
	}

	e.console.Info("Working with %s", e.model)
	e.log.Info("parsing corpus",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("sentences", len(sentences)),
		zap.String("model", e.model),
		zap.String("scope", e.cfg.scope().String()))

	stats, runErr := e.driver.Run(ctx, sentences, sinks)
	closeErr := sinks.Close()

	if db != nil {
		// Record totals even for an interrupted run.
		if err := db.FinishRun(context.WithoutCancel(ctx), runID, store.Totals{
			Sentences:       stats.Sentences,
			Words:           stats.Words,
			FailedWords:     stats.FailedWords,
			FailedSentences: stats.FailedSentences,
		}); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}

	e.log.Info("corpus done",
		zap.Int("sentences", stats.Sentences),
		zap.Int("words", stats.Words),
		zap.Int("failed_words", stats.FailedWords),
		zap.Int("failed_sentences", stats.FailedSentences))

	return stats, errors.Join(runErr, closeErr)
}

// ParseSentence decomposes one sentence and returns its text trace.
func (e *Engine) ParseSentence(ctx context.Context, sentence string) (string, Stats, error) {
	sentence = morph.Normalize(sentence)
	if sentence == "" {
		return "", Stats{}, ErrEmptySentence
	}
	rec := &trace.Recorder{}
	stats, err := e.driver.Sentence(ctx, 0, sentence, rec)
	return rec.Text(), stats, err
}
