package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph"
	"github.com/brunobiangulo/syrmorph/console"
)

// llmFlags are the answer-service flags shared by parse and serve.
type llmFlags struct {
	provider string
	model    string
	modelID  string
	baseURL  string
	apiKey   string
	scope    string
}

func (f *llmFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.model, "model", "m", syrmorph.DefaultModel, "Model alias (see 'syrmorph models')")
	fs.StringVar(&f.provider, "provider", "", "LLM provider (dashscope, openai, groq, gemini, ...)")
	fs.StringVar(&f.modelID, "model-id", "", "Raw model id, bypasses the alias table")
	fs.StringVar(&f.baseURL, "base-url", "", "Override the provider endpoint")
	fs.StringVar(&f.apiKey, "api-key", "", "API key (or set DASHSCOPE_API_KEY / SYRMORPH_API_KEY)")
	fs.StringVar(&f.scope, "scope", "", "Conversation scope: sentence or word")
}

// apply copies the flags the user set over cfg.
func (f *llmFlags) apply(cmd *cobra.Command, cfg *syrmorph.Config) {
	fs := cmd.Flags()
	if fs.Changed("model") {
		cfg.LLM.Model = f.model
	}
	if fs.Changed("provider") {
		cfg.LLM.Provider = f.provider
	}
	if fs.Changed("model-id") {
		cfg.LLM.ModelID = f.modelID
	}
	if fs.Changed("base-url") {
		cfg.LLM.BaseURL = f.baseURL
	}
	if fs.Changed("api-key") {
		cfg.LLM.APIKey = f.apiKey
	}
	if fs.Changed("scope") {
		cfg.ConversationScope = f.scope
	}
}

var (
	parseLLM         llmFlags
	parseData        string
	parseOutput      string
	parseAppend      bool
	parseXLSX        string
	parseSQLite      string
	parseConcurrency int
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Decompose every sentence of a corpus file",
	Long: `Reads the corpus (txt, pdf, docx or xlsx), splits it at every run of
digits, and writes one trace section per sentence to the output file.

Example:
  syrmorph parse -d data/matthew.txt -o out/matthew.txt -m turbo`,
	Args: cobra.NoArgs,
	RunE: runParse,
}

func init() {
	fs := parseCmd.Flags()
	fs.StringVarP(&parseData, "data", "d", "", "Corpus file")
	fs.StringVarP(&parseOutput, "output", "o", "", "Trace output file")
	fs.BoolVar(&parseAppend, "append", false, "Append to the output file instead of replacing it")
	fs.StringVar(&parseXLSX, "xlsx", "", "Also write the trace to this spreadsheet")
	fs.StringVar(&parseSQLite, "sqlite", "", "Also record the run in this SQLite database")
	fs.IntVar(&parseConcurrency, "concurrency", 0, "Sentences decomposed at once (default from config, 1)")
	parseLLM.register(parseCmd)
	_ = parseCmd.MarkFlagRequired("data")
	_ = parseCmd.MarkFlagRequired("output")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	fs := cmd.Flags()
	parseLLM.apply(cmd, &cfg)
	if parseAppend {
		cfg.OutputMode = "append"
	}
	if fs.Changed("xlsx") {
		cfg.XLSXPath = parseXLSX
	}
	if fs.Changed("sqlite") {
		cfg.SQLitePath = parseSQLite
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = parseConcurrency
	}

	if _, err := os.Stat(parseData); err != nil {
		return err
	}

	engine, err := syrmorph.New(cfg, syrmorph.WithLogger(logger), syrmorph.WithConsole(console.Std()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := engine.ParseFile(ctx, parseData, parseOutput)
	logger.Info("parse finished",
		zap.String("output", parseOutput),
		zap.Int("sentences", stats.Sentences),
		zap.Int("words", stats.Words),
		zap.Int("failed_words", stats.FailedWords),
		zap.Int("failed_sentences", stats.FailedSentences))
	return err
}
