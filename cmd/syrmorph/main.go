package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph"
	"github.com/brunobiangulo/syrmorph/console"
	"github.com/brunobiangulo/syrmorph/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string
	logFile    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "syrmorph",
	Short: "Morphological decomposition of Syriac text with structured LLM questions",
	Long: `syrmorph splits a numbered Syriac corpus into sentences, asks a language
model for the words of each sentence, and walks every word through a fixed
tree of structured questions: prefixed analytical words, suffixed pronouns,
complete forms, prefixed and suffixed morphemes, and morpheme categories.

Every answer is validated against its expected shape before it is written
to the indented trace.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// setup loads .env and the config file, then builds the logger. Flags of
// the calling command are applied by the caller afterwards.
func setup() (syrmorph.Config, error) {
	if err := syrmorph.LoadDotEnv(envFile); err != nil {
		return syrmorph.Config{}, err
	}
	cfg, err := syrmorph.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}

	opts := cfg.Log
	if verbose {
		opts.Level = "debug"
	}
	if logFile != "" {
		opts.File = logFile
	}
	cfg.Log = opts

	logger, err = logging.New(opts)
	if err != nil {
		return cfg, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "syrmorph.yaml", "Path to YAML config file (missing file uses defaults)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (missing file is ignored)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotated file")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		console.Std().Warn("%v", err)
		os.Exit(1)
	}
}
