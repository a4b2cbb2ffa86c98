package syrmorph

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/syrmorph/decompose"
	"github.com/brunobiangulo/syrmorph/llm"
	"github.com/brunobiangulo/syrmorph/logging"
	"github.com/brunobiangulo/syrmorph/trace"
)

// Config holds all configuration for the decomposition engine.
type Config struct {
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// ConversationScope is "sentence" (default: every word of a sentence
	// shares one conversation) or "word".
	ConversationScope string `json:"conversation_scope" yaml:"conversation_scope" validate:"omitempty,oneof=sentence word"`

	// Concurrency is the number of sentences decomposed at once.
	Concurrency int `json:"concurrency" yaml:"concurrency" validate:"gte=0,lte=64"`

	// OutputMode is "truncate" (default) or "append" for the text trace.
	OutputMode string `json:"output_mode" yaml:"output_mode" validate:"omitempty,oneof=truncate append"`

	// Optional extra sinks.
	XLSXPath   string `json:"xlsx_path" yaml:"xlsx_path"`
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`

	Log logging.Options `json:"log" yaml:"log"`
}

// LLMConfig configures the answer service.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider" validate:"required"`
	// Model is an alias from the model table (see Models).
	Model string `json:"model" yaml:"model"`
	// ModelID, when set, is sent verbatim and bypasses the model table.
	ModelID string        `json:"model_id" yaml:"model_id"`
	BaseURL string        `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// DefaultConfig returns the configuration of a plain run: DashScope's
// OpenAI-compatible endpoint with the free model, one sentence at a time.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "dashscope",
			Model:    DefaultModel,
			Timeout:  120 * time.Second,
		},
		ConversationScope: "sentence",
		Concurrency:       1,
		OutputMode:        "truncate",
		Log:               logging.Options{Level: "info"},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from paths (".env" when none) into the
// process environment without replacing variables already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// providerKeys names the conventional API key variable of each provider.
var providerKeys = map[string]string{
	"dashscope":  "DASHSCOPE_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"groq":       "GROQ_API_KEY",
	"gemini":     "GEMINI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"xai":        "XAI_API_KEY",
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYRMORPH_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("SYRMORPH_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("SYRMORPH_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("SYRMORPH_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if c.LLM.APIKey == "" {
		if name, ok := providerKeys[c.LLM.Provider]; ok {
			c.LLM.APIKey = os.Getenv(name)
		}
	}
	if v := os.Getenv("SYRMORPH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and returns an error wrapping
// ErrInvalidConfig that names the offending fields.
func (c Config) Validate() error {
	var problems []string

	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}

	if c.LLM.Provider != "" && !slices.Contains(llm.Providers(), c.LLM.Provider) {
		problems = append(problems, fmt.Sprintf("unknown provider %q", c.LLM.Provider))
	}
	if c.LLM.ModelID == "" {
		if _, err := ResolveModel(c.LLM.Model); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ModelName returns the model id sent to the provider.
func (c Config) ModelName() (string, error) {
	if c.LLM.ModelID != "" {
		return c.LLM.ModelID, nil
	}
	return ResolveModel(c.LLM.Model)
}

func (c Config) scope() decompose.Scope {
	s, _ := decompose.ParseScope(c.ConversationScope)
	return s
}

func (c Config) outputMode() trace.Mode {
	m, _ := trace.ParseMode(c.OutputMode)
	return m
}
