package llm

// vendor describes an OpenAI-compatible endpoint and the defaults applied
// when the configuration leaves them empty.
type vendor struct {
	name    string
	baseURL string
	prefix  string
	model   string
}

var (
	// DashScope compatible mode. The international endpoint is the default;
	// mainland accounts set base_url to https://dashscope.aliyuncs.com/compatible-mode.
	dashScopeVendor = vendor{
		name:    "dashscope",
		baseURL: "https://dashscope-intl.aliyuncs.com/compatible-mode",
		prefix:  "/v1",
		model:   "qwen2.5-1.5b-instruct",
	}
	openAIVendor = vendor{
		name:    "openai",
		baseURL: "https://api.openai.com",
		prefix:  "/v1",
		model:   "gpt-4o-mini",
	}
	openRouterVendor = vendor{name: "openrouter", baseURL: "https://openrouter.ai/api", prefix: "/v1"}
	groqVendor       = vendor{
		name:    "groq",
		baseURL: "https://api.groq.com/openai",
		prefix:  "/v1",
		model:   "llama-3.3-70b-versatile",
	}
	xaiVendor      = vendor{name: "xai", baseURL: "https://api.x.ai", prefix: "/v1"}
	ollamaVendor   = vendor{name: "ollama", baseURL: "http://localhost:11434", prefix: "/v1"}
	lmStudioVendor = vendor{name: "lmstudio", baseURL: "http://localhost:1234", prefix: "/v1"}
	customVendor   = vendor{name: "custom", prefix: "/v1"}
)

// compatProvider implements Provider for any OpenAI-compatible chat
// completions endpoint with function calling.
type compatProvider struct {
	vendor string
	base   openAICompatClient
}

func newCompatProvider(v vendor, cfg Config) *compatProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = v.baseURL
	}
	if cfg.Model == "" {
		cfg.Model = v.model
	}
	return &compatProvider{vendor: v.name, base: newOpenAICompatClientPrefix(cfg, v.prefix)}
}

// NewDashScope creates a provider for Alibaba DashScope (Qwen models).
// API key: DASHSCOPE_API_KEY.
func NewDashScope(cfg Config) Provider { return newCompatProvider(dashScopeVendor, cfg) }

// NewOpenAI creates a provider for OpenAI.
func NewOpenAI(cfg Config) Provider { return newCompatProvider(openAIVendor, cfg) }

// NewOpenRouter creates a provider for OpenRouter.
func NewOpenRouter(cfg Config) Provider { return newCompatProvider(openRouterVendor, cfg) }

// NewGroq creates a provider for Groq.
func NewGroq(cfg Config) Provider { return newCompatProvider(groqVendor, cfg) }

// NewXAI creates a provider for xAI (Grok).
func NewXAI(cfg Config) Provider { return newCompatProvider(xaiVendor, cfg) }

// NewOllama creates a provider for a local Ollama server.
func NewOllama(cfg Config) Provider { return newCompatProvider(ollamaVendor, cfg) }

// NewLMStudio creates a provider for LM Studio.
func NewLMStudio(cfg Config) Provider { return newCompatProvider(lmStudioVendor, cfg) }

// NewOpenAICompat creates a generic OpenAI-compatible provider. BaseURL is
// taken as given.
func NewOpenAICompat(cfg Config) Provider { return newCompatProvider(customVendor, cfg) }
