package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// geminiProvider implements Provider on the native Gemini API. Unlike the
// OpenAI-compatible endpoint it supports forcing a single function through
// FunctionCallingConfig, which is what structured answers need.
//
// API key: set via config or GEMINI_API_KEY env var.
type geminiProvider struct {
	cfg    Config
	client *genai.Client
	log    *zap.Logger
}

// NewGemini creates a provider for Google Gemini.
func NewGemini(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiProvider{cfg: cfg, client: client, log: cfg.logger()}, nil
}

func (p *geminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	system, contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	temp := float32(req.Temperature)
	gc := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       &temp,
	}
	if req.Seed != nil {
		seed := int32(*req.Seed)
		gc.Seed = &seed
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGeminiSchema(t.Parameters),
			})
		}
		gc.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	if req.ToolChoice != "" {
		gc.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{req.ToolChoice},
			},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	out := &ChatResponse{Model: model}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	for _, fc := range resp.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, fmt.Errorf("encoding gemini call arguments: %w", err)
		}
		id := fc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:       id,
			Type:     "function",
			Function: FunctionCall{Name: fc.Name, Arguments: string(args)},
		})
	}
	if len(out.ToolCalls) == 0 {
		out.Content = resp.Text()
	}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	p.log.Debug("gemini response",
		zap.String("model", model),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

// toGeminiContents maps chat messages onto Gemini contents. System messages
// become the system instruction; tool acknowledgments become function
// responses attributed to the user turn.
func toGeminiContents(msgs []Message) (*genai.Content, []*genai.Content, error) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system = genai.NewContentFromText(m.Content, genai.RoleUser)
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						return nil, nil, fmt.Errorf("decoding arguments of %s: %w", tc.Function.Name, err)
					}
				}
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Function.Name, args))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case RoleTool:
			part := genai.NewPartFromFunctionResponse(m.Name, map[string]any{"output": m.Content})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		default:
			return nil, nil, fmt.Errorf("unsupported message role: %q", m.Role)
		}
	}
	return system, contents, nil
}

// toGeminiSchema converts the JSON Schema subset used by tool definitions
// (object, array, string, enum, nullable type unions) into a genai.Schema.
func toGeminiSchema(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	if d, ok := s["description"].(string); ok {
		out.Description = d
	}

	switch t := s["type"].(type) {
	case string:
		out.Type = geminiType(t)
	case []string:
		setUnionType(out, t)
	case []any:
		names := make([]string, 0, len(t))
		for _, v := range t {
			if n, ok := v.(string); ok {
				names = append(names, n)
			}
		}
		setUnionType(out, names)
	}

	switch e := s["enum"].(type) {
	case []string:
		out.Enum = append(out.Enum, e...)
	case []any:
		for _, v := range e {
			if str, ok := v.(string); ok {
				out.Enum = append(out.Enum, str)
			}
		}
	}

	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if ps, ok := raw.(map[string]any); ok {
				out.Properties[name] = toGeminiSchema(ps)
			}
		}
	}
	switch r := s["required"].(type) {
	case []string:
		out.Required = append(out.Required, r...)
	case []any:
		for _, v := range r {
			if str, ok := v.(string); ok {
				out.Required = append(out.Required, str)
			}
		}
	}
	if items, ok := s["items"].(map[string]any); ok {
		out.Items = toGeminiSchema(items)
	}
	return out
}

func setUnionType(out *genai.Schema, names []string) {
	for _, n := range names {
		if n == "null" {
			nullable := true
			out.Nullable = &nullable
			continue
		}
		out.Type = geminiType(n)
	}
}

func geminiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
