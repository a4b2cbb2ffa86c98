package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider   string
		wantVendor string
	}{
		{"dashscope", "dashscope"},
		{"openai", "openai"},
		{"ollama", "ollama"},
		{"lmstudio", "lmstudio"},
		{"openrouter", "openrouter"},
		{"groq", "groq"},
		{"xai", "xai"},
		{"custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "test-model"})
			require.NoError(t, err)
			cp, ok := p.(*compatProvider)
			require.True(t, ok, "got %T", p)
			assert.Equal(t, tt.wantVendor, cp.vendor)
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "doesnotexist", Model: "test-model"})
	require.Error(t, err)
	assert.Equal(t, "unknown llm provider: doesnotexist", err.Error())
}

func TestNewProviderEmpty(t *testing.T) {
	_, err := NewProvider(Config{Model: "test-model"})
	require.Error(t, err)
	assert.Equal(t, "llm provider not specified", err.Error())
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewProvider(Config{Provider: "gemini"})
	require.Error(t, err)
}

// baseCfg reaches base.cfg on a compatProvider.
func baseCfg(t *testing.T, p Provider) Config {
	t.Helper()
	return p.(*compatProvider).base.cfg
}

func TestDefaultBaseURLs(t *testing.T) {
	tests := []struct {
		provider string
		wantURL  string
	}{
		{"dashscope", "https://dashscope-intl.aliyuncs.com/compatible-mode"},
		{"ollama", "http://localhost:11434"},
		{"lmstudio", "http://localhost:1234"},
		{"openrouter", "https://openrouter.ai/api"},
		{"xai", "https://api.x.ai"},
		{"custom", ""},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "test-model"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, baseCfg(t, p).BaseURL)
		})
	}
}

func TestExplicitBaseURLPreserved(t *testing.T) {
	customURL := "http://my-server:9999"
	for _, provider := range []string{"dashscope", "ollama", "lmstudio", "openrouter", "xai", "custom"} {
		t.Run(provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: provider, Model: "test-model", BaseURL: customURL})
			require.NoError(t, err)
			assert.Equal(t, customURL, baseCfg(t, p).BaseURL)
		})
	}
}

func TestDefaultModel(t *testing.T) {
	p, err := NewProvider(Config{Provider: "dashscope"})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-1.5b-instruct", baseCfg(t, p).Model)

	p, err = NewProvider(Config{Provider: "dashscope", Model: "qwen-max"})
	require.NoError(t, err)
	assert.Equal(t, "qwen-max", baseCfg(t, p).Model)
}

func TestAPIKeyPassedThrough(t *testing.T) {
	p, err := NewProvider(Config{Provider: "openrouter", Model: "test", APIKey: "sk-test-key-123"})
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key-123", baseCfg(t, p).APIKey)
}

// ---------------------------------------------------------------------------
// Wire behaviour
// ---------------------------------------------------------------------------

func toolResponse(name, args string) string {
	return fmt.Sprintf(`{
		"model": "qwen-turbo",
		"choices": [{
			"message": {
				"content": "",
				"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": %q, "arguments": %q}}]
			},
			"finish_reason": "tool_calls"
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`, name, args)
}

func TestChatSendsForcedToolChoice(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, toolResponse("complete_form_response", `{"complete":"ܡܫܟܚܝܢ"}`))
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: "dashscope", BaseURL: srv.URL, APIKey: "secret", Model: "qwen-turbo"})
	require.NoError(t, err)

	seed := 42
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Seed:     &seed,
		Tools: []ToolDefinition{{
			Name:       "complete_form_response",
			Parameters: map[string]any{"type": "object"},
			Strict:     true,
		}},
		ToolChoice: "complete_form_response",
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, `{"complete":"ܡܫܟܚܝܢ"}`, resp.ToolCalls[0].Function.Arguments)
	assert.Equal(t, 15, resp.TotalTokens)

	assert.Equal(t, "qwen-turbo", got["model"])
	assert.EqualValues(t, 0, got["temperature"])
	assert.EqualValues(t, 42, got["seed"])
	choice := got["tool_choice"].(map[string]any)
	assert.Equal(t, "function", choice["type"])
	assert.Equal(t, "complete_form_response", choice["function"].(map[string]any)["name"])
	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, true, fn["strict"])
}

func shortBackoff(t *testing.T) {
	t.Helper()
	prevRetry, prevRate := retryDelay, rateLimitDelay
	retryDelay, rateLimitDelay = time.Millisecond, time.Millisecond
	t.Cleanup(func() { retryDelay, rateLimitDelay = prevRetry, prevRate })
}

func TestChatRetriesOnServiceUnavailable(t *testing.T) {
	shortBackoff(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, toolResponse("list_words_response", `{"words":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{BaseURL: srv.URL, Model: "m"})
	resp, err := p.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.ToolCalls, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestChatDoesNotRetryClientErrors(t *testing.T) {
	shortBackoff(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{BaseURL: srv.URL, Model: "m"})
	_, err := p.Chat(context.Background(), ChatRequest{})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.EqualValues(t, 1, calls.Load())
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), ChatRequest{})
	require.EqualError(t, err, "no choices in response")
}

func TestChatHonoursCancellation(t *testing.T) {
	shortBackoff(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewOpenAICompat(Config{BaseURL: srv.URL})
	_, err := p.Chat(ctx, ChatRequest{})
	require.ErrorIs(t, err, context.Canceled)
}
