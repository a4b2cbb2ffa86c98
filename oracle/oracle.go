// Package oracle is the boundary between the decomposition walk and the
// language model: one forced tool call per question.
package oracle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph/conversation"
	"github.com/brunobiangulo/syrmorph/llm"
	"github.com/brunobiangulo/syrmorph/morph"
)

// Seed is sent with every request so repeated runs stay as close to
// deterministic as the service allows.
const Seed = 42

// Asker answers the question last registered in conv with a raw JSON payload
// for kind. Failures yield "".
type Asker interface {
	Ask(ctx context.Context, conv *conversation.Conversation, kind morph.Kind) string
}

// Client implements Asker over an llm.Provider.
type Client struct {
	provider llm.Provider
	model    string
	log      *zap.Logger
}

// NewClient returns a Client sending requests for model through p.
func NewClient(p llm.Provider, model string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{provider: p, model: model, log: logger.Named("oracle")}
}

// Ask sends the whole conversation with kind's tool forced and records the
// reply in conv.
func (c *Client) Ask(ctx context.Context, conv *conversation.Conversation, kind morph.Kind) string {
	tool := kind.Tool()
	seed := Seed
	req := llm.ChatRequest{
		Model:       c.model,
		Messages:    conv.Messages(),
		Temperature: 0,
		Seed:        &seed,
		Tools:       []llm.ToolDefinition{tool},
		ToolChoice:  tool.Name,
	}

	start := time.Now()
	resp, err := c.provider.Chat(ctx, req)
	fields := []zap.Field{
		zap.String("tool", tool.Name),
		zap.Int("messages", len(req.Messages)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if resp != nil {
		fields = append(fields, zap.Int("total_tokens", resp.TotalTokens))
	}
	c.log.Debug("asked", fields...)

	return conv.RegisterAnswer(resp, err)
}
