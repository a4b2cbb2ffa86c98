// Package conversation accumulates the chat history sent with every question
// of a sentence: the system prompt, the questions, and the model's tool calls
// with their acknowledgments.
package conversation

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph/llm"
)

// ErrSystemMessageOrder is returned when the system message is registered
// twice or after other entries.
var ErrSystemMessageOrder = errors.New("conversation: system message must be the first entry")

// Warner receives operator-facing warnings.
type Warner interface {
	Warn(format string, args ...any)
}

type nopWarner struct{}

func (nopWarner) Warn(string, ...any) {}

// Conversation is an append-only message log. It has a single owner and is
// not safe for concurrent use.
type Conversation struct {
	messages []llm.Message
	log      *zap.Logger
	warn     Warner
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Conversation) {
		if l != nil {
			c.log = l.Named("conversation")
		}
	}
}

// WithWarner sets the operator console.
func WithWarner(w Warner) Option {
	return func(c *Conversation) {
		if w != nil {
			c.warn = w
		}
	}
}

// New returns an empty conversation.
func New(opts ...Option) *Conversation {
	c := &Conversation{log: zap.NewNop(), warn: nopWarner{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterSystemMessage appends the system prompt. It must be the first entry.
func (c *Conversation) RegisterSystemMessage(text string) error {
	if len(c.messages) > 0 {
		return ErrSystemMessageOrder
	}
	c.messages = append(c.messages, llm.Message{Role: llm.RoleSystem, Content: text})
	return nil
}

// RegisterUserMessage appends a question, wrapped in a triple-quoted frame.
func (c *Conversation) RegisterUserMessage(text string) {
	c.messages = append(c.messages, llm.Message{
		Role:    llm.RoleUser,
		Content: Frame(text),
	})
}

// Frame wraps text the way every user entry is sent.
func Frame(text string) string {
	return fmt.Sprintf("Text: \"\"\"\n%s\n\"\"\"", text)
}

// RegisterAnswer records the model's reply and returns the raw JSON arguments
// of its first tool call. A failed request or a reply without a tool call
// leaves the conversation unchanged and yields "".
func (c *Conversation) RegisterAnswer(resp *llm.ChatResponse, err error) string {
	if err != nil {
		c.log.Warn("request failed", zap.Error(err))
		c.warn.Warn("Request failed: %v", err)
		return ""
	}
	if resp == nil || len(resp.ToolCalls) == 0 {
		reason := ""
		if resp != nil {
			reason = resp.FinishReason
		}
		c.log.Warn("response carried no tool call", zap.String("finish_reason", reason))
		c.warn.Warn("Response carried no tool call")
		return ""
	}

	calls := make([]llm.ToolCall, len(resp.ToolCalls))
	copy(calls, resp.ToolCalls)
	first := calls[0]

	c.messages = append(c.messages,
		llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: calls,
		},
		llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: first.ID,
			Name:       first.Function.Name,
		},
	)
	return first.Function.Arguments
}

// Messages returns a copy of the entries in order.
func (c *Conversation) Messages() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of entries.
func (c *Conversation) Len() int { return len(c.messages) }
