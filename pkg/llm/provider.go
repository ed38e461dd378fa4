package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system", "tool"
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a "tool" role message back to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-initiated request to run a named tool.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolParam describes one parameter of a tool in JSON-schema terms.
type ToolParam struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string", "number", "boolean", "integer"
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolDefinition is what gets advertised to the model.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ToolParam `json:"parameters"`
}

// ChatResult is the outcome of a tool-capable chat turn. Either Content
// is the final answer, or ToolCalls lists what the model wants executed.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	JSONMode    bool   // Force a JSON object response where supported
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithJSONMode() Option {
	return func(o *Options) {
		o.JSONMode = true
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatTools sends a chat history plus tool definitions. The model
	// may answer directly or request tool calls.
	ChatTools(ctx context.Context, history []Message, tools []ToolDefinition, options ...Option) (*ChatResult, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
