package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"insurance-intake-be/pkg/llm"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client    *openai.Client
	ModelName string
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, modelName string) *OpenAIProvider {
	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		ModelName: modelName,
	}
}

// --- Conversion helpers ---

func toOpenAIMessages(history []llm.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == "model" {
			role = openai.ChatMessageRoleAssistant
		}

		msg := openai.ChatCompletionMessage{
			Role:       role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}

		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}

		msgs = append(msgs, msg)
	}
	return msgs
}

func toOpenAITools(tools []llm.ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		properties := map[string]interface{}{}
		var required []string
		for _, p := range t.Parameters {
			prop := map[string]interface{}{
				"type":        p.Type,
				"description": p.Description,
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			properties[p.Name] = prop
			if p.Required {
				required = append(required, p.Name)
			}
		}

		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return out
}

func fromOpenAIToolCall(tc openai.ToolCall) llm.ToolCall {
	args := map[string]interface{}{}
	if tc.Function.Arguments != "" {
		// Malformed arguments become an empty map; the dispatcher
		// reports missing required params to the model.
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
	}
	return llm.ToolCall{
		ID:        tc.ID,
		Name:      tc.Function.Name,
		Arguments: args,
	}
}

func (o *OpenAIProvider) buildRequest(history []llm.Message, opts ...llm.Option) openai.ChatCompletionRequest {
	options := &llm.Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(history),
		Temperature: float32(options.Temperature),
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}
	if options.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

// --- Interface Implementation ---

func (o *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	req := o.buildRequest(history, opts...)

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) ChatTools(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, opts ...llm.Option) (*llm.ChatResult, error) {
	req := o.buildRequest(history, opts...)
	req.Tools = toOpenAITools(tools)

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	choice := resp.Choices[0].Message
	result := &llm.ChatResult{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, fromOpenAIToolCall(tc))
	}

	return result, nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
