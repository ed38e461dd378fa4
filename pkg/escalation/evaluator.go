package escalation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"insurance-intake-be/pkg/llm"
)

// Decision is the structured verdict of one escalation check.
type Decision struct {
	RequiresHandover bool   `json:"requires_handover"`
	Reason           string `json:"reason"`
}

const evaluatorSystemPrompt = `You are an escalation evaluator for an insurance intake assistant.
You receive an escalation condition, the caller's latest message, and the assistant's reply.
Decide whether the condition is met.
Respond ONLY with a JSON object of the form {"requires_handover": true|false, "reason": "<short explanation>"}.`

// Evaluator runs the caller-supplied escalation condition against the
// latest conversation turn using a JSON-mode model call.
type Evaluator struct {
	provider llm.LLMProvider
	model    string
}

func NewEvaluator(provider llm.LLMProvider, model string) *Evaluator {
	return &Evaluator{provider: provider, model: model}
}

// Evaluate returns the model's verdict. Any transport or parse failure
// is returned as an error; the chat layer treats errors as "condition
// not met" so a broken evaluator never blocks the conversation.
func (e *Evaluator) Evaluate(ctx context.Context, condition, userMessage, assistantReply string) (*Decision, error) {
	if strings.TrimSpace(condition) == "" {
		return &Decision{}, nil
	}

	user := fmt.Sprintf(
		"Escalation condition: %s\n\nCaller message: %s\n\nAssistant reply: %s",
		condition, userMessage, assistantReply,
	)

	opts := []llm.Option{llm.WithJSONMode(), llm.WithTemperature(0)}
	if e.model != "" {
		opts = append(opts, llm.WithModel(e.model))
	}

	raw, err := e.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: evaluatorSystemPrompt},
		{Role: "user", Content: user},
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("escalation check failed: %w", err)
	}

	var decision Decision
	if err := json.Unmarshal([]byte(extractJSON(raw)), &decision); err != nil {
		return nil, fmt.Errorf("escalation verdict unreadable: %w (raw: %s)", err, raw)
	}
	return &decision, nil
}

// extractJSON tolerates models that wrap the object in prose or fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
