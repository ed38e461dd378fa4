package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"insurance-intake-be/internal/pkg/logger"
	"insurance-intake-be/pkg/fault"
	"insurance-intake-be/pkg/llm"
	"insurance-intake-be/pkg/store"
)

// Handler executes one tool against the session. The returned string
// is fed back to the model as the tool result. A returned fault is
// translated into guidance text, never surfaced as a crash.
type Handler func(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error)

// Tool couples the schema advertised to the model with its handler.
type Tool struct {
	Name        string
	Description string
	Parameters  []llm.ToolParam
	Handler     Handler
}

// Registry holds the tool set for a deployment. Register everything at
// startup; Dispatch is read-only and safe for concurrent use after that.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger logger.ILogger
}

func NewRegistry(log logger.ILogger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: log,
	}
}

func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Definitions returns the advertised schemas in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Dispatch validates and runs one model-requested call. It always
// returns text for the model; errors become guidance so a bad call
// steers the conversation instead of killing it.
func (r *Registry) Dispatch(ctx context.Context, sess *store.ConversationSession, call llm.ToolCall) string {
	tool, ok := r.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool %q. Available tools: %s.", call.Name, strings.Join(r.order, ", "))
	}

	if msg := validateArgs(tool, call.Arguments); msg != "" {
		return msg
	}

	result, err := tool.Handler(ctx, sess, call.Arguments)
	if err != nil {
		if kind := fault.KindOf(err); kind != fault.Unknown {
			r.logger.Warn("ToolRegistry", "Tool returned a handled fault", map[string]interface{}{
				"tool":  call.Name,
				"kind":  kind.String(),
				"error": err.Error(),
			})
			return fault.MessageOf(err)
		}
		r.logger.Error("ToolRegistry", "Tool failed", map[string]interface{}{
			"tool":  call.Name,
			"error": err.Error(),
		})
		return "Something went wrong while handling that request. Please try again or ask for an agent."
	}
	return result
}

func validateArgs(tool Tool, args map[string]interface{}) string {
	var problems []string
	for _, p := range tool.Parameters {
		val, present := args[p.Name]
		if !present {
			if p.Required {
				problems = append(problems, fmt.Sprintf("missing required parameter %q", p.Name))
			}
			continue
		}
		if !typeMatches(p.Type, val) {
			problems = append(problems, fmt.Sprintf("parameter %q must be a %s", p.Name, p.Type))
			continue
		}
		if len(p.Enum) > 0 {
			s, _ := val.(string)
			if !enumContains(p.Enum, s) {
				problems = append(problems, fmt.Sprintf("parameter %q must be one of: %s", p.Name, strings.Join(p.Enum, ", ")))
			}
		}
	}
	if len(problems) == 0 {
		return ""
	}
	return fmt.Sprintf("Cannot run %s: %s.", tool.Name, strings.Join(problems, "; "))
}

func typeMatches(schemaType string, val interface{}) bool {
	if val == nil {
		return false
	}
	switch schemaType {
	case "string":
		_, ok := val.(string)
		return ok
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "number":
		_, ok := val.(float64)
		return ok
	case "integer":
		f, ok := val.(float64)
		return ok && f == float64(int64(f))
	default:
		return true
	}
}

func enumContains(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// ErrNotRegistered is returned by Lookup for unknown tool names.
var ErrNotRegistered = errors.New("tool not registered")

// Lookup fetches a tool by name, mainly for tests.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, ErrNotRegistered
	}
	return t, nil
}
