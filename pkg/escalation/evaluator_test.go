package escalation

import (
	"context"
	"errors"
	"testing"

	"insurance-intake-be/pkg/llm"
)

// fakeProvider returns a canned response for Chat calls.
type fakeProvider struct {
	response string
	err      error
	gotJSON  bool
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, o := range opts {
		o(options)
	}
	f.gotJSON = options.JSONMode
	return f.response, f.err
}

func (f *fakeProvider) ChatTools(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, opts ...llm.Option) (*llm.ChatResult, error) {
	return &llm.ChatResult{Content: f.response}, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.response, f.err
}

func TestEvaluateConditionMet(t *testing.T) {
	fake := &fakeProvider{response: `{"requires_handover": true, "reason": "caller asked for a human"}`}
	e := NewEvaluator(fake, "")

	d, err := e.Evaluate(context.Background(), "caller requests a human agent", "get me a person", "I can help with that")
	if err != nil {
		t.Fatal(err)
	}
	if !d.RequiresHandover {
		t.Error("RequiresHandover = false, want true")
	}
	if d.Reason != "caller asked for a human" {
		t.Errorf("Reason = %q", d.Reason)
	}
	if !fake.gotJSON {
		t.Error("evaluator must request JSON mode")
	}
}

func TestEvaluateConditionNotMet(t *testing.T) {
	fake := &fakeProvider{response: `{"requires_handover": false, "reason": ""}`}
	e := NewEvaluator(fake, "")

	d, err := e.Evaluate(context.Background(), "caller is angry", "hi there", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if d.RequiresHandover {
		t.Error("RequiresHandover = true, want false")
	}
}

func TestEvaluateEmptyConditionSkipsModel(t *testing.T) {
	fake := &fakeProvider{err: errors.New("must not be called")}
	e := NewEvaluator(fake, "")

	d, err := e.Evaluate(context.Background(), "   ", "msg", "reply")
	if err != nil {
		t.Fatalf("empty condition must short-circuit, got %v", err)
	}
	if d.RequiresHandover {
		t.Error("empty condition must never trigger")
	}
}

func TestEvaluateProviderFailureIsError(t *testing.T) {
	fake := &fakeProvider{err: errors.New("model offline")}
	e := NewEvaluator(fake, "")

	if _, err := e.Evaluate(context.Background(), "cond", "msg", "reply"); err == nil {
		t.Fatal("expected error so the caller can fail open")
	}
}

func TestEvaluateToleratesWrappedJSON(t *testing.T) {
	fake := &fakeProvider{response: "Here you go:\n```json\n{\"requires_handover\": true, \"reason\": \"x\"}\n```"}
	e := NewEvaluator(fake, "")

	d, err := e.Evaluate(context.Background(), "cond", "msg", "reply")
	if err != nil {
		t.Fatal(err)
	}
	if !d.RequiresHandover {
		t.Error("fenced JSON verdict was not parsed")
	}
}

func TestEvaluateGarbageIsError(t *testing.T) {
	fake := &fakeProvider{response: "I cannot decide"}
	e := NewEvaluator(fake, "")

	if _, err := e.Evaluate(context.Background(), "cond", "msg", "reply"); err == nil {
		t.Fatal("unparseable verdict must be an error")
	}
}
