package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurance-intake-be/internal/constant"
	"insurance-intake-be/internal/dto"
	"insurance-intake-be/internal/repository/memory"
	"insurance-intake-be/pkg/escalation"
	"insurance-intake-be/pkg/fault"
	"insurance-intake-be/pkg/llm"
	"insurance-intake-be/pkg/store"
)

type chatFixture struct {
	service      IChatService
	registry     *memory.SessionRegistry
	provider     *scriptedProvider
	evalProvider *scriptedProvider
	crmClient    *recordingCRMClient
	policyClient *countingPolicyClient
	quoteRepo    *memoryQuoteRepo
	pubSub       *gochannel.GoChannel
}

func TestChat_PlainReply(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{{Content: "Hello! How can I help with your insurance today?"}}

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{
		ThreadID: "thread-1",
		Message:  "hi there",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello! How can I help with your insurance today?", resp.Reply)
	assert.False(t, resp.Escalated)

	sess, ok := f.registry.Get("thread-1")
	require.True(t, ok)
	require.Len(t, sess.Messages, 3)
	assert.Equal(t, constant.ChatMessageRoleSystem, sess.Messages[0].Role)
	assert.Equal(t, "hi there", sess.Messages[1].Content)
	assert.Equal(t, constant.ChatMessageRoleAssistant, sess.Messages[2].Role)
}

func TestChat_CustomSystemPromptReplacesOnExistingThread(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{
		{Content: "first"},
		{Content: "second"},
	}

	_, err := f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t", Message: "one"})
	require.NoError(t, err)

	_, err = f.service.Chat(context.Background(), &dto.ChatRequest{
		ThreadID:     "t",
		Message:      "two",
		SystemPrompt: "You are a pirate.",
	})
	require.NoError(t, err)

	sess, _ := f.registry.Get("t")
	assert.Equal(t, "You are a pirate.", sess.Messages[0].Content)
	// History before the swap is untouched.
	assert.Equal(t, "one", sess.Messages[1].Content)
}

func TestChat_ToolLoop(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{
		{ToolCalls: []llm.ToolCall{{
			ID:   "call_1",
			Name: "set_user_action",
			Arguments: map[string]interface{}{
				"action":         "ADD",
				"insurance_type": "FLOOD",
			},
		}}},
		{Content: "Got it, let's get your flood quote started."},
	}

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{
		ThreadID: "t",
		Message:  "I want flood insurance",
	})
	require.NoError(t, err)
	assert.Equal(t, "Got it, let's get your flood quote started.", resp.Reply)
	assert.Equal(t, 2, f.provider.chatToolsCalls)

	sess, _ := f.registry.Get("t")
	assert.Equal(t, store.ActionAdd, sess.Action.Type)
	assert.Equal(t, "FLOOD", string(sess.Action.Insurance))

	// The tool exchange is on the history: assistant call + tool result.
	var sawToolMsg bool
	for _, m := range sess.Messages {
		if m.Role == constant.ChatMessageRoleTool {
			sawToolMsg = true
			assert.Equal(t, "call_1", m.ToolCallID)
		}
	}
	assert.True(t, sawToolMsg)
}

func TestChat_EscalatedThreadShortCircuits(t *testing.T) {
	f := buildFixture(t)

	sess, _ := f.registry.GetOrCreate("t", constant.DefaultSystemPrompt)
	sess.Escalate("caller asked for a human")
	f.registry.Save(sess)

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t", Message: "hello?"})
	require.NoError(t, err)

	assert.Equal(t, constant.HandoverMessage, resp.Reply)
	assert.True(t, resp.Escalated)
	assert.Equal(t, "caller asked for a human", resp.EscalationReason)
	// No model traffic at all for an escalated thread.
	assert.Equal(t, 0, f.provider.chatToolsCalls)
	assert.Equal(t, 0, f.provider.chatCalls)

	// The caller's message is still on the record for the agent.
	sess, _ = f.registry.Get("t")
	last := sess.Messages[len(sess.Messages)-2]
	assert.Equal(t, "hello?", last.Content)
}

func TestChat_ResetEscalationResumesProcessing(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{{Content: "Welcome back!"}}

	sess, _ := f.registry.GetOrCreate("t", constant.DefaultSystemPrompt)
	sess.Escalate("testing")
	f.registry.Save(sess)

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{
		ThreadID:        "t",
		Message:         "hi again",
		ResetEscalation: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Welcome back!", resp.Reply)
	assert.False(t, resp.Escalated)
	assert.True(t, resp.EscalationReset)
	assert.Equal(t, 1, f.provider.chatToolsCalls)
}

func TestChat_ResetFlagWithoutActiveEscalationIsNotAcknowledged(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{{Content: "Hello!"}}

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{
		ThreadID:        "t",
		Message:         "hi",
		ResetEscalation: true,
	})
	require.NoError(t, err)

	assert.False(t, resp.EscalationReset)
}

func TestChat_EscalationConditionMet(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{{Content: "I understand you're upset."}}
	f.evalProvider.chatReplies = []string{`{"requires_handover": true, "reason": "caller is angry"}`}

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{
		ThreadID:            "t",
		Message:             "this is ridiculous, I want a manager",
		EscalationCondition: "escalate when the caller is angry",
	})
	require.NoError(t, err)

	assert.True(t, resp.Escalated)
	assert.Equal(t, constant.HandoverMessage, resp.Reply)
	assert.Equal(t, "caller is angry", resp.EscalationReason)

	status, err := f.service.EscalationStatus("t")
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "caller is angry", status.Reason)
	require.NotNil(t, status.At)
	assert.WithinDuration(t, time.Now(), *status.At, 5*time.Second)
}

func TestChat_EvaluatorFailureFailsOpen(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{{Content: "Here is your answer."}}
	f.evalProvider.chatErr = fmt.Errorf("model timeout")

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{
		ThreadID:            "t",
		Message:             "hello",
		EscalationCondition: "escalate when the caller is angry",
	})
	require.NoError(t, err)

	assert.False(t, resp.Escalated)
	assert.Equal(t, "Here is your answer.", resp.Reply)
}

func TestChat_ProviderFailureSurfacesAsExternal(t *testing.T) {
	f := buildFixture(t)
	f.provider.chatErr = fmt.Errorf("connection reset")

	_, err := f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t", Message: "hi"})
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.External))
}

func TestHistory(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{
		{ToolCalls: []llm.ToolCall{{
			ID:        "call_1",
			Name:      "set_user_action",
			Arguments: map[string]interface{}{"action": "ADD", "insurance_type": "HOME"},
		}}},
		{Content: "Sure, let's start your home quote."},
	}

	_, err := f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t", Message: "home insurance please"})
	require.NoError(t, err)

	history, err := f.service.History("t")
	require.NoError(t, err)
	// Only user and assistant turns; no system prompt, no tool plumbing.
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "home insurance please", history.Messages[0].Content)
	assert.Equal(t, "assistant", history.Messages[1].Role)
}

func TestHistory_UnknownThread(t *testing.T) {
	f := buildFixture(t)

	_, err := f.service.History("nope")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.NotFound))
}

func TestDeleteThread_PublishesTranscriptAndForgets(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{{Content: "hello!"}, {Content: "fresh start"}}

	messages, err := f.pubSub.Subscribe(context.Background(), "SAVE_TRANSCRIPT")
	require.NoError(t, err)

	_, err = f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t", Message: "hi"})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteThread(context.Background(), "t"))

	select {
	case msg := <-messages:
		var payload dto.SaveTranscriptMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "t", payload.ThreadID)
		require.Len(t, payload.Messages, 2)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript published")
	}

	// The thread is gone; the next chat starts a fresh session.
	_, ok := f.registry.Get("t")
	assert.False(t, ok)

	resp, err := f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t", Message: "hello again"})
	require.NoError(t, err)
	assert.Equal(t, "fresh start", resp.Reply)

	sess, _ := f.registry.Get("t")
	assert.Equal(t, store.ActionContext{}, sess.Action)
}

func TestDeleteThread_UnknownThreadIsNoop(t *testing.T) {
	f := buildFixture(t)
	require.NoError(t, f.service.DeleteThread(context.Background(), "never-existed"))
}

func TestResetEscalation_UnknownThread(t *testing.T) {
	f := buildFixture(t)
	err := f.service.ResetEscalation("nope")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.NotFound))
}

func TestActiveSessions(t *testing.T) {
	f := buildFixture(t)
	f.provider.toolResults = []*llm.ChatResult{{Content: "a"}, {Content: "b"}}

	_, err := f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t1", Message: "hi"})
	require.NoError(t, err)
	_, err = f.service.Chat(context.Background(), &dto.ChatRequest{ThreadID: "t2", Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, 2, f.service.ActiveSessions())
}

// buildFixture wires the chat service against in-memory fakes plus the
// real session registry, tool registry, and transcript publisher.
func buildFixture(t *testing.T) *chatFixture {
	t.Helper()

	registry := memory.NewSessionRegistry()
	provider := &scriptedProvider{}
	evalProvider := &scriptedProvider{}
	crmClient := newRecordingCRMClient()
	policyClient := &countingPolicyClient{}
	quoteRepo := &memoryQuoteRepo{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	toolsService := NewIntakeToolsService(crmClient, policyClient, quoteRepo, noopLogger{})
	evaluator := escalation.NewEvaluator(evalProvider, "")
	publisher := NewPublisherService("SAVE_TRANSCRIPT", pubSub)

	svc := NewChatService(
		registry,
		provider,
		toolsService.Registry(),
		evaluator,
		publisher,
		nil,
		noopLogger{},
		8,
	)

	return &chatFixture{
		service:      svc,
		registry:     registry,
		provider:     provider,
		evalProvider: evalProvider,
		crmClient:    crmClient,
		policyClient: policyClient,
		quoteRepo:    quoteRepo,
		pubSub:       pubSub,
	}
}
