package service

import (
	"context"
	"time"

	"insurance-intake-be/internal/constant"
	"insurance-intake-be/internal/dto"
	"insurance-intake-be/internal/pkg/logger"
	"insurance-intake-be/internal/repository/contract"
	"insurance-intake-be/pkg/escalation"
	"insurance-intake-be/pkg/events"
	"insurance-intake-be/pkg/fault"
	"insurance-intake-be/pkg/llm"
	pktNats "insurance-intake-be/pkg/nats"
	"insurance-intake-be/pkg/store"
	"insurance-intake-be/pkg/tools"
)

type IChatService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	History(threadID string) (*dto.ThreadHistoryResponse, error)
	DeleteThread(ctx context.Context, threadID string) error
	EscalationStatus(threadID string) (*dto.EscalationStatusResponse, error)
	ResetEscalation(threadID string) error
	ActiveSessions() int
}

// chatService orchestrates one conversation turn: session lookup, the
// model/tool loop, escalation evaluation, and event publication. All
// per-thread work runs under the registry's thread lock, so concurrent
// requests for the same thread serialize while other threads proceed.
type chatService struct {
	registry     contract.SessionRegistry
	provider     llm.LLMProvider
	toolRegistry *tools.Registry
	evaluator    *escalation.Evaluator
	publisher    IPublisherService
	natsPub      *pktNats.Publisher
	logger       logger.ILogger
	maxToolTurns int
}

func NewChatService(
	registry contract.SessionRegistry,
	provider llm.LLMProvider,
	toolRegistry *tools.Registry,
	evaluator *escalation.Evaluator,
	publisher IPublisherService,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
	maxToolTurns int,
) IChatService {
	if maxToolTurns <= 0 {
		maxToolTurns = 8
	}
	return &chatService{
		registry:     registry,
		provider:     provider,
		toolRegistry: toolRegistry,
		evaluator:    evaluator,
		publisher:    publisher,
		natsPub:      natsPub,
		logger:       log,
		maxToolTurns: maxToolTurns,
	}
}

func (s *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	unlock := s.registry.Lock(req.ThreadID)
	defer unlock()

	resetApplied := false
	if req.ResetEscalation {
		if sess, ok := s.registry.Get(req.ThreadID); ok && sess.Escalated() {
			sess.ResetEscalation()
			s.registry.Save(sess)
			resetApplied = true
			s.logger.Info("ChatService", "Escalation reset before processing", map[string]interface{}{"thread_id": req.ThreadID})
		}
	}

	prompt := req.SystemPrompt
	if prompt == "" {
		prompt = constant.DefaultSystemPrompt
	}

	sess, created := s.registry.GetOrCreate(req.ThreadID, prompt)
	if !created && req.SystemPrompt != "" {
		sess.ReplaceSystemPrompt(req.SystemPrompt)
	}

	// An escalated thread never reaches the model again. The caller's
	// message is still recorded for the transcript and the waiting agent.
	if sess.Escalated() {
		sess.Append(llm.Message{Role: constant.ChatMessageRoleUser, Content: req.Message})
		sess.Append(llm.Message{Role: constant.ChatMessageRoleAssistant, Content: constant.HandoverMessage})
		s.registry.Save(sess)

		return &dto.ChatResponse{
			ThreadID:         req.ThreadID,
			Reply:            constant.HandoverMessage,
			Escalated:        true,
			EscalationReason: sess.Escalation.Reason,
			EscalationReset:  resetApplied,
		}, nil
	}

	sess.Append(llm.Message{Role: constant.ChatMessageRoleUser, Content: req.Message})

	reply, err := s.runToolLoop(ctx, sess)
	if err != nil {
		return nil, err
	}

	sess.Append(llm.Message{Role: constant.ChatMessageRoleAssistant, Content: reply})
	s.registry.Save(sess)

	resp := &dto.ChatResponse{
		ThreadID:        req.ThreadID,
		Reply:           reply,
		EscalationReset: resetApplied,
	}

	if req.EscalationCondition != "" {
		if decision := s.checkEscalation(ctx, req, reply); decision != nil && decision.RequiresHandover {
			sess.Escalate(decision.Reason)
			s.registry.Save(sess)
			s.publishEscalation(ctx, sess.ThreadID, decision.Reason)

			resp.Reply = constant.HandoverMessage
			resp.Escalated = true
			resp.EscalationReason = decision.Reason
		}
	}

	return resp, nil
}

// runToolLoop drives the model until it answers in plain text or the
// turn budget runs out. Tool outputs are appended as tool-role messages
// so the model sees its own call results on the next iteration.
func (s *chatService) runToolLoop(ctx context.Context, sess *store.ConversationSession) (string, error) {
	defs := s.toolRegistry.Definitions()

	for turn := 0; turn < s.maxToolTurns; turn++ {
		result, err := s.provider.ChatTools(ctx, sess.Messages, defs)
		if err != nil {
			return "", fault.Wrap(fault.External, err, "the assistant is unavailable right now, please try again")
		}

		if len(result.ToolCalls) == 0 {
			return result.Content, nil
		}

		sess.Append(llm.Message{
			Role:      constant.ChatMessageRoleAssistant,
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})

		for _, call := range result.ToolCalls {
			output := s.toolRegistry.Dispatch(ctx, sess, call)
			sess.Append(llm.Message{
				Role:       constant.ChatMessageRoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	// Turn budget exhausted. Force a plain answer so the caller always
	// hears something instead of a dropped request.
	s.logger.Warn("ChatService", "Tool turn budget exhausted, forcing plain reply", map[string]interface{}{
		"thread_id": sess.ThreadID,
		"max_turns": s.maxToolTurns,
	})
	reply, err := s.provider.Chat(ctx, sess.Messages)
	if err != nil {
		return "", fault.Wrap(fault.External, err, "the assistant is unavailable right now, please try again")
	}
	return reply, nil
}

// checkEscalation runs the evaluator and fails open: any evaluator
// error is logged and treated as "condition not met".
func (s *chatService) checkEscalation(ctx context.Context, req *dto.ChatRequest, reply string) *escalation.Decision {
	decision, err := s.evaluator.Evaluate(ctx, req.EscalationCondition, req.Message, reply)
	if err != nil {
		s.logger.Warn("ChatService", "Escalation evaluation failed, continuing without handover", map[string]interface{}{
			"thread_id": req.ThreadID,
			"error":     err.Error(),
		})
		return nil
	}
	return decision
}

func (s *chatService) publishEscalation(ctx context.Context, threadID, reason string) {
	if s.natsPub == nil {
		return
	}
	event := events.SessionEscalated{
		ThreadID: threadID,
		Reason:   reason,
		At:       time.Now(),
	}
	if err := s.natsPub.Publish(ctx, event); err != nil {
		s.logger.Warn("ChatService", "Failed to publish escalation event", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
	}
}

func (s *chatService) History(threadID string) (*dto.ThreadHistoryResponse, error) {
	unlock := s.registry.Lock(threadID)
	defer unlock()

	sess, ok := s.registry.Get(threadID)
	if !ok {
		return nil, fault.New(fault.NotFound, "thread %s not found", threadID)
	}

	return &dto.ThreadHistoryResponse{
		ThreadID: threadID,
		Messages: conversationMessages(sess.Messages),
	}, nil
}

func (s *chatService) DeleteThread(ctx context.Context, threadID string) error {
	unlock := s.registry.Lock(threadID)
	defer unlock()

	sess, ok := s.registry.Get(threadID)
	if !ok {
		// Deleting an unknown thread is a no-op.
		return nil
	}

	payload := dto.SaveTranscriptMessage{
		ThreadID: threadID,
		Messages: conversationMessages(sess.Messages),
		EndedAt:  time.Now(),
	}
	if err := s.publisher.PublishTranscript(ctx, payload); err != nil {
		// The session is still deleted; losing one transcript beats
		// keeping a thread alive forever.
		s.logger.Error("ChatService", "Failed to publish transcript", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
	}

	s.registry.Delete(threadID)
	s.logger.Info("ChatService", "Thread deleted", map[string]interface{}{"thread_id": threadID})
	return nil
}

func (s *chatService) EscalationStatus(threadID string) (*dto.EscalationStatusResponse, error) {
	unlock := s.registry.Lock(threadID)
	defer unlock()

	sess, ok := s.registry.Get(threadID)
	if !ok {
		return nil, fault.New(fault.NotFound, "thread %s not found", threadID)
	}

	resp := &dto.EscalationStatusResponse{ThreadID: threadID}
	if sess.Escalation != nil {
		at := sess.Escalation.At
		resp.Active = sess.Escalation.Active
		resp.Reason = sess.Escalation.Reason
		resp.At = &at
	}
	return resp, nil
}

func (s *chatService) ResetEscalation(threadID string) error {
	unlock := s.registry.Lock(threadID)
	defer unlock()

	sess, ok := s.registry.Get(threadID)
	if !ok {
		return fault.New(fault.NotFound, "thread %s not found", threadID)
	}

	sess.ResetEscalation()
	s.registry.Save(sess)
	s.logger.Info("ChatService", "Escalation reset", map[string]interface{}{"thread_id": threadID})
	return nil
}

func (s *chatService) ActiveSessions() int {
	return s.registry.Count()
}

// conversationMessages keeps only what a human said and heard: user and
// assistant turns with content, dropping tool plumbing and the prompt.
func conversationMessages(messages []llm.Message) []dto.ThreadMessage {
	out := make([]dto.ThreadMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role != constant.ChatMessageRoleUser && m.Role != constant.ChatMessageRoleAssistant {
			continue
		}
		if m.Content == "" {
			continue
		}
		out = append(out, dto.ThreadMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
