package store

import (
	"time"

	"insurance-intake-be/pkg/insurance"
	"insurance-intake-be/pkg/llm"
	"insurance-intake-be/pkg/policy"
)

// ActionType is what the caller wants to do with a policy.
type ActionType string

const (
	ActionAdd    ActionType = "ADD"
	ActionUpdate ActionType = "UPDATE"
)

// ActionContext is the declared intent for the current conversation.
// Zero values mean the caller has not chosen yet.
type ActionContext struct {
	Type      ActionType     `json:"type,omitempty"`
	Insurance insurance.Type `json:"insurance,omitempty"`
}

// Selected reports whether an action has been declared.
func (a ActionContext) Selected() bool {
	return a.Type != "" && a.Insurance != ""
}

// PolicyCacheEntry records the outcome of one external policy lookup.
// A NotFound entry is terminal for the session: the number definitively
// does not exist and is never looked up again. Transport failures leave
// no entry, so a later attempt may retry.
type PolicyCacheEntry struct {
	NotFound  bool           `json:"not_found"`
	Policy    *policy.Policy `json:"policy,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// EscalationState marks a conversation as handed over to a human.
type EscalationState struct {
	Active bool      `json:"active"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// ConversationSession is the full per-thread state. All access is
// serialized by the registry's per-thread lock; the struct itself is
// not safe for concurrent use.
type ConversationSession struct {
	ThreadID string        `json:"thread_id"`
	Messages []llm.Message `json:"messages"`

	Action    ActionContext                       `json:"action"`
	Collected map[insurance.Type]*insurance.Record `json:"collected"`

	PolicyCache map[string]*PolicyCacheEntry `json:"policy_cache"`

	Escalation *EscalationState `json:"escalation,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// NewConversationSession creates a fresh session seeded with the
// system prompt as message zero.
func NewConversationSession(threadID, systemPrompt string) *ConversationSession {
	now := time.Now()
	return &ConversationSession{
		ThreadID: threadID,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
		},
		Collected:    make(map[insurance.Type]*insurance.Record),
		PolicyCache:  make(map[string]*PolicyCacheEntry),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// ReplaceSystemPrompt swaps message zero without touching history.
func (s *ConversationSession) ReplaceSystemPrompt(prompt string) {
	if len(s.Messages) > 0 && s.Messages[0].Role == "system" {
		s.Messages[0].Content = prompt
		return
	}
	s.Messages = append([]llm.Message{{Role: "system", Content: prompt}}, s.Messages...)
}

// Append adds a message and bumps the activity timestamp.
func (s *ConversationSession) Append(msg llm.Message) {
	s.Messages = append(s.Messages, msg)
	s.LastActivity = time.Now()
}

// Record returns the in-progress record for the line, creating it on
// first use. One record per line per session; later data merges in.
func (s *ConversationSession) Record(t insurance.Type) *insurance.Record {
	if s.Collected == nil {
		s.Collected = make(map[insurance.Type]*insurance.Record)
	}
	rec, ok := s.Collected[t]
	if !ok {
		rec = insurance.NewRecord(t)
		s.Collected[t] = rec
	}
	return rec
}

// ActiveRecord returns the record for the currently selected line, or
// nil when no line has been selected or nothing was collected yet.
func (s *ConversationSession) ActiveRecord() *insurance.Record {
	if s.Action.Insurance == "" || s.Collected == nil {
		return nil
	}
	return s.Collected[s.Action.Insurance]
}

// CachedPolicy reads the lookup cache without side effects.
func (s *ConversationSession) CachedPolicy(policyNumber string) (*PolicyCacheEntry, bool) {
	if s.PolicyCache == nil {
		return nil, false
	}
	entry, ok := s.PolicyCache[policyNumber]
	return entry, ok
}

// CachePolicy stores a successful lookup result.
func (s *ConversationSession) CachePolicy(policyNumber string, p *policy.Policy) {
	if s.PolicyCache == nil {
		s.PolicyCache = make(map[string]*PolicyCacheEntry)
	}
	s.PolicyCache[policyNumber] = &PolicyCacheEntry{Policy: p, FetchedAt: time.Now()}
}

// CachePolicyMiss stores a definitive not-found outcome.
func (s *ConversationSession) CachePolicyMiss(policyNumber string) {
	if s.PolicyCache == nil {
		s.PolicyCache = make(map[string]*PolicyCacheEntry)
	}
	s.PolicyCache[policyNumber] = &PolicyCacheEntry{NotFound: true, FetchedAt: time.Now()}
}

// Escalated reports whether the session is in the handed-over state.
func (s *ConversationSession) Escalated() bool {
	return s.Escalation != nil && s.Escalation.Active
}

// Escalate moves the session into the handed-over state.
func (s *ConversationSession) Escalate(reason string) {
	s.Escalation = &EscalationState{
		Active: true,
		Reason: reason,
		At:     time.Now(),
	}
}

// ResetEscalation clears the handed-over state. Idempotent.
func (s *ConversationSession) ResetEscalation() {
	s.Escalation = nil
}
