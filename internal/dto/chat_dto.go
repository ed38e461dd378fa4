package dto

import "time"

type ChatRequest struct {
	ThreadID string `json:"thread_id" validate:"required"`
	Message  string `json:"message" validate:"required"`

	// SystemPrompt overrides the assistant persona for this thread.
	// On an existing thread only the system message is replaced.
	SystemPrompt string `json:"system_prompt"`

	// EscalationCondition, when set, is evaluated against each turn.
	EscalationCondition string `json:"escalation_condition"`

	// ResetEscalation clears an active handover before processing.
	ResetEscalation bool `json:"reset_escalation"`
}

type ChatResponse struct {
	ThreadID         string `json:"thread_id"`
	Reply            string `json:"reply"`
	Escalated        bool   `json:"escalated"`
	EscalationReason string `json:"escalation_reason,omitempty"`

	// EscalationReset reports that an active handover was cleared while
	// handling this request.
	EscalationReset bool `json:"escalation_reset"`
}

type ThreadMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ThreadHistoryResponse struct {
	ThreadID string          `json:"thread_id"`
	Messages []ThreadMessage `json:"messages"`
}

type EscalationStatusResponse struct {
	ThreadID string     `json:"thread_id"`
	Active   bool       `json:"active"`
	Reason   string     `json:"reason,omitempty"`
	At       *time.Time `json:"at,omitempty"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

// SaveTranscriptMessage is the payload published when a thread ends.
type SaveTranscriptMessage struct {
	ThreadID string          `json:"thread_id"`
	Messages []ThreadMessage `json:"messages"`
	EndedAt  time.Time       `json:"ended_at"`
}

// HandoverNotice is pushed to connected operator dashboards.
type HandoverNotice struct {
	ThreadID string    `json:"thread_id"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}
