package events

import "time"

const SessionEscalatedType = "session.escalated"

// SessionEscalated is emitted when a conversation is handed over to a
// human agent. Consumed by the operator alert worker and the handover
// websocket feed.
type SessionEscalated struct {
	ThreadID string
	Reason   string
	At       time.Time
}

func (e SessionEscalated) EventType() string {
	return SessionEscalatedType
}

func (e SessionEscalated) Payload() map[string]interface{} {
	return map[string]interface{}{
		"thread_id": e.ThreadID,
		"reason":    e.Reason,
		"at":        e.At.Format(time.RFC3339),
	}
}

func (e SessionEscalated) Timestamp() time.Time {
	return e.At
}
