package contract

import "insurance-intake-be/pkg/store"

// SessionRegistry keeps live conversation state keyed by thread ID.
//
// Lock serializes all work on one thread: callers must hold the
// returned unlock for the full read-modify-write, including any model
// and downstream calls made on behalf of the thread. Distinct threads
// proceed in parallel.
type SessionRegistry interface {
	// GetOrCreate returns the session, creating it with the given
	// system prompt when absent. The second return reports creation.
	GetOrCreate(threadID, systemPrompt string) (*store.ConversationSession, bool)

	Get(threadID string) (*store.ConversationSession, bool)

	// Save persists the current session state. The in-memory registry
	// treats this as a touch; external stores serialize on it.
	Save(session *store.ConversationSession)

	// Delete discards all state for the thread. Idempotent.
	Delete(threadID string)

	// Count reports the number of live sessions, for health reporting.
	Count() int

	// Lock acquires the per-thread mutex and returns its unlock.
	Lock(threadID string) func()
}
