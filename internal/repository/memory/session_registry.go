package memory

import (
	"sync"

	"github.com/patrickmn/go-cache"

	"insurance-intake-be/internal/repository/contract"
	"insurance-intake-be/pkg/store"
)

// SessionRegistry is the in-process implementation. Sessions live for
// the process lifetime; explicit Delete is the only eviction, matching
// the single-instance deployment this service targets.
type SessionRegistry struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ contract.SessionRegistry = &SessionRegistry{}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		cache: cache.New(cache.NoExpiration, 0),
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionRegistry) GetOrCreate(threadID, systemPrompt string) (*store.ConversationSession, bool) {
	if x, found := r.cache.Get(threadID); found {
		return x.(*store.ConversationSession), false
	}

	session := store.NewConversationSession(threadID, systemPrompt)
	r.cache.Set(threadID, session, cache.NoExpiration)
	return session, true
}

func (r *SessionRegistry) Get(threadID string) (*store.ConversationSession, bool) {
	if x, found := r.cache.Get(threadID); found {
		return x.(*store.ConversationSession), true
	}
	return nil, false
}

func (r *SessionRegistry) Save(session *store.ConversationSession) {
	r.cache.Set(session.ThreadID, session, cache.NoExpiration)
}

func (r *SessionRegistry) Delete(threadID string) {
	r.cache.Delete(threadID)
}

func (r *SessionRegistry) Count() int {
	return r.cache.ItemCount()
}

// Lock returns the unlock for the thread's mutex. Thread mutexes are
// never removed; an abandoned thread costs one idle mutex.
func (r *SessionRegistry) Lock(threadID string) func() {
	r.mu.Lock()
	m, ok := r.locks[threadID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[threadID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
