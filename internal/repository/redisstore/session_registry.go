package redisstore

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"insurance-intake-be/internal/repository/contract"
	"insurance-intake-be/pkg/store"
)

const keyPrefix = "intake:session:"

// SessionRegistry keeps conversation state in Redis so sessions
// survive a process restart. The per-thread lock is process-local;
// running multiple instances requires sticky routing per thread.
type SessionRegistry struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ contract.SessionRegistry = &SessionRegistry{}

func NewSessionRegistry(rdb *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		rdb:   rdb,
		ttl:   ttl,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionRegistry) GetOrCreate(threadID, systemPrompt string) (*store.ConversationSession, bool) {
	if session, found := r.Get(threadID); found {
		return session, false
	}

	session := store.NewConversationSession(threadID, systemPrompt)
	r.Save(session)
	return session, true
}

func (r *SessionRegistry) Get(threadID string) (*store.ConversationSession, bool) {
	raw, err := r.rdb.Get(context.Background(), keyPrefix+threadID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[ERROR] Redis session read failed for %s: %v", threadID, err)
		}
		return nil, false
	}

	var session store.ConversationSession
	if err := json.Unmarshal(raw, &session); err != nil {
		log.Printf("[ERROR] Corrupt session payload for %s, discarding: %v", threadID, err)
		r.Delete(threadID)
		return nil, false
	}
	return &session, true
}

func (r *SessionRegistry) Save(session *store.ConversationSession) {
	raw, err := json.Marshal(session)
	if err != nil {
		log.Printf("[ERROR] Session marshal failed for %s: %v", session.ThreadID, err)
		return
	}
	if err := r.rdb.Set(context.Background(), keyPrefix+session.ThreadID, raw, r.ttl).Err(); err != nil {
		log.Printf("[ERROR] Redis session write failed for %s: %v", session.ThreadID, err)
	}
}

func (r *SessionRegistry) Delete(threadID string) {
	if err := r.rdb.Del(context.Background(), keyPrefix+threadID).Err(); err != nil {
		log.Printf("[ERROR] Redis session delete failed for %s: %v", threadID, err)
	}
}

func (r *SessionRegistry) Count() int {
	ctx := context.Background()
	var cursor uint64
	count := 0
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			log.Printf("[ERROR] Redis session scan failed: %v", err)
			return count
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count
		}
	}
}

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
