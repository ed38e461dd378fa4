package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"insurance-intake-be/internal/dto"
	"insurance-intake-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans handover notices out to every connected operator dashboard.
// Operators may be connected from several devices at once.
type Hub struct {
	// Registered clients map: OperatorID -> List of Clients (multi-device)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OperatorID] = append(h.clients[client.OperatorID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Operator connected to handover feed", map[string]interface{}{"operator_id": client.OperatorID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.OperatorID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.OperatorID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.OperatorID]) == 0 {
					delete(h.clients, client.OperatorID)
					h.logger.Info("Hub", "Operator fully disconnected", map[string]interface{}{"operator_id": client.OperatorID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast pushes a handover notice to every connected operator and
// relays it to sibling instances over Redis.
func (h *Hub) Broadcast(notice dto.HandoverNotice) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "handover",
		"data": notice,
	})

	h.broadcastLocal(data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"message": json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), "cluster_events", payload)
	}
}

func (h *Hub) broadcastLocal(data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Slow consumer; drop the connection rather than block
				// the feed. Run owns the single close of Send, and the
				// unregister send happens after the read lock is released
				// so Run can acquire the write lock.
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.unregister <- client
	}
}

// subscribeToRedis relays notices published by other instances to the
// operators connected here. Every instance subscribes to the same
// channel and delivers to its own local connections only.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		h.broadcastLocal(payload.Message)
	}
}
