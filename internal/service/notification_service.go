package service

import (
	"context"
	"fmt"
	"time"

	"insurance-intake-be/internal/dto"
	"insurance-intake-be/internal/pkg/logger"
	"insurance-intake-be/pkg/events"
	pktNats "insurance-intake-be/pkg/nats" // Renamed to avoid collision
)

// HandoverDelivery defines how to push real-time handover notices.
// Typically implemented by the WebSocket Hub.
type HandoverDelivery interface {
	Broadcast(notice dto.HandoverNotice)
}

// NotificationService bridges the event bus and connected operator
// dashboards. Every escalated session becomes a HandoverNotice pushed
// to whoever is watching the handover feed.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   HandoverDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery HandoverDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	subject := "events." + events.SessionEscalatedType
	err := s.subscriber.Subscribe(subject, "handover-feed", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start handover subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", fmt.Sprintf("Notification service started, listening to %s", subject), nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	threadID, _ := payload["thread_id"].(string)
	if threadID == "" {
		s.logger.Warn("NotificationService", "Escalation event without thread_id, dropping", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	reason, _ := payload["reason"].(string)

	at := event.Timestamp()
	if raw, ok := payload["at"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			at = parsed
		}
	}

	s.logger.Info("NotificationService", "Broadcasting handover notice", map[string]interface{}{
		"thread_id": threadID,
		"reason":    reason,
	})

	if s.delivery != nil {
		s.delivery.Broadcast(dto.HandoverNotice{
			ThreadID: threadID,
			Reason:   reason,
			At:       at,
		})
	}

	return nil
}
