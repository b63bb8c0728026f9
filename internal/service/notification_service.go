package service

import (
	"context"
	"fmt"

	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/events"
	pktNats "docchat-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery pushes real-time updates to connected users.
// Implemented by the websocket hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, eventType string, data interface{})
	Broadcast(eventType string, data interface{})
}

// NotificationService relays domain events from the message bus to the
// websocket layer so other devices of the same user stay in sync.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start event subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	rawUserID, ok := payload["user_id"].(string)
	if !ok || rawUserID == "" {
		// Events without a target user are informational only
		return nil
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s carries invalid user_id", event.EventType()), map[string]interface{}{"user_id": rawUserID})
		return nil
	}

	s.delivery.Send(userID, event.EventType(), payload)
	return nil
}
