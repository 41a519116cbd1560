package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// LoggingHandler logs the outbox message; it stands in for a broker that is not configured
type LoggingHandler struct {
	logger logger.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger logger.Logger) *LoggingHandler {
	return &LoggingHandler{
		logger: logger,
	}
}

// HandleMessage handles the outbox message by logging it
func (h *LoggingHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(message.Payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal outbox message: %w", err)
	}

	h.logger.Info("Handling outbox message",
		"messageID", message.ID,
		"eventType", message.EventType,
		"aggregateID", message.AggregateID,
		"eventID", event.EventID,
		"occurredAt", event.OccurredAt)

	return nil
}

// FanoutHandler delivers a message to every handler in order and stops at the first failure.
// Handlers earlier in the list see the message again on retry, so they must tolerate duplicates.
type FanoutHandler struct {
	handlers []MessageHandler
}

// NewFanoutHandler creates a FanoutHandler
func NewFanoutHandler(handlers ...MessageHandler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

// HandleMessage implements MessageHandler
func (h *FanoutHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	for _, handler := range h.handlers {
		if err := handler.HandleMessage(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// NotificationPublisher is the RabbitMQ publisher as seen by the outbox
type NotificationPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte, headers map[string]string) error
}

// Notification is the client-facing message sent when an entity is created or changes status
type Notification struct {
	EventID        string            `json:"event_id"`
	EntityKind     models.EntityKind `json:"entity_kind"`
	EntityID       string            `json:"entity_id"`
	Status         models.Status     `json:"status"`
	PreviousStatus models.Status     `json:"previous_status,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// NotificationHandler publishes client notifications for orders, quotes and reservations
type NotificationHandler struct {
	publisher NotificationPublisher
	logger    logger.Logger
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(publisher NotificationPublisher, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// HandleMessage implements MessageHandler
func (h *NotificationHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	notification, err := buildNotification(message)

	if err != nil {
		return err
	}

	if notification == nil {
		return nil
	}

	body, err := json.Marshal(notification)

	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	routingKey := fmt.Sprintf("%s.%s", notification.EntityKind, notification.Status)
	headers := map[string]string{
		"event_id":   notification.EventID,
		"event_type": message.EventType,
	}

	if err := h.publisher.Publish(ctx, routingKey, body, headers); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	h.logger.Info("Client notification published",
		"routingKey", routingKey,
		"entityID", notification.EntityID,
		"messageID", message.ID)

	return nil
}

var errUnknownEnvelope = errors.New("outbox payload has no event data")

// buildNotification returns nil for events clients are not told about
func buildNotification(message *models.OutboxMessage) (*Notification, error) {
	var envelope models.OutboxMessageEvent

	if err := json.Unmarshal(message.Payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outbox message: %w", err)
	}

	switch envelope.EventType {
	case models.EventEntityTransitioned:
		if len(envelope.Data) == 0 {
			return nil, errUnknownEnvelope
		}

		var event models.TransitionEvent

		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transition event: %w", err)
		}

		return &Notification{
			EventID:        event.EventID,
			EntityKind:     event.EntityKind,
			EntityID:       event.EntityID,
			Status:         event.ToStatus,
			PreviousStatus: event.FromStatus,
			OccurredAt:     event.Timestamp,
		}, nil

	case models.EventEntityCreated:
		kind := models.EntityKind(message.AggregateType)

		if kind == models.KindTransaction {
			return nil, nil
		}

		return &Notification{
			EventID:    envelope.EventID,
			EntityKind: kind,
			EntityID:   envelope.AggregateID,
			Status:     "created",
			OccurredAt: envelope.OccurredAt,
		}, nil

	default:
		return nil, nil
	}
}
