package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// AuditRecorder persists transition events
type AuditRecorder interface {
	Record(ctx context.Context, event models.TransitionEvent) error
}

// AuditEventsHandler consumes the lifecycle topic and writes transition events to the audit log
type AuditEventsHandler struct {
	recorder AuditRecorder
	logger   logger.Logger
}

// NewAuditEventsHandler creates a new AuditEventsHandler
func NewAuditEventsHandler(recorder AuditRecorder, logger logger.Logger) *AuditEventsHandler {
	return &AuditEventsHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// HandleMessage handles incoming lifecycle events from Kafka messages
func (h *AuditEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("failed to unmarshal message", "error", err, "offset", msg.Offset)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	h.logger.Debug("Handling lifecycle event",
		"eventType", event.EventType,
		"eventId", event.EventID,
		"aggregateId", event.AggregateID,
		"occurredAt", event.OccurredAt,
	)

	switch event.EventType {
	case models.EventEntityTransitioned:
		return h.handleTransition(ctx, event)
	case models.EventEntityCreated, models.EventTransactionRecorded:
		return nil
	default:
		h.logger.Warn("unknown event type", "eventType", event.EventType)
		return nil
	}
}

func (h *AuditEventsHandler) handleTransition(ctx context.Context, event models.OutboxMessageEvent) error {
	var transition models.TransitionEvent

	if err := json.Unmarshal(event.Data, &transition); err != nil {
		h.logger.Error("Invalid event data format", "eventID", event.EventID, "error", err)
		return fmt.Errorf("invalid event data format: %w", err)
	}

	if transition.EventID == "" {
		transition.EventID = event.EventID
	}

	if err := h.recorder.Record(ctx, transition); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	h.logger.Info("Transition recorded",
		"entityKind", transition.EntityKind,
		"entityID", transition.EntityID,
		"from", transition.FromStatus,
		"to", transition.ToStatus,
		"role", transition.ActingRole)

	return nil
}
