package outbox

import (
	"context"
	"fmt"

	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/kafka"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// MessageSender is the part of the Kafka producer the handler needs
type MessageSender interface {
	SendMessage(ctx context.Context, topic, key string, value []byte, headers ...kafka.Header) error
}

// KafkaHandler publishes outbox messages to Kafka
type KafkaHandler struct {
	logger   logger.Logger
	producer MessageSender
	topic    string
}

// NewKafkaHandler creates a new KafkaHandler
func NewKafkaHandler(producer MessageSender, topic string, logger logger.Logger) *KafkaHandler {
	return &KafkaHandler{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// HandleMessage handles an outbox message by publishing it to Kafka.
// The aggregate ID is the message key so every event of one entity lands on the same partition.
func (h *KafkaHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	key := message.AggregateID

	h.logger.Debug("Publishing message to Kafka",
		"topic", h.topic,
		"messageID", message.ID,
		"aggregateID", message.AggregateID,
		"eventType", message.EventType)

	err := h.producer.SendMessage(ctx, h.topic, key, message.Payload,
		kafka.Header{Key: "event_type", Value: message.EventType},
		kafka.Header{Key: "aggregate_type", Value: message.AggregateType})

	if err != nil {
		h.logger.Error("Failed to publish message to Kafka",
			"error", err,
			"messageID", message.ID,
			"aggregateID", message.AggregateID)
		return fmt.Errorf("failed to publish message to Kafka: %w", err)
	}

	h.logger.Info("Successfully published message to Kafka",
		"messageID", message.ID,
		"aggregateID", message.AggregateID)

	return nil
}
