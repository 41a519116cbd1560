package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types written to the outbox
const (
	EventEntityCreated       = "entity_created"
	EventEntityTransitioned  = "entity_transitioned"
	EventTransactionRecorded = "transaction_recorded"
)

// OutboxMessage represents a message to be published from the outbox table
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent is the envelope serialized into the outbox payload
type OutboxMessageEvent struct {
	EventType   string          `json:"event_type"`
	EventID     string          `json:"event_id"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Data        json.RawMessage `json:"data"`
}

func newOutboxMessage(eventType, eventID string, kind EntityKind, aggregateID string, occurredAt time.Time, data interface{}) (*OutboxMessage, error) {
	raw, err := json.Marshal(data)

	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(OutboxMessageEvent{
		EventType:   eventType,
		EventID:     eventID,
		AggregateID: aggregateID,
		OccurredAt:  occurredAt,
		Data:        raw,
	})

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		EventType:          eventType,
		Payload:            payload,
		AggregateType:      string(kind),
		AggregateID:        aggregateID,
		CreatedAt:          GetCurrentTime(),
		ProcessingAttempts: 0,
		Status:             OutboxStatusPending,
	}, nil
}

// NewTransitionOutboxMessage wraps a transition event for publication
func NewTransitionOutboxMessage(event TransitionEvent) (*OutboxMessage, error) {
	return newOutboxMessage(EventEntityTransitioned, event.EventID, event.EntityKind, event.EntityID, event.Timestamp, event)
}

// NewEntityCreatedOutboxMessage announces a newly created entity
func NewEntityCreatedOutboxMessage(kind EntityKind, id string, entity interface{}) (*OutboxMessage, error) {
	return newOutboxMessage(EventEntityCreated, GenerateID("evt"), kind, id, GetCurrentTime(), entity)
}

// NewTransactionRecordedOutboxMessage announces a new ledger entry
func NewTransactionRecordedOutboxMessage(t *Transaction) (*OutboxMessage, error) {
	return newOutboxMessage(EventTransactionRecorded, GenerateID("evt"), KindTransaction, t.ID, t.CreatedAt, t)
}
