package models

import (
	"time"
)

// TransitionEvent records one accepted status change
type TransitionEvent struct {
	EventID    string     `json:"event_id"`
	EntityKind EntityKind `json:"entity_kind"`
	EntityID   string     `json:"entity_id"`
	FromStatus Status     `json:"from_status"`
	ToStatus   Status     `json:"to_status"`
	ActingRole string     `json:"acting_role"`
	Timestamp  time.Time  `json:"timestamp"`
}

// AuditEntry is a transition event as stored by the audit log
type AuditEntry struct {
	ID         int64      `db:"id" json:"id"`
	EventID    string     `db:"event_id" json:"event_id"`
	EntityKind EntityKind `db:"entity_kind" json:"entity_kind"`
	EntityID   string     `db:"entity_id" json:"entity_id"`
	FromStatus Status     `db:"from_status" json:"from_status"`
	ToStatus   Status     `db:"to_status" json:"to_status"`
	ActingRole string     `db:"acting_role" json:"acting_role"`
	OccurredAt time.Time  `db:"occurred_at" json:"occurred_at"`
	RecordedAt time.Time  `db:"recorded_at" json:"recorded_at"`
}

// NewAuditEntry converts a transition event into an audit row
func NewAuditEntry(event TransitionEvent) *AuditEntry {
	return &AuditEntry{
		EventID:    event.EventID,
		EntityKind: event.EntityKind,
		EntityID:   event.EntityID,
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		ActingRole: event.ActingRole,
		OccurredAt: event.Timestamp,
		RecordedAt: GetCurrentTime(),
	}
}
