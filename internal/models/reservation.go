package models

import (
	"time"
)

// Reservation represents a booked catering event
type Reservation struct {
	ID              string    `db:"id" json:"id"`
	ClientID        string    `db:"client_id" json:"client_id"`
	EventAt         time.Time `db:"event_at" json:"event_at"`
	GuestCount      int       `db:"guest_count" json:"guest_count"`
	EventType       string    `db:"event_type" json:"event_type"`
	Venue           string    `db:"venue" json:"venue,omitempty"`
	SpecialRequests string    `db:"special_requests" json:"special_requests,omitempty"`
	Status          Status    `db:"status" json:"status"`
	Version         int64     `db:"version" json:"version"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// NewReservation creates a pending reservation
func NewReservation(clientID string, eventAt time.Time, guestCount int, eventType string) *Reservation {
	now := GetCurrentTime()

	return &Reservation{
		ID:         GenerateID("res"),
		ClientID:   clientID,
		EventAt:    eventAt,
		GuestCount: guestCount,
		EventType:  eventType,
		Status:     ReservationStatusPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r Reservation) Kind() EntityKind { return KindReservation }
func (r Reservation) GetID() string { return r.ID }
func (r Reservation) GetStatus() Status { return r.Status }
func (r Reservation) GetVersion() int64 { return r.Version }

// WithStatus returns a copy of the reservation in the given status
func (r Reservation) WithStatus(status Status, at time.Time) Reservation {
	next := r
	next.Status = status
	next.UpdatedAt = at
	return next
}
