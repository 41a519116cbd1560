package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/models"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// CreateReservationInput is what a caller supplies to book an event
type CreateReservationInput struct {
	ClientID        string    `json:"client_id"`
	EventAt         time.Time `json:"event_at"`
	GuestCount      int       `json:"guest_count"`
	EventType       string    `json:"event_type"`
	Venue           string    `json:"venue"`
	SpecialRequests string    `json:"special_requests"`
}

// ReservationService handles reservation-related operations
type ReservationService struct {
	tx           TxRunner
	reservations ReservationStore
	outbox       OutboxWriter
	engine       *lifecycle.Engine
	logger       logger.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(tx TxRunner, reservations ReservationStore, outbox OutboxWriter, engine *lifecycle.Engine, logger logger.Logger) *ReservationService {
	return &ReservationService{
		tx:           tx,
		reservations: reservations,
		outbox:       outbox,
		engine:       engine,
		logger:       logger,
	}
}

// CreateReservation stores a pending reservation
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	switch {
	case strings.TrimSpace(in.ClientID) == "":
		return nil, apperrors.NewInvalidInputError("client_id is required")
	case in.EventAt.IsZero():
		return nil, apperrors.NewInvalidInputError("event_at is required")
	case in.GuestCount <= 0:
		return nil, apperrors.NewUnprocessableError("guest_count must be greater than zero")
	case strings.TrimSpace(in.EventType) == "":
		return nil, apperrors.NewInvalidInputError("event_type is required")
	}

	res := models.NewReservation(in.ClientID, in.EventAt.UTC(), in.GuestCount, in.EventType)
	res.Venue = in.Venue
	res.SpecialRequests = in.SpecialRequests

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.reservations.CreateInTx(ctx, tx, res); err != nil {
			return err
		}

		if _, err := queueCreated(ctx, tx, s.outbox, models.KindReservation, res.ID, res); err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created", "reservationID", res.ID, "eventAt", res.EventAt, "guests", res.GuestCount)
	return res, nil
}

// GetReservation retrieves a reservation by ID
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// ListReservations returns reservations whose event falls in [from, to)
func (s *ReservationService) ListReservations(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	if !to.After(from) {
		return nil, apperrors.NewInvalidInputError("to must be after from")
	}
	return s.reservations.ListBetween(ctx, from, to)
}

// UpdateReservationStatus moves a reservation to target on behalf of role and queues the transition event
func (s *ReservationService) UpdateReservationStatus(ctx context.Context, id string, target models.Status, role string) (*models.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, id)

	if err != nil {
		return nil, err
	}

	next, event, err := s.engine.TransitionReservation(*current, target, role)

	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.reservations.UpdateStatusInTx(ctx, tx, &next, current.Version); err != nil {
			return err
		}

		if _, err := queueTransition(ctx, tx, s.outbox, event); err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation status updated",
		"reservationID", next.ID,
		"oldStatus", event.FromStatus,
		"newStatus", event.ToStatus,
		"role", role)

	return &next, nil
}
