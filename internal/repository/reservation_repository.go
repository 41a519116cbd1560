package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/database"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

const reservationColumns = `
	id, client_id, event_at, guest_count, event_type, venue, special_requests, status,
	version, created_at, updated_at`

// ReservationRepository handles database operations for reservations
type ReservationRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db *database.Database, logger logger.Logger) *ReservationRepository {
	return &ReservationRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a new reservation within a transaction
func (r *ReservationRepository) CreateInTx(ctx context.Context, tx *sqlx.Tx, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (
			:id, :client_id, :event_at, :guest_count, :event_type, :venue, :special_requests, :status,
			:version, :created_at, :updated_at
		)
	`

	if _, err := tx.NamedExecContext(ctx, query, res); err != nil {
		r.logger.Error("Failed to create reservation", "error", err, "reservationID", res.ID)
		return wrapDBError(err)
	}

	return nil
}

// GetByID retrieves a reservation by its ID
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation

	err := r.db.DB.GetContext(ctx, &res, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get reservation by ID", "error", err, "reservationID", id)
		return nil, wrapDBError(err)
	}

	return &res, nil
}

// ListBetween retrieves reservations whose event falls in [from, to), earliest first
func (r *ReservationRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE event_at >= $1 AND event_at < $2
		ORDER BY event_at ASC
	`

	reservations := []*models.Reservation{}

	if err := r.db.DB.SelectContext(ctx, &reservations, query, from, to); err != nil {
		r.logger.Error("Failed to list reservations", "error", err, "from", from, "to", to)
		return nil, wrapDBError(err)
	}

	return reservations, nil
}

// UpdateStatusInTx stores the reservation's status if nobody changed it since expectedVersion
func (r *ReservationRepository) UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, res *models.Reservation, expectedVersion int64) error {
	version, err := updateStatusInTx(ctx, tx, "reservations", res.ID, res.Status, res.UpdatedAt, expectedVersion)

	if err != nil {
		return err
	}

	res.Version = version
	return nil
}
