package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/database"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

const orderColumns = `
	id, order_number, client_id, quote_id, items, subtotal, tax_amount, discount_amount,
	total_amount, delivery_date, delivery_address, special_instructions, status, version,
	created_at, updated_at`

// OrderFilter narrows an order listing. Empty fields match everything.
type OrderFilter struct {
	Status   models.Status
	ClientID string
	ListOptions
}

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a new order within a transaction
func (r *OrderRepository) CreateInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, client_id, quote_id, items, subtotal, tax_amount, discount_amount,
			total_amount, delivery_date, delivery_address, special_instructions, status, version,
			created_at, updated_at
		) VALUES (
			:id, :order_number, :client_id, :quote_id, :items, :subtotal, :tax_amount, :discount_amount,
			:total_amount, :delivery_date, :delivery_address, :special_instructions, :status, :version,
			:created_at, :updated_at
		)
	`

	if _, err := tx.NamedExecContext(ctx, query, order); err != nil {
		r.logger.Error("Failed to create order", "error", err, "orderID", order.ID)
		return wrapDBError(err)
	}

	return nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, wrapDBError(err)
	}

	return &order, nil
}

// GetByQuoteID retrieves the order a quote was converted into
func (r *OrderRepository) GetByQuoteID(ctx context.Context, quoteID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE quote_id = $1`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, quoteID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by quote ID", "error", err, "quoteID", quoteID)
		return nil, wrapDBError(err)
	}

	return &order, nil
}

// List retrieves orders newest first
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	page := filter.ListOptions.normalized()
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR client_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	orders := []*models.Order{}
	err := r.db.DB.SelectContext(ctx, &orders, query, string(filter.Status), filter.ClientID, page.Limit, page.Offset)

	if err != nil {
		r.logger.Error("Failed to list orders", "error", err, "status", filter.Status, "clientID", filter.ClientID)
		return nil, wrapDBError(err)
	}

	return orders, nil
}

// CountByStatus counts orders per status
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	return countByStatus(ctx, r.db, "orders")
}

// UpdateStatusInTx stores the order's status if nobody changed it since expectedVersion.
// On success order.Version carries the new version.
func (r *OrderRepository) UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order, expectedVersion int64) error {
	version, err := updateStatusInTx(ctx, tx, "orders", order.ID, order.Status, order.UpdatedAt, expectedVersion)

	if err != nil {
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) {
			r.logger.Error("Failed to update order status", "error", err, "orderID", order.ID)
		}
		return err
	}

	order.Version = version
	return nil
}

func countByStatus(ctx context.Context, db *database.Database, table string) (map[models.Status]int, error) {
	rows := []struct {
		Status models.Status `db:"status"`
		Count  int           `db:"count"`
	}{}

	if err := db.DB.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM `+table+` GROUP BY status`); err != nil {
		return nil, wrapDBError(err)
	}

	counts := make(map[models.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
