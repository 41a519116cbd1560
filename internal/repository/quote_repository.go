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

const quoteColumns = `
	id, quote_number, client_id, items, subtotal, tax_amount, discount_amount, total_amount,
	valid_until, notes, status, version, created_at, updated_at`

// QuoteRepository handles database operations for quotes
type QuoteRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(db *database.Database, logger logger.Logger) *QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a new quote within a transaction
func (r *QuoteRepository) CreateInTx(ctx context.Context, tx *sqlx.Tx, quote *models.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES (
			:id, :quote_number, :client_id, :items, :subtotal, :tax_amount, :discount_amount, :total_amount,
			:valid_until, :notes, :status, :version, :created_at, :updated_at
		)
	`

	if _, err := tx.NamedExecContext(ctx, query, quote); err != nil {
		r.logger.Error("Failed to create quote", "error", err, "quoteID", quote.ID)
		return wrapDBError(err)
	}

	return nil
}

// GetByID retrieves a quote by its ID
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	var quote models.Quote

	err := r.db.DB.GetContext(ctx, &quote, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get quote by ID", "error", err, "quoteID", id)
		return nil, wrapDBError(err)
	}

	return &quote, nil
}

// List retrieves quotes newest first, optionally in one status
func (r *QuoteRepository) List(ctx context.Context, status models.Status, opts ListOptions) ([]*models.Quote, error) {
	page := opts.normalized()
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	quotes := []*models.Quote{}

	if err := r.db.DB.SelectContext(ctx, &quotes, query, string(status), page.Limit, page.Offset); err != nil {
		r.logger.Error("Failed to list quotes", "error", err, "status", status)
		return nil, wrapDBError(err)
	}

	return quotes, nil
}

// UpdateStatusInTx stores the quote's status if nobody changed it since expectedVersion
func (r *QuoteRepository) UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, quote *models.Quote, expectedVersion int64) error {
	version, err := updateStatusInTx(ctx, tx, "quotes", quote.ID, quote.Status, quote.UpdatedAt, expectedVersion)

	if err != nil {
		return err
	}

	quote.Version = version
	return nil
}
