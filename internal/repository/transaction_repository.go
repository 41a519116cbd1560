package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/database"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// TransactionRepository stores ledger entries. Entries are never updated or deleted.
type TransactionRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *database.Database, logger logger.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx appends a ledger entry within a transaction
func (r *TransactionRepository) CreateInTx(ctx context.Context, tx *sqlx.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, type, category, amount, description, date, reference, created_at)
		VALUES (:id, :type, :category, :amount, :description, :date, :reference, :created_at)
	`

	if _, err := tx.NamedExecContext(ctx, query, t); err != nil {
		r.logger.Error("Failed to record transaction", "error", err, "transactionID", t.ID)
		return wrapDBError(err)
	}

	return nil
}

// ListBetween returns entries dated within [from, to]. A zero bound is open.
func (r *TransactionRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Transaction, error) {
	query := `
		SELECT id, type, category, amount, description, date, reference, created_at
		FROM transactions
		WHERE ($1::date IS NULL OR date >= $1::date) AND ($2::date IS NULL OR date <= $2::date)
		ORDER BY date ASC, created_at ASC
	`

	transactions := []*models.Transaction{}

	if err := r.db.DB.SelectContext(ctx, &transactions, query, nullableDate(from), nullableDate(to)); err != nil {
		r.logger.Error("Failed to list transactions", "error", err, "from", from, "to", to)
		return nil, wrapDBError(err)
	}

	return transactions, nil
}

func nullableDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}
