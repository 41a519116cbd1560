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

const loyaltyColumns = `
	client_id, points_balance, total_points_earned, total_points_redeemed, created_at, updated_at`

// LoyaltyRepository handles database operations for loyalty accounts
type LoyaltyRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewLoyaltyRepository creates a new LoyaltyRepository
func NewLoyaltyRepository(db *database.Database, logger logger.Logger) *LoyaltyRepository {
	return &LoyaltyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByClientID retrieves a client's account
func (r *LoyaltyRepository) GetByClientID(ctx context.Context, clientID string) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount

	err := r.db.DB.GetContext(ctx, &account, `SELECT `+loyaltyColumns+` FROM loyalty_accounts WHERE client_id = $1`, clientID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get loyalty account", "error", err, "clientID", clientID)
		return nil, wrapDBError(err)
	}

	return &account, nil
}

// GetOrCreateInTx locks the client's account for the rest of tx, opening an empty one first if needed
func (r *LoyaltyRepository) GetOrCreateInTx(ctx context.Context, tx *sqlx.Tx, clientID string, at time.Time) (*models.LoyaltyAccount, error) {
	insert := `
		INSERT INTO loyalty_accounts (client_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (client_id) DO NOTHING
	`

	if _, err := tx.ExecContext(ctx, insert, clientID, at); err != nil {
		r.logger.Error("Failed to open loyalty account", "error", err, "clientID", clientID)
		return nil, wrapDBError(err)
	}

	var account models.LoyaltyAccount

	err := tx.GetContext(ctx, &account, `SELECT `+loyaltyColumns+` FROM loyalty_accounts WHERE client_id = $1 FOR UPDATE`, clientID)

	if err != nil {
		return nil, wrapDBError(err)
	}

	return &account, nil
}

// SaveInTx writes the account balances
func (r *LoyaltyRepository) SaveInTx(ctx context.Context, tx *sqlx.Tx, account *models.LoyaltyAccount) error {
	query := `
		UPDATE loyalty_accounts
		SET points_balance = :points_balance,
			total_points_earned = :total_points_earned,
			total_points_redeemed = :total_points_redeemed,
			updated_at = :updated_at
		WHERE client_id = :client_id
	`

	result, err := tx.NamedExecContext(ctx, query, account)

	if err != nil {
		r.logger.Error("Failed to save loyalty account", "error", err, "clientID", account.ClientID)
		return wrapDBError(err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
