package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/models"
)

// updateStatusInTx writes a new status if the row still carries expectedVersion.
// It returns the bumped version, ErrNotFound for a missing row and ErrConflict when
// another writer got there first.
func updateStatusInTx(ctx context.Context, tx *sqlx.Tx, table, id string, status models.Status, updatedAt time.Time, expectedVersion int64) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, updated_at = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`, table)

	var version int64

	err := tx.QueryRowxContext(ctx, query, status, updatedAt, id, expectedVersion).Scan(&version)

	if err == nil {
		return version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, wrapDBError(err)
	}

	var exists bool

	if err := tx.GetContext(ctx, &exists, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), id); err != nil {
		return 0, wrapDBError(err)
	}
	if !exists {
		return 0, ErrNotFound
	}

	return 0, fmt.Errorf("%w: %s %s is no longer at version %d", ErrConflict, table, id, expectedVersion)
}
