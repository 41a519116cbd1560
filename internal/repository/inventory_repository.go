package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vaidashi/catering-api/internal/database"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

const inventoryColumns = `
	id, name, category, current_stock, minimum_stock, unit, unit_cost, supplier,
	expiration_date, location, created_at, updated_at`

// InventoryRepository handles database operations for inventory items
type InventoryRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewInventoryRepository creates a new InventoryRepository
func NewInventoryRepository(db *database.Database, logger logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an inventory item
func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (` + inventoryColumns + `)
		VALUES (
			:id, :name, :category, :current_stock, :minimum_stock, :unit, :unit_cost, :supplier,
			:expiration_date, :location, :created_at, :updated_at
		)
	`

	if _, err := r.db.DB.NamedExecContext(ctx, query, item); err != nil {
		r.logger.Error("Failed to create inventory item", "error", err, "itemID", item.ID)
		return wrapDBError(err)
	}

	return nil
}

// GetByID retrieves an inventory item by its ID
func (r *InventoryRepository) GetByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem

	err := r.db.DB.GetContext(ctx, &item, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get inventory item", "error", err, "itemID", id)
		return nil, wrapDBError(err)
	}

	return &item, nil
}

// ListAll returns every stocked item ordered by name
func (r *InventoryRepository) ListAll(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}

	if err := r.db.DB.SelectContext(ctx, &items, `SELECT `+inventoryColumns+` FROM inventory_items ORDER BY name ASC`); err != nil {
		r.logger.Error("Failed to list inventory items", "error", err)
		return nil, wrapDBError(err)
	}

	return items, nil
}
