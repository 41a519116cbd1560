package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/inventory"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// CreateInventoryItemInput describes a stocked item
type CreateInventoryItemInput struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	MinimumStock   decimal.Decimal `json:"minimum_stock"`
	Unit           string          `json:"unit"`
	UnitCost       money.Cents     `json:"unit_cost"`
	Supplier       string          `json:"supplier"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	Location       string          `json:"location"`
}

// InventoryReport is the dashboard view of stock
type InventoryReport struct {
	GeneratedAt  time.Time                 `json:"generated_at"`
	HorizonDays  int                       `json:"horizon_days"`
	ItemCount    int                       `json:"item_count"`
	TotalValue   money.Cents               `json:"total_value"`
	LowStock     []inventory.LowStockAlert `json:"low_stock"`
	ExpiringSoon []inventory.ExpiryAlert   `json:"expiring_soon"`
}

// InventoryService manages stock items and their alerts
type InventoryService struct {
	items          InventoryStore
	defaultHorizon int
	now            func() time.Time
	logger         logger.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(items InventoryStore, defaultHorizon int, now func() time.Time, logger logger.Logger) *InventoryService {
	if now == nil {
		now = models.GetCurrentTime
	}

	return &InventoryService{
		items:          items,
		defaultHorizon: defaultHorizon,
		now:            now,
		logger:         logger,
	}
}

// CreateItem stores a new inventory item
func (s *InventoryService) CreateItem(ctx context.Context, in CreateInventoryItemInput) (*models.InventoryItem, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, apperrors.NewInvalidInputError("name is required")
	case in.CurrentStock.IsNegative() || in.MinimumStock.IsNegative():
		return nil, apperrors.NewUnprocessableError("stock levels cannot be negative")
	case in.UnitCost.IsNegative():
		return nil, apperrors.NewUnprocessableError("unit_cost cannot be negative")
	}

	now := s.now().UTC()
	item := &models.InventoryItem{
		ID:             models.GenerateID("inv"),
		Name:           strings.TrimSpace(in.Name),
		Category:       in.Category,
		CurrentStock:   in.CurrentStock,
		MinimumStock:   in.MinimumStock,
		Unit:           in.Unit,
		UnitCost:       in.UnitCost,
		Supplier:       in.Supplier,
		ExpirationDate: in.ExpirationDate,
		Location:       in.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Inventory item created", "itemID", item.ID, "name", item.Name)
	return item, nil
}

// GetItem retrieves an inventory item by ID
func (s *InventoryService) GetItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	return s.items.GetByID(ctx, id)
}

// Report builds low stock and expiry alerts. A horizon of -1 selects the configured default.
func (s *InventoryService) Report(ctx context.Context, horizonDays int) (*InventoryReport, error) {
	if horizonDays == -1 {
		horizonDays = s.defaultHorizon
	}

	items, err := s.items.ListAll(ctx)

	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiring, err := inventory.ExpiringSoonAlerts(items, horizonDays, now)

	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("horizon: %v", err))
	}

	return &InventoryReport{
		GeneratedAt:  now,
		HorizonDays:  horizonDays,
		ItemCount:    len(items),
		TotalValue:   inventory.InventoryValue(items),
		LowStock:     inventory.LowStockAlerts(items),
		ExpiringSoon: expiring,
	}, nil
}
