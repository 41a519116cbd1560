package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/money"
)

// InventoryItem is a stocked ingredient or supply
type InventoryItem struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Category       string          `db:"category" json:"category"`
	CurrentStock   decimal.Decimal `db:"current_stock" json:"current_stock"`
	MinimumStock   decimal.Decimal `db:"minimum_stock" json:"minimum_stock"`
	Unit           string          `db:"unit" json:"unit"`
	UnitCost       money.Cents     `db:"unit_cost" json:"unit_cost"`
	Supplier       string          `db:"supplier" json:"supplier,omitempty"`
	ExpirationDate *time.Time      `db:"expiration_date" json:"expiration_date,omitempty"`
	Location       string          `db:"location" json:"location,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
