// Package inventory derives stock alerts and valuations from inventory snapshots.
package inventory

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
)

// ErrNegativeHorizon is returned for a lookahead window below zero days
var ErrNegativeHorizon = errors.New("expiry horizon must not be negative")

// LowStockAlert flags an item at or below its minimum stock
type LowStockAlert struct {
	Item      models.InventoryItem `json:"item"`
	Ratio     decimal.Decimal      `json:"ratio"`
	Shortfall decimal.Decimal      `json:"shortfall"`
}

// ExpiryAlert flags an item whose expiration date falls inside the horizon
type ExpiryAlert struct {
	Item      models.InventoryItem `json:"item"`
	DaysUntil int                  `json:"days_until"`
	Expired   bool                 `json:"expired"`
}

// LowStockAlerts returns the items with current stock at or below minimum, most
// depleted first. An item without a positive minimum sorts with ratio 0.
func LowStockAlerts(items []models.InventoryItem) []LowStockAlert {
	alerts := make([]LowStockAlert, 0)

	for _, item := range items {
		if item.CurrentStock.GreaterThan(item.MinimumStock) {
			continue
		}

		ratio := decimal.Zero
		if item.MinimumStock.IsPositive() {
			ratio = item.CurrentStock.Div(item.MinimumStock)
		}

		alerts = append(alerts, LowStockAlert{
			Item:      item,
			Ratio:     ratio,
			Shortfall: item.MinimumStock.Sub(item.CurrentStock),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if c := alerts[i].Ratio.Cmp(alerts[j].Ratio); c != 0 {
			return c < 0
		}
		return lessByName(alerts[i].Item, alerts[j].Item)
	})

	return alerts
}

// DaysUntil counts whole days from now to the expiration date, rounding partial days up.
// Dates in the past give zero or a negative count.
func DaysUntil(expiration, now time.Time) int {
	return int(math.Ceil(expiration.Sub(now).Hours() / 24))
}

// ExpiringSoonAlerts returns the items expiring within horizonDays of now, soonest first.
// Already expired items are included and flagged.
func ExpiringSoonAlerts(items []models.InventoryItem, horizonDays int, now time.Time) ([]ExpiryAlert, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeHorizon, horizonDays)
	}

	alerts := make([]ExpiryAlert, 0)

	for _, item := range items {
		if item.ExpirationDate == nil {
			continue
		}

		days := DaysUntil(*item.ExpirationDate, now)
		if days > horizonDays {
			continue
		}

		alerts = append(alerts, ExpiryAlert{
			Item:      item,
			DaysUntil: days,
			Expired:   !item.ExpirationDate.After(now),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].DaysUntil != alerts[j].DaysUntil {
			return alerts[i].DaysUntil < alerts[j].DaysUntil
		}
		return lessByName(alerts[i].Item, alerts[j].Item)
	})

	return alerts, nil
}

// InventoryValue is the stock on hand valued at unit cost, rounded once to the cent
func InventoryValue(items []models.InventoryItem) money.Cents {
	total := decimal.Zero

	for _, item := range items {
		total = total.Add(item.CurrentStock.Mul(item.UnitCost.Decimal()))
	}

	return money.FromDecimal(total)
}

func lessByName(a, b models.InventoryItem) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
