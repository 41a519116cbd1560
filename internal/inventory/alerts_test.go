package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func item(id, name, current, minimum string) models.InventoryItem {
	return models.InventoryItem{
		ID:           id,
		Name:         name,
		CurrentStock: decimal.RequireFromString(current),
		MinimumStock: decimal.RequireFromString(minimum),
	}
}

func expiring(id, name string, at time.Time) models.InventoryItem {
	it := item(id, name, "1", "0")
	it.ExpirationDate = &at
	return it
}

func TestLowStockAlerts(t *testing.T) {
	items := []models.InventoryItem{
		item("1", "flour", "10", "5"),
		item("2", "butter", "2", "4"),
		item("3", "cream", "1", "10"),
		item("4", "eggs", "6", "6"),
		item("5", "napkins", "0", "0"),
		item("6", "basil", "1", "10"),
	}

	got := LowStockAlerts(items)

	wantOrder := []string{"5", "6", "3", "2", "4"}
	if len(got) != len(wantOrder) {
		t.Fatalf("LowStockAlerts() returned %d alerts, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].Item.ID != id {
			t.Errorf("alert %d = %s (%s), want %s", i, got[i].Item.ID, got[i].Item.Name, id)
		}
	}
	if !got[3].Shortfall.Equal(decimal.NewFromInt(2)) {
		t.Errorf("butter shortfall = %s, want 2", got[3].Shortfall)
	}
	if !got[3].Ratio.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("butter ratio = %s, want 0.5", got[3].Ratio)
	}
}

func TestLowStockAlertsNone(t *testing.T) {
	got := LowStockAlerts([]models.InventoryItem{item("1", "flour", "10", "5")})

	if got == nil || len(got) != 0 {
		t.Errorf("LowStockAlerts() = %v, want empty non-nil slice", got)
	}
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		name string
		exp  time.Time
		want int
	}{
		{name: "laterToday", exp: now.Add(3 * time.Hour), want: 1},
		{name: "exactlyTwoDays", exp: now.Add(48 * time.Hour), want: 2},
		{name: "justPastTwoDays", exp: now.Add(48*time.Hour + time.Minute), want: 3},
		{name: "now", exp: now, want: 0},
		{name: "yesterday", exp: now.Add(-24 * time.Hour), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.exp, now); got != tt.want {
				t.Errorf("DaysUntil() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExpiringSoonAlerts(t *testing.T) {
	noDate := item("0", "salt", "5", "1")
	items := []models.InventoryItem{
		expiring("1", "milk", now.AddDate(0, 0, 3)),
		expiring("2", "fish", now.Add(-2*time.Hour)),
		expiring("3", "cheese", now.AddDate(0, 0, 30)),
		expiring("4", "berries", now.AddDate(0, 0, 7)),
		noDate,
	}

	got, err := ExpiringSoonAlerts(items, 7, now)

	if err != nil {
		t.Fatalf("ExpiringSoonAlerts() error = %v", err)
	}

	wantOrder := []string{"2", "1", "4"}
	if len(got) != len(wantOrder) {
		t.Fatalf("ExpiringSoonAlerts() returned %d alerts, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].Item.ID != id {
			t.Errorf("alert %d = %s, want %s", i, got[i].Item.ID, id)
		}
	}
	if !got[0].Expired || got[1].Expired {
		t.Errorf("Expired flags = %v, %v, want true, false", got[0].Expired, got[1].Expired)
	}

	if _, err := ExpiringSoonAlerts(items, -1, now); !errors.Is(err, ErrNegativeHorizon) {
		t.Errorf("negative horizon error = %v, want ErrNegativeHorizon", err)
	}
}

func TestInventoryValue(t *testing.T) {
	a := item("1", "flour", "12.5", "0")
	a.UnitCost = money.MustParse("2.40")
	b := item("2", "oil", "0.333", "0")
	b.UnitCost = money.MustParse("9.99")

	// 30.00 + 3.32667
	if got := InventoryValue([]models.InventoryItem{a, b}); got != money.MustParse("33.33") {
		t.Errorf("InventoryValue() = %s, want 33.33", got)
	}
}
