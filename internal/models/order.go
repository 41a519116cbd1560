package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vaidashi/catering-api/internal/money"
)

// LineItem is one priced menu item on an order or a quote
type LineItem struct {
	MenuItemID string      `json:"menu_item_id"`
	Quantity   int         `json:"quantity"`
	UnitPrice  money.Cents `json:"unit_price"`
	LineTotal  money.Cents `json:"line_total"`
}

// LineItems is stored as a JSONB column
type LineItems []LineItem

// Value implements driver.Valuer
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *LineItems) Scan(src interface{}) error {
	var data []byte

	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LineItems", src)
	}

	return json.Unmarshal(data, l)
}

// Clone returns a copy that shares no backing array with l
func (l LineItems) Clone() LineItems {
	if l == nil {
		return nil
	}
	out := make(LineItems, len(l))
	copy(out, l)
	return out
}

// Order represents a catering order
type Order struct {
	ID                  string      `db:"id" json:"id"`
	OrderNumber         string      `db:"order_number" json:"order_number"`
	ClientID            string      `db:"client_id" json:"client_id"`
	QuoteID             *string     `db:"quote_id" json:"quote_id,omitempty"`
	Items               LineItems   `db:"items" json:"items"`
	Subtotal            money.Cents `db:"subtotal" json:"subtotal"`
	TaxAmount           money.Cents `db:"tax_amount" json:"tax_amount"`
	DiscountAmount      money.Cents `db:"discount_amount" json:"discount_amount"`
	TotalAmount         money.Cents `db:"total_amount" json:"total_amount"`
	DeliveryDate        time.Time   `db:"delivery_date" json:"delivery_date"`
	DeliveryAddress     string      `db:"delivery_address" json:"delivery_address,omitempty"`
	SpecialInstructions string      `db:"special_instructions" json:"special_instructions,omitempty"`
	Status              Status      `db:"status" json:"status"`
	Version             int64       `db:"version" json:"version"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// NewOrder creates a pending order
func NewOrder(clientID string, deliveryDate time.Time) *Order {
	now := GetCurrentTime()

	return &Order{
		ID:           GenerateID("ord"),
		OrderNumber:  GenerateNumber("ORD", now),
		ClientID:     clientID,
		DeliveryDate: deliveryDate,
		Status:       OrderStatusPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (o Order) Kind() EntityKind { return KindOrder }
func (o Order) GetID() string { return o.ID }
func (o Order) GetStatus() Status { return o.Status }
func (o Order) GetVersion() int64 { return o.Version }

// WithStatus returns a copy of the order in the given status
func (o Order) WithStatus(status Status, at time.Time) Order {
	next := o
	next.Items = o.Items.Clone()
	next.Status = status
	next.UpdatedAt = at
	return next
}
