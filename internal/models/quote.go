package models

import (
	"time"

	"github.com/vaidashi/catering-api/internal/money"
)

// Quote represents a priced catering proposal sent to a client
type Quote struct {
	ID             string      `db:"id" json:"id"`
	QuoteNumber    string      `db:"quote_number" json:"quote_number"`
	ClientID       string      `db:"client_id" json:"client_id"`
	Items          LineItems   `db:"items" json:"items"`
	Subtotal       money.Cents `db:"subtotal" json:"subtotal"`
	TaxAmount      money.Cents `db:"tax_amount" json:"tax_amount"`
	DiscountAmount money.Cents `db:"discount_amount" json:"discount_amount"`
	TotalAmount    money.Cents `db:"total_amount" json:"total_amount"`
	ValidUntil     time.Time   `db:"valid_until" json:"valid_until"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	Status         Status      `db:"status" json:"status"`
	Version        int64       `db:"version" json:"version"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// NewQuote creates a draft quote
func NewQuote(clientID string, validUntil time.Time) *Quote {
	now := GetCurrentTime()

	return &Quote{
		ID:          GenerateID("quo"),
		QuoteNumber: GenerateNumber("QUO", now),
		ClientID:    clientID,
		ValidUntil:  validUntil,
		Status:      QuoteStatusDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (q Quote) Kind() EntityKind { return KindQuote }
func (q Quote) GetID() string { return q.ID }
func (q Quote) GetStatus() Status { return q.Status }
func (q Quote) GetVersion() int64 { return q.Version }

// WithStatus returns a copy of the quote in the given status
func (q Quote) WithStatus(status Status, at time.Time) Quote {
	next := q
	next.Items = q.Items.Clone()
	next.Status = status
	next.UpdatedAt = at
	return next
}

// Lapsed reports whether the validity date is behind at
func (q Quote) Lapsed(at time.Time) bool {
	return at.After(q.ValidUntil)
}
