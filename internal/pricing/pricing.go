// Package pricing computes order and quote totals in integer cents.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
)

var (
	ErrInvalidLineItem  = errors.New("invalid line item")
	ErrNegativeDiscount = errors.New("discount amount is negative")
	ErrDiscountTooLarge = errors.New("discount exceeds subtotal plus tax")
	ErrInvalidTaxRate   = errors.New("invalid tax rate")
)

// NegativeDiscountError is returned when the discount is below zero
type NegativeDiscountError struct {
	Discount money.Cents
}

func (e *NegativeDiscountError) Error() string {
	return fmt.Sprintf("discount %s is negative", e.Discount)
}

func (e *NegativeDiscountError) Is(target error) bool {
	return target == ErrNegativeDiscount
}

// DiscountExceedsTotalError is returned when the discount would push the total below zero
type DiscountExceedsTotalError struct {
	Discount money.Cents
	Subtotal money.Cents
	Tax      money.Cents
}

func (e *DiscountExceedsTotalError) Error() string {
	return fmt.Sprintf("discount %s exceeds subtotal %s plus tax %s", e.Discount, e.Subtotal, e.Tax)
}

func (e *DiscountExceedsTotalError) Is(target error) bool {
	return target == ErrDiscountTooLarge
}

// TaxRates are the two percentage rates applied to the subtotal, e.g. 5.0 and 9.975
type TaxRates struct {
	Primary   decimal.Decimal `json:"primary"`
	Secondary decimal.Decimal `json:"secondary"`
}

// DefaultTaxRates returns the TPS/TVQ pair
func DefaultTaxRates() TaxRates {
	return TaxRates{
		Primary:   decimal.RequireFromString("5.0"),
		Secondary: decimal.RequireFromString("9.975"),
	}
}

// Combined returns the summed percentage
func (r TaxRates) Combined() decimal.Decimal {
	return r.Primary.Add(r.Secondary)
}

// Validate rejects negative rates
func (r TaxRates) Validate() error {
	if r.Primary.IsNegative() || r.Secondary.IsNegative() {
		return fmt.Errorf("%w: %s, %s", ErrInvalidTaxRate, r.Primary, r.Secondary)
	}
	return nil
}

// Totals is the outcome of ComputeTotals
type Totals struct {
	Items     models.LineItems `json:"items"`
	Subtotal  money.Cents      `json:"subtotal"`
	TaxAmount money.Cents      `json:"tax_amount"`
	Discount  money.Cents      `json:"discount_amount"`
	Total     money.Cents      `json:"total"`
}

// ComputeTotals prices line items.
//
// Line totals are quantity times unit price. Tax is the combined rate applied once to
// the subtotal and rounded to the cent. The input slice is not modified; the returned
// items carry the recomputed line totals.
func ComputeTotals(items []models.LineItem, rates TaxRates, discount money.Cents) (Totals, error) {
	if err := rates.Validate(); err != nil {
		return Totals{}, err
	}
	if discount.IsNegative() {
		return Totals{}, &NegativeDiscountError{Discount: discount}
	}

	priced := make(models.LineItems, len(items))
	var subtotal money.Cents

	for i, item := range items {
		if item.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: item %d (%s) quantity %d", ErrInvalidLineItem, i, item.MenuItemID, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: item %d (%s) unit price %s", ErrInvalidLineItem, i, item.MenuItemID, item.UnitPrice)
		}

		lineTotal, err := item.UnitPrice.CheckedTimes(item.Quantity)

		if err != nil {
			return Totals{}, fmt.Errorf("%w: item %d (%s): %v", ErrInvalidLineItem, i, item.MenuItemID, err)
		}

		if subtotal, err = money.CheckedAdd(subtotal, lineTotal); err != nil {
			return Totals{}, fmt.Errorf("%w: subtotal: %v", ErrInvalidLineItem, err)
		}

		priced[i] = item
		priced[i].LineTotal = lineTotal
	}

	tax := subtotal.Percent(rates.Combined())

	if _, err := money.CheckedAdd(subtotal, tax); err != nil {
		return Totals{}, fmt.Errorf("%w: total: %v", ErrInvalidLineItem, err)
	}

	if discount > subtotal+tax {
		return Totals{}, &DiscountExceedsTotalError{Discount: discount, Subtotal: subtotal, Tax: tax}
	}

	return Totals{
		Items:     priced,
		Subtotal:  subtotal,
		TaxAmount: tax,
		Discount:  discount,
		Total:     subtotal + tax - discount,
	}, nil
}

// Apply copies the computed amounts onto an order
func (t Totals) Apply(o *models.Order) {
	o.Items = t.Items.Clone()
	o.Subtotal = t.Subtotal
	o.TaxAmount = t.TaxAmount
	o.DiscountAmount = t.Discount
	o.TotalAmount = t.Total
}

// ApplyQuote copies the computed amounts onto a quote
func (t Totals) ApplyQuote(q *models.Quote) {
	q.Items = t.Items.Clone()
	q.Subtotal = t.Subtotal
	q.TaxAmount = t.TaxAmount
	q.DiscountAmount = t.Discount
	q.TotalAmount = t.Total
}
