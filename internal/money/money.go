// Package money holds currency amounts as integer minor units (cents).
//
// Arithmetic between amounts stays in int64. Conversions from decimal inputs such as
// tax products or form values go through shopspring/decimal and are rounded half away
// from zero to the cent, which is half-up for the non-negative amounts this system
// handles.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount of money in minor units
type Cents int64

// Zero is the zero amount
const Zero Cents = 0

// MaxAmount is the largest magnitude a NUMERIC(12, 2) column stores
const MaxAmount Cents = 999_999_999_999

// ErrOutOfRange is returned for amounts beyond MaxAmount
var ErrOutOfRange = errors.New("amount out of range")

var (
	hundred    = decimal.NewFromInt(100)
	maxDecimal = MaxAmount.Decimal()
)

// FromDecimal rounds d to the nearest cent
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Round(2).Shift(2).IntPart())
}

// fromDecimalChecked is FromDecimal for untrusted input
func fromDecimalChecked(d decimal.Decimal) (Cents, error) {
	if d.Round(2).Abs().GreaterThan(maxDecimal) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d)
	}

	return FromDecimal(d), nil
}

// Parse reads a decimal string such as "28.99"
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)

	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return fromDecimalChecked(d)
}

// MustParse is Parse for literals known to be valid
func MustParse(s string) Cents {
	c, err := Parse(s)

	if err != nil {
		panic(err)
	}

	return c
}

// Decimal returns the amount in major units
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// InRange reports whether the amount fits a NUMERIC(12, 2) column
func (c Cents) InRange() bool {
	return c >= -MaxAmount && c <= MaxAmount
}

// CheckedTimes multiplies the amount by a quantity and fails instead of leaving the storable range
func (c Cents) CheckedTimes(qty int) (Cents, error) {
	if !c.InRange() {
		return 0, fmt.Errorf("%w: %d cents", ErrOutOfRange, int64(c))
	}
	if c == 0 || qty == 0 {
		return 0, nil
	}

	abs, q := c, Cents(qty)
	if abs < 0 {
		abs = -abs
	}
	if q < 0 {
		q = -q
	}
	if q < 0 || q > MaxAmount/abs {
		return 0, fmt.Errorf("%w: %s x %d", ErrOutOfRange, c, qty)
	}

	return c * Cents(qty), nil
}

// CheckedAdd sums amounts and fails once the running total leaves the storable range
func CheckedAdd(amounts ...Cents) (Cents, error) {
	var total Cents

	for _, a := range amounts {
		if !a.InRange() {
			return 0, fmt.Errorf("%w: %d cents", ErrOutOfRange, int64(a))
		}

		total += a
		if !total.InRange() {
			return 0, fmt.Errorf("%w: running total %d cents", ErrOutOfRange, int64(total))
		}
	}

	return total, nil
}

// Percent returns rate percent of the amount, rounded to the cent
func (c Cents) Percent(rate decimal.Decimal) Cents {
	return FromDecimal(c.Decimal().Mul(rate).Div(hundred))
}

// IsNegative reports whether the amount is below zero
func (c Cents) IsNegative() bool {
	return c < 0
}

// String formats the amount with two decimals
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a decimal string
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both "12.50" and 12.50
func (c *Cents) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal

	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	v, err := fromDecimalChecked(d)

	if err != nil {
		return err
	}

	*c = v
	return nil
}

// Value implements driver.Valuer for NUMERIC columns
func (c Cents) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns
func (c *Cents) Scan(src interface{}) error {
	var d decimal.Decimal

	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}

	v, err := fromDecimalChecked(d)

	if err != nil {
		return err
	}

	*c = v
	return nil
}
