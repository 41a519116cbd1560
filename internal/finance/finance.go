// Package finance aggregates ledger transactions for the dashboard.
package finance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
)

var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidPeriod      = errors.New("invalid period")
)

// Period is a closed interval of calendar days in UTC.
// A zero bound leaves that side open.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewPeriod normalizes both bounds to their day and rejects reversed intervals
func NewPeriod(from, to time.Time) (Period, error) {
	p := Period{From: day(from), To: day(to)}

	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return Period{}, fmt.Errorf("%w: %s is before %s", ErrInvalidPeriod, p.To.Format("2006-01-02"), p.From.Format("2006-01-02"))
	}

	return p, nil
}

// ParsePeriod reads YYYY-MM-DD bounds; empty strings leave a side open
func ParsePeriod(from, to string) (Period, error) {
	var f, t time.Time
	var err error

	if from != "" {
		if f, err = time.Parse("2006-01-02", from); err != nil {
			return Period{}, fmt.Errorf("%w: from %q", ErrInvalidPeriod, from)
		}
	}
	if to != "" {
		if t, err = time.Parse("2006-01-02", to); err != nil {
			return Period{}, fmt.Errorf("%w: to %q", ErrInvalidPeriod, to)
		}
	}

	return NewPeriod(f, t)
}

// Contains reports whether the day of at lies inside the period, bounds included
func (p Period) Contains(at time.Time) bool {
	d := day(at)

	if !p.From.IsZero() && d.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && d.After(p.To) {
		return false
	}

	return true
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CategoryTotal is the income and expense booked under one category
type CategoryTotal struct {
	Category string      `json:"category"`
	Income   money.Cents `json:"income"`
	Expense  money.Cents `json:"expense"`
}

// Summary is the dashboard view of a period
type Summary struct {
	Period              Period          `json:"period"`
	TotalIncome         money.Cents     `json:"total_income"`
	TotalExpense        money.Cents     `json:"total_expense"`
	NetProfit           money.Cents     `json:"net_profit"`
	ProfitMarginPercent decimal.Decimal `json:"profit_margin_percent"`
	TransactionCount    int             `json:"transaction_count"`
	ByCategory          []CategoryTotal `json:"by_category"`
}

// ValidateTransaction checks a ledger entry before it is recorded
func ValidateTransaction(t *models.Transaction) error {
	switch {
	case t.Type != models.TransactionIncome && t.Type != models.TransactionExpense:
		return fmt.Errorf("%w: type %q", ErrInvalidTransaction, t.Type)
	case t.Amount <= 0:
		return fmt.Errorf("%w: amount %s must be positive", ErrInvalidTransaction, t.Amount)
	case strings.TrimSpace(t.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidTransaction)
	case t.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidTransaction)
	}

	return nil
}

var hundred = decimal.NewFromInt(100)

// Aggregate sums the transactions dated inside period.
// The margin is net profit over income as a percentage with two decimals, and 0 when
// there is no income.
func Aggregate(transactions []models.Transaction, period Period) Summary {
	s := Summary{Period: period, ProfitMarginPercent: decimal.Zero}
	byCategory := make(map[string]*CategoryTotal)

	for _, t := range transactions {
		if !period.Contains(t.Date) {
			continue
		}

		if t.Type != models.TransactionIncome && t.Type != models.TransactionExpense {
			continue
		}

		ct, ok := byCategory[t.Category]
		if !ok {
			ct = &CategoryTotal{Category: t.Category}
			byCategory[t.Category] = ct
		}

		if t.Type == models.TransactionIncome {
			s.TotalIncome += t.Amount
			ct.Income += t.Amount
		} else {
			s.TotalExpense += t.Amount
			ct.Expense += t.Amount
		}
		s.TransactionCount++
	}

	s.NetProfit = s.TotalIncome - s.TotalExpense

	if s.TotalIncome > 0 {
		s.ProfitMarginPercent = s.NetProfit.Decimal().Div(s.TotalIncome.Decimal()).Mul(hundred).Round(2)
	}

	s.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		s.ByCategory = append(s.ByCategory, *ct)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})

	return s
}
