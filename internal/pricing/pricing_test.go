package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
)

func quoteItems() []models.LineItem {
	return []models.LineItem{
		{MenuItemID: "canapes", Quantity: 20, UnitPrice: money.MustParse("28.99")},
		{MenuItemID: "dessert", Quantity: 20, UnitPrice: money.MustParse("8.99")},
	}
}

func TestComputeTotalsQuebecTaxes(t *testing.T) {
	got, err := ComputeTotals(quoteItems(), DefaultTaxRates(), 0)

	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	// 759.60 * 14.975% = 113.7501
	if got.Subtotal != money.MustParse("759.60") {
		t.Errorf("Subtotal = %s, want 759.60", got.Subtotal)
	}
	if got.TaxAmount != money.MustParse("113.75") {
		t.Errorf("TaxAmount = %s, want 113.75", got.TaxAmount)
	}
	if got.Total != money.MustParse("873.35") {
		t.Errorf("Total = %s, want 873.35", got.Total)
	}
	if got.Items[0].LineTotal != money.MustParse("579.80") || got.Items[1].LineTotal != money.MustParse("179.80") {
		t.Errorf("line totals = %s, %s", got.Items[0].LineTotal, got.Items[1].LineTotal)
	}
}

func TestComputeTotalsDiscounts(t *testing.T) {
	tests := []struct {
		name      string
		discount  money.Cents
		wantTotal money.Cents
		wantErr   error
	}{
		{name: "none", discount: 0, wantTotal: money.MustParse("873.35")},
		{name: "partial", discount: money.MustParse("73.35"), wantTotal: money.MustParse("800.00")},
		{name: "exactlyEverything", discount: money.MustParse("873.35"), wantTotal: 0},
		{name: "oneCentTooMuch", discount: money.MustParse("873.36"), wantErr: ErrDiscountTooLarge},
		{name: "negative", discount: -1, wantErr: ErrNegativeDiscount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(quoteItems(), DefaultTaxRates(), tt.discount)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeTotals() error = %v", err)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %s, want %s", got.Total, tt.wantTotal)
			}
			if got.Total != got.Subtotal+got.TaxAmount-got.Discount {
				t.Errorf("total %s != subtotal %s + tax %s - discount %s", got.Total, got.Subtotal, got.TaxAmount, got.Discount)
			}
		})
	}
}

func TestDiscountExceedsTotalErrorContext(t *testing.T) {
	_, err := ComputeTotals(quoteItems(), DefaultTaxRates(), money.MustParse("1000"))

	var dte *DiscountExceedsTotalError
	if !errors.As(err, &dte) {
		t.Fatalf("error = %T %v, want *DiscountExceedsTotalError", err, err)
	}
	if dte.Subtotal != money.MustParse("759.60") || dte.Tax != money.MustParse("113.75") {
		t.Errorf("context = %+v", dte)
	}
}

func TestComputeTotalsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		items []models.LineItem
		rates TaxRates
		want  error
	}{
		{name: "zeroQuantity", items: []models.LineItem{{MenuItemID: "a", Quantity: 0, UnitPrice: 100}}, rates: DefaultTaxRates(), want: ErrInvalidLineItem},
		{name: "negativePrice", items: []models.LineItem{{MenuItemID: "a", Quantity: 1, UnitPrice: -100}}, rates: DefaultTaxRates(), want: ErrInvalidLineItem},
		{name: "negativeRate", items: quoteItems(), rates: TaxRates{Primary: decimal.NewFromInt(-5)}, want: ErrInvalidTaxRate},
		{name: "lineTotalWouldWrap", items: []models.LineItem{{MenuItemID: "a", Quantity: 4, UnitPrice: 4611686018427387904}}, rates: DefaultTaxRates(), want: ErrInvalidLineItem},
		{name: "lineTotalPastBound", items: []models.LineItem{{MenuItemID: "a", Quantity: 2, UnitPrice: money.MaxAmount}}, rates: DefaultTaxRates(), want: ErrInvalidLineItem},
		{name: "subtotalPastBound", items: []models.LineItem{{MenuItemID: "a", Quantity: 1, UnitPrice: money.MaxAmount}, {MenuItemID: "b", Quantity: 1, UnitPrice: 1}}, rates: DefaultTaxRates(), want: ErrInvalidLineItem},
		{name: "totalWithTaxPastBound", items: []models.LineItem{{MenuItemID: "a", Quantity: 1, UnitPrice: money.MaxAmount}}, rates: DefaultTaxRates(), want: ErrInvalidLineItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ComputeTotals(tt.items, tt.rates, 0); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestComputeTotalsIsStable(t *testing.T) {
	items := quoteItems()
	items[0].LineTotal = 1

	first, err := ComputeTotals(items, DefaultTaxRates(), 500)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	second, err := ComputeTotals(first.Items, DefaultTaxRates(), 500)
	if err != nil {
		t.Fatalf("ComputeTotals() error = %v", err)
	}

	if first.Total != second.Total || first.TaxAmount != second.TaxAmount {
		t.Errorf("recomputing changed totals: %+v vs %+v", first, second)
	}
	if items[0].LineTotal != 1 {
		t.Error("ComputeTotals() modified its input")
	}
}

func TestComputeTotalsEmpty(t *testing.T) {
	got, err := ComputeTotals(nil, DefaultTaxRates(), 0)

	if err != nil {
		t.Fatalf("ComputeTotals(nil) error = %v", err)
	}
	if got.Total != 0 || len(got.Items) != 0 {
		t.Errorf("ComputeTotals(nil) = %+v", got)
	}
}
