package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/pricing"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

type quoteFixture struct {
	svc    *QuoteService
	quotes *fakeQuoteStore
	orders *fakeOrderStore
	outbox *fakeOutbox
}

func newQuoteFixture(quotes ...models.Quote) *quoteFixture {
	f := &quoteFixture{
		quotes: newFakeQuoteStore(quotes...),
		orders: newFakeOrderStore(),
		outbox: &fakeOutbox{},
	}
	f.svc = NewQuoteService(&fakeTx{}, f.quotes, f.orders, f.outbox, testEngine(), pricing.DefaultTaxRates(), logger.NewNopLogger())
	return f
}

func acceptedQuote() models.Quote {
	return models.Quote{
		ID:          "quo-1",
		ClientID:    "cli-9",
		Items:       models.LineItems{{MenuItemID: "menu-salmon", Quantity: 20, UnitPrice: 2899, LineTotal: 57980}},
		Subtotal:    57980,
		TaxAmount:   8682,
		TotalAmount: 66662,
		ValidUntil:  testNow.Add(24 * time.Hour),
		Status:      models.QuoteStatusAccepted,
		Version:     2,
	}
}

func TestCreateQuoteDefaultsValidity(t *testing.T) {
	f := newQuoteFixture()

	quote, err := f.svc.CreateQuote(context.Background(), CreateQuoteInput{ClientID: "cli-1", Items: weddingItems()})

	if err != nil {
		t.Fatalf("CreateQuote() error = %v", err)
	}
	if quote.Status != models.QuoteStatusDraft {
		t.Errorf("Status = %q, want draft", quote.Status)
	}
	if want := testNow.Add(DefaultQuoteValidity); !quote.ValidUntil.Equal(want) {
		t.Errorf("ValidUntil = %v, want %v", quote.ValidUntil, want)
	}
	if quote.TotalAmount != money.MustParse("873.35") {
		t.Errorf("TotalAmount = %s, want 873.35", quote.TotalAmount)
	}
	if len(f.outbox.messages) != 1 {
		t.Errorf("outbox messages = %d, want 1", len(f.outbox.messages))
	}
}

func TestConvertQuote(t *testing.T) {
	f := newQuoteFixture(acceptedQuote())
	delivery := testNow.Add(7 * 24 * time.Hour)

	order, err := f.svc.ConvertQuote(context.Background(), "quo-1", delivery, "staff")

	if err != nil {
		t.Fatalf("ConvertQuote() error = %v", err)
	}
	if order.QuoteID == nil || *order.QuoteID != "quo-1" {
		t.Errorf("QuoteID = %v, want quo-1", order.QuoteID)
	}
	if order.Status != models.OrderStatusPending || order.TotalAmount != 66662 || order.ClientID != "cli-9" {
		t.Errorf("order = %+v", order)
	}
	if _, ok := f.orders.orders[order.ID]; !ok {
		t.Error("converted order was not stored")
	}

	stored := f.quotes.quotes["quo-1"]
	if stored.Status != models.QuoteStatusAccepted || stored.Version != 2 {
		t.Errorf("quote changed by conversion: %s v%d", stored.Status, stored.Version)
	}
}

func TestConvertQuoteTwiceReturnsFirstOrder(t *testing.T) {
	f := newQuoteFixture(acceptedQuote())
	delivery := testNow.Add(7 * 24 * time.Hour)

	first, err := f.svc.ConvertQuote(context.Background(), "quo-1", delivery, "staff")
	if err != nil {
		t.Fatalf("first ConvertQuote() error = %v", err)
	}

	second, err := f.svc.ConvertQuote(context.Background(), "quo-1", delivery, "staff")
	if err != nil {
		t.Fatalf("second ConvertQuote() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second conversion returned order %s, want %s", second.ID, first.ID)
	}
	if len(f.orders.orders) != 1 {
		t.Errorf("stored orders = %d, want 1", len(f.orders.orders))
	}
	if len(f.outbox.messages) != 1 {
		t.Errorf("outbox messages = %d, want 1", len(f.outbox.messages))
	}
}

func TestConvertQuoteRejections(t *testing.T) {
	draft := acceptedQuote()
	draft.Status = models.QuoteStatusDraft

	tests := []struct {
		name    string
		quote   models.Quote
		role    string
		date    time.Time
		wantErr error
	}{
		{name: "notAccepted", quote: draft, role: "admin", date: testNow, wantErr: lifecycle.ErrInvalidTransition},
		{name: "clientRole", quote: acceptedQuote(), role: "client", date: testNow, wantErr: lifecycle.ErrUnauthorized},
		{name: "noDeliveryDate", quote: acceptedQuote(), role: "admin", wantErr: apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(tt.quote)

			_, err := f.svc.ConvertQuote(context.Background(), tt.quote.ID, tt.date, tt.role)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ConvertQuote() error = %v, want %v", err, tt.wantErr)
			}
			if len(f.orders.orders) != 0 {
				t.Error("rejected conversion stored an order")
			}
		})
	}
}

func TestUpdateQuoteStatusExpiryGuard(t *testing.T) {
	sent := acceptedQuote()
	sent.Status = models.QuoteStatusSent

	f := newQuoteFixture(sent)

	_, err := f.svc.UpdateQuoteStatus(context.Background(), sent.ID, models.QuoteStatusExpired, "manager")

	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expiring a valid quote: error = %v, want ErrInvalidTransition", err)
	}

	lapsed := sent
	lapsed.ValidUntil = testNow.Add(-time.Hour)
	f = newQuoteFixture(lapsed)

	updated, err := f.svc.UpdateQuoteStatus(context.Background(), lapsed.ID, models.QuoteStatusExpired, "manager")

	if err != nil {
		t.Fatalf("expiring a lapsed quote: error = %v", err)
	}
	if updated.Status != models.QuoteStatusExpired || len(f.outbox.messages) != 1 {
		t.Errorf("updated = %s, outbox = %d", updated.Status, len(f.outbox.messages))
	}
}

func TestUpdateQuoteStatusStaffForbidden(t *testing.T) {
	draft := acceptedQuote()
	draft.Status = models.QuoteStatusDraft
	f := newQuoteFixture(draft)

	_, err := f.svc.UpdateQuoteStatus(context.Background(), draft.ID, models.QuoteStatusSent, "staff")

	if !errors.Is(err, lifecycle.ErrUnauthorized) {
		t.Fatalf("UpdateQuoteStatus() error = %v, want ErrUnauthorized", err)
	}
}
