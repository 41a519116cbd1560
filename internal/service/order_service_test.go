package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/loyalty"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/pricing"
	"github.com/vaidashi/catering-api/internal/repository"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

type orderFixture struct {
	svc     *OrderService
	tx      *fakeTx
	orders  *fakeOrderStore
	outbox  *fakeOutbox
	loyalty *fakeLoyaltyStore
}

func newOrderFixture(orders []models.Order, accounts ...models.LoyaltyAccount) *orderFixture {
	f := &orderFixture{
		tx:      &fakeTx{},
		orders:  newFakeOrderStore(orders...),
		outbox:  &fakeOutbox{},
		loyalty: newFakeLoyaltyStore(accounts...),
	}
	f.svc = NewOrderService(
		f.tx,
		f.orders,
		f.outbox,
		f.loyalty,
		testEngine(),
		pricing.DefaultTaxRates(),
		loyalty.DefaultProgram(1, 500),
		logger.NewNopLogger(),
	)
	return f
}

func weddingItems() []models.LineItem {
	return []models.LineItem{
		{MenuItemID: "menu-salmon", Quantity: 20, UnitPrice: money.MustParse("28.99")},
		{MenuItemID: "menu-salad", Quantity: 10, UnitPrice: money.MustParse("17.98")},
	}
}

func TestCreateOrderPricesAndQueuesEvent(t *testing.T) {
	f := newOrderFixture(nil)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		ClientID:     "cli-1",
		Items:        weddingItems(),
		DeliveryDate: testNow.Add(72 * time.Hour),
	})

	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.Subtotal != money.MustParse("759.60") || order.TaxAmount != money.MustParse("113.75") || order.TotalAmount != money.MustParse("873.35") {
		t.Errorf("totals = %s/%s/%s, want 759.60/113.75/873.35", order.Subtotal, order.TaxAmount, order.TotalAmount)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("Status = %q, want pending", order.Status)
	}
	if len(f.outbox.messages) != 1 || f.outbox.messages[0].EventType != models.EventEntityCreated {
		t.Fatalf("outbox = %+v, want one created event", f.outbox.messages)
	}
	if _, ok := f.orders.orders[order.ID]; !ok {
		t.Error("order was not stored")
	}
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      CreateOrderInput
		wantErr error
	}{
		{name: "missingClient", in: CreateOrderInput{Items: weddingItems(), DeliveryDate: testNow}, wantErr: apperrors.ErrInvalidInput},
		{name: "noItems", in: CreateOrderInput{ClientID: "cli-1", DeliveryDate: testNow}, wantErr: apperrors.ErrInvalidInput},
		{name: "missingDate", in: CreateOrderInput{ClientID: "cli-1", Items: weddingItems()}, wantErr: apperrors.ErrInvalidInput},
		{name: "negativeDiscount", in: CreateOrderInput{ClientID: "cli-1", Items: weddingItems(), DeliveryDate: testNow, Discount: -1}, wantErr: pricing.ErrNegativeDiscount},
		{name: "discountTooLarge", in: CreateOrderInput{ClientID: "cli-1", Items: weddingItems(), DeliveryDate: testNow, Discount: money.MustParse("900")}, wantErr: pricing.ErrDiscountTooLarge},
		{name: "unknownReward", in: CreateOrderInput{ClientID: "cli-1", Items: weddingItems(), DeliveryDate: testNow, RewardID: "rwd-nope"}, wantErr: loyalty.ErrRewardNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(nil)

			_, err := f.svc.CreateOrder(context.Background(), tt.in)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateOrder() error = %v, want %v", err, tt.wantErr)
			}
			if len(f.outbox.messages) != 0 || len(f.orders.orders) != 0 {
				t.Error("rejected order left state behind")
			}
		})
	}
}

func TestCreateOrderRedeemsReward(t *testing.T) {
	f := newOrderFixture(nil, models.LoyaltyAccount{ClientID: "cli-1", PointsBalance: 600, TotalPointsEarned: 600})

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		ClientID:     "cli-1",
		Items:        weddingItems(),
		DeliveryDate: testNow,
		RewardID:     "rwd-10pct",
	})

	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.DiscountAmount != money.MustParse("75.96") {
		t.Errorf("DiscountAmount = %s, want 75.96", order.DiscountAmount)
	}
	if order.TotalAmount != money.MustParse("797.39") {
		t.Errorf("TotalAmount = %s, want 797.39", order.TotalAmount)
	}

	account := f.loyalty.accounts["cli-1"]
	if account.PointsBalance != 100 || account.TotalPointsRedeemed != 500 {
		t.Errorf("account = %+v, want balance 100 and 500 redeemed", account)
	}
}

func TestCreateOrderRewardNeedsPoints(t *testing.T) {
	f := newOrderFixture(nil, models.LoyaltyAccount{ClientID: "cli-1", PointsBalance: 700})

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		ClientID:     "cli-1",
		Items:        weddingItems(),
		DeliveryDate: testNow,
		RewardID:     "rwd-free-dish",
	})

	if !errors.Is(err, loyalty.ErrInsufficientPoints) {
		t.Fatalf("CreateOrder() error = %v, want ErrInsufficientPoints", err)
	}
}

func pendingOrder(id string, status models.Status) models.Order {
	return models.Order{
		ID:          id,
		ClientID:    "cli-1",
		Status:      status,
		Version:     3,
		TotalAmount: money.MustParse("873.35"),
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newOrderFixture([]models.Order{pendingOrder("ord-1", models.OrderStatusPending)})

	updated, err := f.svc.UpdateOrderStatus(context.Background(), "ord-1", models.OrderStatusConfirmed, "staff")

	if err != nil {
		t.Fatalf("UpdateOrderStatus() error = %v", err)
	}
	if updated.Status != models.OrderStatusConfirmed || updated.Version != 4 {
		t.Errorf("updated = %s v%d, want confirmed v4", updated.Status, updated.Version)
	}
	if !updated.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, testNow)
	}
	if len(f.outbox.messages) != 1 || f.outbox.messages[0].EventType != models.EventEntityTransitioned {
		t.Fatalf("outbox = %+v, want one transition event", f.outbox.messages)
	}
	if len(f.loyalty.accounts) != 0 {
		t.Error("non-delivery transition touched loyalty accounts")
	}
}

func TestUpdateOrderStatusDeliveredCreditsPoints(t *testing.T) {
	f := newOrderFixture([]models.Order{pendingOrder("ord-1", models.OrderStatusReady)})

	if _, err := f.svc.UpdateOrderStatus(context.Background(), "ord-1", models.OrderStatusDelivered, "manager"); err != nil {
		t.Fatalf("UpdateOrderStatus() error = %v", err)
	}

	account, ok := f.loyalty.accounts["cli-1"]
	if !ok {
		t.Fatal("delivery did not open a loyalty account")
	}
	if account.PointsBalance != 873 || account.TotalPointsEarned != 873 {
		t.Errorf("account = %+v, want 873 points", account)
	}
}

func TestUpdateOrderStatusRejections(t *testing.T) {
	tests := []struct {
		name    string
		status  models.Status
		target  models.Status
		role    string
		wantErr error
	}{
		{name: "clientRole", status: models.OrderStatusPending, target: models.OrderStatusConfirmed, role: "client", wantErr: lifecycle.ErrUnauthorized},
		{name: "skipsStep", status: models.OrderStatusPending, target: models.OrderStatusReady, role: "admin", wantErr: lifecycle.ErrInvalidTransition},
		{name: "terminal", status: models.OrderStatusDelivered, target: models.OrderStatusCancelled, role: "admin", wantErr: lifecycle.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture([]models.Order{pendingOrder("ord-1", tt.status)})

			_, err := f.svc.UpdateOrderStatus(context.Background(), "ord-1", tt.target, tt.role)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UpdateOrderStatus() error = %v, want %v", err, tt.wantErr)
			}
			if f.tx.calls != 0 || len(f.outbox.messages) != 0 {
				t.Error("rejected transition opened a transaction")
			}
			if f.orders.orders["ord-1"].Status != tt.status {
				t.Error("rejected transition changed the stored order")
			}
		})
	}
}

type racingOrderStore struct {
	*fakeOrderStore
}

// GetByID hands out a stale version, as if another writer committed in between
func (r racingOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	o, err := r.fakeOrderStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Version--
	return o, nil
}

func TestUpdateOrderStatusConflict(t *testing.T) {
	f := newOrderFixture([]models.Order{pendingOrder("ord-1", models.OrderStatusPending)})
	f.svc.orders = racingOrderStore{f.orders}

	_, err := f.svc.UpdateOrderStatus(context.Background(), "ord-1", models.OrderStatusConfirmed, "staff")

	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("UpdateOrderStatus() error = %v, want ErrConflict", err)
	}
	if len(f.outbox.messages) != 0 {
		t.Error("conflicting update queued an event")
	}
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	f := newOrderFixture(nil)

	_, err := f.svc.UpdateOrderStatus(context.Background(), "ord-x", models.OrderStatusConfirmed, "staff")

	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdateOrderStatus() error = %v, want ErrNotFound", err)
	}
}

func TestCountOrdersByStatusFillsZeroes(t *testing.T) {
	f := newOrderFixture([]models.Order{
		pendingOrder("ord-1", models.OrderStatusPending),
		pendingOrder("ord-2", models.OrderStatusPending),
		pendingOrder("ord-3", models.OrderStatusDelivered),
	})

	counts, err := f.svc.CountOrdersByStatus(context.Background())

	if err != nil {
		t.Fatalf("CountOrdersByStatus() error = %v", err)
	}
	if counts[models.OrderStatusPending] != 2 || counts[models.OrderStatusDelivered] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if n, ok := counts[models.OrderStatusCancelled]; !ok || n != 0 {
		t.Errorf("cancelled count = %d, %v, want explicit zero", n, ok)
	}
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture(nil)

	_, err := f.svc.ListOrders(context.Background(), repository.OrderFilter{Status: "shipped"})

	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("ListOrders() error = %v, want ErrInvalidInput", err)
	}
}
