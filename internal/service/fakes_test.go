package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/authz"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/repository"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func testEngine() *lifecycle.Engine {
	return lifecycle.NewEngine(authz.DefaultPolicy(), lifecycle.WithClock(func() time.Time { return testNow }))
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeOutbox struct {
	messages []*models.OutboxMessage
	err      error
}

func (f *fakeOutbox) CreateInTx(ctx context.Context, tx *sqlx.Tx, message *models.OutboxMessage) error {
	if f.err != nil {
		return f.err
	}
	message.ID = int64(len(f.messages) + 1)
	f.messages = append(f.messages, message)
	return nil
}

type fakeOrderStore struct {
	orders map[string]models.Order
}

func newFakeOrderStore(orders ...models.Order) *fakeOrderStore {
	f := &fakeOrderStore{orders: make(map[string]models.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrderStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	if _, ok := f.orders[order.ID]; ok {
		return repository.ErrDuplicate
	}
	if order.QuoteID != nil {
		if _, err := f.GetByQuoteID(ctx, *order.QuoteID); err == nil {
			return repository.ErrDuplicate
		}
	}
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderStore) GetByQuoteID(ctx context.Context, quoteID string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.QuoteID != nil && *o.QuoteID == quoteID {
			o := o
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrderStore) List(ctx context.Context, filter repository.OrderFilter) ([]*models.Order, error) {
	out := []*models.Order{}
	for _, o := range f.orders {
		o := o
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, &o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	counts := make(map[models.Status]int)
	for _, o := range f.orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (f *fakeOrderStore) UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order, expectedVersion int64) error {
	stored, ok := f.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: version %d", repository.ErrConflict, expectedVersion)
	}
	order.Version = expectedVersion + 1
	f.orders[order.ID] = *order
	return nil
}

type fakeQuoteStore struct {
	quotes map[string]models.Quote
}

func newFakeQuoteStore(quotes ...models.Quote) *fakeQuoteStore {
	f := &fakeQuoteStore{quotes: make(map[string]models.Quote)}
	for _, q := range quotes {
		f.quotes[q.ID] = q
	}
	return f
}

func (f *fakeQuoteStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, quote *models.Quote) error {
	f.quotes[quote.ID] = *quote
	return nil
}

func (f *fakeQuoteStore) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (f *fakeQuoteStore) List(ctx context.Context, status models.Status, opts repository.ListOptions) ([]*models.Quote, error) {
	out := []*models.Quote{}
	for _, q := range f.quotes {
		q := q
		if status == "" || q.Status == status {
			out = append(out, &q)
		}
	}
	return out, nil
}

func (f *fakeQuoteStore) UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, quote *models.Quote, expectedVersion int64) error {
	stored, ok := f.quotes[quote.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrConflict
	}
	quote.Version = expectedVersion + 1
	f.quotes[quote.ID] = *quote
	return nil
}

type fakeReservationStore struct {
	reservations map[string]models.Reservation
}

func newFakeReservationStore(rs ...models.Reservation) *fakeReservationStore {
	f := &fakeReservationStore{reservations: make(map[string]models.Reservation)}
	for _, r := range rs {
		f.reservations[r.ID] = r
	}
	return f
}

func (f *fakeReservationStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, res *models.Reservation) error {
	f.reservations[res.ID] = *res
	return nil
}

func (f *fakeReservationStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	r, ok := f.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeReservationStore) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	out := []*models.Reservation{}
	for _, r := range f.reservations {
		r := r
		if !r.EventAt.Before(from) && r.EventAt.Before(to) {
			out = append(out, &r)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, res *models.Reservation, expectedVersion int64) error {
	stored, ok := f.reservations[res.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrConflict
	}
	res.Version = expectedVersion + 1
	f.reservations[res.ID] = *res
	return nil
}

type fakeLoyaltyStore struct {
	accounts map[string]models.LoyaltyAccount
}

func newFakeLoyaltyStore(accounts ...models.LoyaltyAccount) *fakeLoyaltyStore {
	f := &fakeLoyaltyStore{accounts: make(map[string]models.LoyaltyAccount)}
	for _, a := range accounts {
		f.accounts[a.ClientID] = a
	}
	return f
}

func (f *fakeLoyaltyStore) GetByClientID(ctx context.Context, clientID string) (*models.LoyaltyAccount, error) {
	a, ok := f.accounts[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f *fakeLoyaltyStore) GetOrCreateInTx(ctx context.Context, tx *sqlx.Tx, clientID string, at time.Time) (*models.LoyaltyAccount, error) {
	a, ok := f.accounts[clientID]
	if !ok {
		a = models.LoyaltyAccount{ClientID: clientID, CreatedAt: at, UpdatedAt: at}
		f.accounts[clientID] = a
	}
	return &a, nil
}

func (f *fakeLoyaltyStore) SaveInTx(ctx context.Context, tx *sqlx.Tx, account *models.LoyaltyAccount) error {
	f.accounts[account.ClientID] = *account
	return nil
}

type fakeTransactionStore struct {
	entries []*models.Transaction
}

func (f *fakeTransactionStore) CreateInTx(ctx context.Context, tx *sqlx.Tx, t *models.Transaction) error {
	f.entries = append(f.entries, t)
	return nil
}

func (f *fakeTransactionStore) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Transaction, error) {
	return f.entries, nil
}

type fakeInventoryStore struct {
	items []models.InventoryItem
}

func (f *fakeInventoryStore) Create(ctx context.Context, item *models.InventoryItem) error {
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeInventoryStore) GetByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	for _, item := range f.items {
		if item.ID == id {
			item := item
			return &item, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeInventoryStore) ListAll(ctx context.Context) ([]models.InventoryItem, error) {
	return f.items, nil
}

type fakeAuditStore struct {
	entries []*models.AuditEntry
	filter  repository.AuditFilter
}

func (f *fakeAuditStore) Create(ctx context.Context, entry *models.AuditEntry) (bool, error) {
	for _, e := range f.entries {
		if e.EventID == entry.EventID {
			return false, nil
		}
	}
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, entry)
	return true, nil
}

func (f *fakeAuditStore) List(ctx context.Context, filter repository.AuditFilter) ([]*models.AuditEntry, error) {
	f.filter = filter
	return f.entries, nil
}
