package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/repository"
)

// TxRunner runs fn inside a database transaction
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// OrderStore is the persistence the order service needs
type OrderStore interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByQuoteID(ctx context.Context, quoteID string) (*models.Order, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]*models.Order, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order, expectedVersion int64) error
}

// QuoteStore is the persistence the quote service needs
type QuoteStore interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, quote *models.Quote) error
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	List(ctx context.Context, status models.Status, opts repository.ListOptions) ([]*models.Quote, error)
	UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, quote *models.Quote, expectedVersion int64) error
}

// ReservationStore is the persistence the reservation service needs
type ReservationStore interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, res *models.Reservation) error
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*models.Reservation, error)
	UpdateStatusInTx(ctx context.Context, tx *sqlx.Tx, res *models.Reservation, expectedVersion int64) error
}

// TransactionStore is the append-only ledger
type TransactionStore interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, t *models.Transaction) error
	ListBetween(ctx context.Context, from, to time.Time) ([]*models.Transaction, error)
}

// InventoryStore is the persistence the inventory service needs
type InventoryStore interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	GetByID(ctx context.Context, id string) (*models.InventoryItem, error)
	ListAll(ctx context.Context) ([]models.InventoryItem, error)
}

// LoyaltyStore is the persistence for loyalty accounts
type LoyaltyStore interface {
	GetByClientID(ctx context.Context, clientID string) (*models.LoyaltyAccount, error)
	GetOrCreateInTx(ctx context.Context, tx *sqlx.Tx, clientID string, at time.Time) (*models.LoyaltyAccount, error)
	SaveInTx(ctx context.Context, tx *sqlx.Tx, account *models.LoyaltyAccount) error
}

// AuditStore is the persistence for the audit log
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditEntry) (bool, error)
	List(ctx context.Context, filter repository.AuditFilter) ([]*models.AuditEntry, error)
}

// OutboxWriter queues messages in the caller's transaction
type OutboxWriter interface {
	CreateInTx(ctx context.Context, tx *sqlx.Tx, message *models.OutboxMessage) error
}

var (
	_ OrderStore       = (*repository.OrderRepository)(nil)
	_ QuoteStore       = (*repository.QuoteRepository)(nil)
	_ ReservationStore = (*repository.ReservationRepository)(nil)
	_ TransactionStore = (*repository.TransactionRepository)(nil)
	_ InventoryStore   = (*repository.InventoryRepository)(nil)
	_ LoyaltyStore     = (*repository.LoyaltyRepository)(nil)
	_ AuditStore       = (*repository.AuditRepository)(nil)
	_ OutboxWriter     = (*repository.OutboxRepository)(nil)
)

// queueTransition writes the transition event to the outbox
func queueTransition(ctx context.Context, tx *sqlx.Tx, outbox OutboxWriter, event models.TransitionEvent) (*models.OutboxMessage, error) {
	msg, err := models.NewTransitionOutboxMessage(event)

	if err != nil {
		return nil, err
	}

	if err := outbox.CreateInTx(ctx, tx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// queueCreated announces a new entity through the outbox
func queueCreated(ctx context.Context, tx *sqlx.Tx, outbox OutboxWriter, kind models.EntityKind, id string, entity interface{}) (*models.OutboxMessage, error) {
	msg, err := models.NewEntityCreatedOutboxMessage(kind, id, entity)

	if err != nil {
		return nil, err
	}

	if err := outbox.CreateInTx(ctx, tx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}
