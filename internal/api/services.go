package api

import (
	"context"
	"time"

	"github.com/vaidashi/catering-api/internal/authz"
	"github.com/vaidashi/catering-api/internal/finance"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/pricing"
	"github.com/vaidashi/catering-api/internal/repository"
	"github.com/vaidashi/catering-api/internal/service"
)

// OrderAPI is the order service as used by the HTTP layer
type OrderAPI interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, target models.Status, role string) (*models.Order, error)
	CountOrdersByStatus(ctx context.Context) (map[models.Status]int, error)
}

// QuoteAPI is the quote service as used by the HTTP layer
type QuoteAPI interface {
	CreateQuote(ctx context.Context, in service.CreateQuoteInput) (*models.Quote, error)
	GetQuote(ctx context.Context, id string) (*models.Quote, error)
	ListQuotes(ctx context.Context, status models.Status, opts repository.ListOptions) ([]*models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, quoteID string, target models.Status, role string) (*models.Quote, error)
	ConvertQuote(ctx context.Context, quoteID string, deliveryDate time.Time, role string) (*models.Order, error)
}

// ReservationAPI is the reservation service as used by the HTTP layer
type ReservationAPI interface {
	CreateReservation(ctx context.Context, in service.CreateReservationInput) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context, from, to time.Time) ([]*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, target models.Status, role string) (*models.Reservation, error)
}

// FinanceAPI is the finance service as used by the HTTP layer
type FinanceAPI interface {
	RecordTransaction(ctx context.Context, in service.RecordTransactionInput, role string) (*models.Transaction, error)
	Summary(ctx context.Context, period finance.Period) (finance.Summary, error)
}

// InventoryAPI is the inventory service as used by the HTTP layer
type InventoryAPI interface {
	CreateItem(ctx context.Context, in service.CreateInventoryItemInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*models.InventoryItem, error)
	Report(ctx context.Context, horizonDays int) (*service.InventoryReport, error)
}

// AuditAPI is the audit service as used by the HTTP layer
type AuditAPI interface {
	List(ctx context.Context, filter repository.AuditFilter, role string) ([]*models.AuditEntry, error)
}

// LoyaltyAPI is the loyalty service as used by the HTTP layer
type LoyaltyAPI interface {
	GetAccount(ctx context.Context, clientID string) (*models.LoyaltyAccount, error)
	Program() models.LoyaltyProgram
}

// DeadLetterAdmin is the dead letter table as used by the admin endpoints
type DeadLetterAdmin interface {
	List(ctx context.Context, status models.DeadLetterStatus, opts repository.ListOptions) ([]*models.DeadLetterMessage, error)
	GetMessage(ctx context.Context, id int64) (*models.DeadLetterMessage, error)
	Requeue(ctx context.Context, id int64) error
	MarkAsDiscarded(ctx context.Context, id int64, reason string) error
}

// RoleViewer exposes the grant table currently in force
type RoleViewer interface {
	Snapshot() map[string][]authz.Permission
}

// Services groups everything the server dispatches to
type Services struct {
	Orders       OrderAPI
	Quotes       QuoteAPI
	Reservations ReservationAPI
	Finance      FinanceAPI
	Inventory    InventoryAPI
	Audit        AuditAPI
	Loyalty      LoyaltyAPI
	DeadLetters  DeadLetterAdmin
	Roles        RoleViewer
	TaxRates     pricing.TaxRates
	// Ping reports whether the backing store is reachable; nil skips the check
	Ping func(ctx context.Context) error
}

var (
	_ OrderAPI        = (*service.OrderService)(nil)
	_ QuoteAPI        = (*service.QuoteService)(nil)
	_ ReservationAPI  = (*service.ReservationService)(nil)
	_ FinanceAPI      = (*service.FinanceService)(nil)
	_ InventoryAPI    = (*service.InventoryService)(nil)
	_ AuditAPI        = (*service.AuditService)(nil)
	_ LoyaltyAPI      = (*service.LoyaltyService)(nil)
	_ DeadLetterAdmin = (*repository.DeadLetterRepository)(nil)
	_ RoleViewer      = (*authz.Policy)(nil)
)
