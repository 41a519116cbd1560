package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/pricing"
	"github.com/vaidashi/catering-api/internal/repository"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// DefaultQuoteValidity applies when a quote is created without valid_until
const DefaultQuoteValidity = 30 * 24 * time.Hour

// CreateQuoteInput is what a caller supplies to draft a quote
type CreateQuoteInput struct {
	ClientID   string            `json:"client_id"`
	Items      []models.LineItem `json:"items"`
	Discount   money.Cents       `json:"discount_amount"`
	ValidUntil time.Time         `json:"valid_until"`
	Notes      string            `json:"notes"`
}

// QuoteService handles quote-related operations
type QuoteService struct {
	tx     TxRunner
	quotes QuoteStore
	orders OrderStore
	outbox OutboxWriter
	engine *lifecycle.Engine
	rates  pricing.TaxRates
	logger logger.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	tx TxRunner,
	quotes QuoteStore,
	orders OrderStore,
	outbox OutboxWriter,
	engine *lifecycle.Engine,
	rates pricing.TaxRates,
	logger logger.Logger,
) *QuoteService {
	return &QuoteService{
		tx:     tx,
		quotes: quotes,
		orders: orders,
		outbox: outbox,
		engine: engine,
		rates:  rates,
		logger: logger,
	}
}

// CreateQuote prices and stores a draft quote
func (s *QuoteService) CreateQuote(ctx context.Context, in CreateQuoteInput) (*models.Quote, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return nil, apperrors.NewInvalidInputError("client_id is required")
	}
	if len(in.Items) == 0 {
		return nil, apperrors.NewInvalidInputError("at least one line item is required")
	}

	totals, err := pricing.ComputeTotals(in.Items, s.rates, in.Discount)

	if err != nil {
		return nil, err
	}

	validUntil := in.ValidUntil.UTC()
	if in.ValidUntil.IsZero() {
		validUntil = s.engine.Now().Add(DefaultQuoteValidity)
	}

	quote := models.NewQuote(in.ClientID, validUntil)
	quote.Notes = in.Notes
	totals.ApplyQuote(quote)

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.quotes.CreateInTx(ctx, tx, quote); err != nil {
			return err
		}

		if _, err := queueCreated(ctx, tx, s.outbox, models.KindQuote, quote.ID, quote); err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Quote created", "quoteID", quote.ID, "total", quote.TotalAmount, "validUntil", quote.ValidUntil)
	return quote, nil
}

// GetQuote retrieves a quote by ID
func (s *QuoteService) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	return s.quotes.GetByID(ctx, id)
}

// ListQuotes retrieves quotes, optionally in one status
func (s *QuoteService) ListQuotes(ctx context.Context, status models.Status, opts repository.ListOptions) ([]*models.Quote, error) {
	if status != "" && !lifecycle.IsKnownStatus(models.KindQuote, status) {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown quote status %q", status))
	}
	return s.quotes.List(ctx, status, opts)
}

// UpdateQuoteStatus moves a quote to target on behalf of role and queues the transition event
func (s *QuoteService) UpdateQuoteStatus(ctx context.Context, quoteID string, target models.Status, role string) (*models.Quote, error) {
	current, err := s.quotes.GetByID(ctx, quoteID)

	if err != nil {
		return nil, err
	}

	next, event, err := s.engine.TransitionQuote(*current, target, role)

	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.quotes.UpdateStatusInTx(ctx, tx, &next, current.Version); err != nil {
			return err
		}

		if _, err := queueTransition(ctx, tx, s.outbox, event); err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Quote status updated",
		"quoteID", next.ID,
		"oldStatus", event.FromStatus,
		"newStatus", event.ToStatus,
		"role", role)

	return &next, nil
}

// ConvertQuote creates a pending order from an accepted quote. The quote is not modified.
// Converting a quote again returns the order it was first converted into.
func (s *QuoteService) ConvertQuote(ctx context.Context, quoteID string, deliveryDate time.Time, role string) (*models.Order, error) {
	if deliveryDate.IsZero() {
		return nil, apperrors.NewInvalidInputError("delivery_date is required")
	}

	quote, err := s.quotes.GetByID(ctx, quoteID)

	if err != nil {
		return nil, err
	}

	order, err := s.engine.ConvertQuote(*quote, deliveryDate.UTC(), role)

	if err != nil {
		return nil, err
	}

	if existing, err := s.orders.GetByQuoteID(ctx, quote.ID); err == nil {
		s.logger.Info("Quote already converted", "quoteID", quote.ID, "orderID", existing.ID)
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.CreateInTx(ctx, tx, &order); err != nil {
			return err
		}

		if _, err := queueCreated(ctx, tx, s.outbox, models.KindOrder, order.ID, order); err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}

		return nil
	})

	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with a concurrent conversion of the same quote
		if existing, getErr := s.orders.GetByQuoteID(ctx, quote.ID); getErr == nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quote converted into order", "quoteID", quote.ID, "orderID", order.ID, "role", role)
	return &order, nil
}
