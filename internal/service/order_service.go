package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/loyalty"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/pricing"
	"github.com/vaidashi/catering-api/internal/repository"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// CreateOrderInput is what a caller supplies to place an order
type CreateOrderInput struct {
	ClientID            string            `json:"client_id"`
	Items               []models.LineItem `json:"items"`
	Discount            money.Cents       `json:"discount_amount"`
	DeliveryDate        time.Time         `json:"delivery_date"`
	DeliveryAddress     string            `json:"delivery_address"`
	SpecialInstructions string            `json:"special_instructions"`
	RewardID            string            `json:"reward_id,omitempty"`
}

// OrderService handles order-related operations
type OrderService struct {
	tx      TxRunner
	orders  OrderStore
	outbox  OutboxWriter
	loyalty LoyaltyStore
	engine  *lifecycle.Engine
	rates   pricing.TaxRates
	program models.LoyaltyProgram
	logger  logger.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	tx TxRunner,
	orders OrderStore,
	outbox OutboxWriter,
	loyaltyStore LoyaltyStore,
	engine *lifecycle.Engine,
	rates pricing.TaxRates,
	program models.LoyaltyProgram,
	logger logger.Logger,
) *OrderService {
	return &OrderService{
		tx:      tx,
		orders:  orders,
		outbox:  outbox,
		loyalty: loyaltyStore,
		engine:  engine,
		rates:   rates,
		program: program,
		logger:  logger,
	}
}

// CreateOrder prices and stores a new pending order and queues its created event.
// A reward, when named, is redeemed from the client's points in the same transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return nil, apperrors.NewInvalidInputError("client_id is required")
	}
	if len(in.Items) == 0 {
		return nil, apperrors.NewInvalidInputError("at least one line item is required")
	}
	if in.DeliveryDate.IsZero() {
		return nil, apperrors.NewInvalidInputError("delivery_date is required")
	}

	totals, err := pricing.ComputeTotals(in.Items, s.rates, in.Discount)

	if err != nil {
		return nil, err
	}

	var reward *models.LoyaltyReward

	if in.RewardID != "" {
		r, err := loyalty.FindReward(s.program, in.RewardID)

		if err != nil {
			return nil, err
		}
		reward = &r
	}

	order := models.NewOrder(in.ClientID, in.DeliveryDate.UTC())
	order.DeliveryAddress = in.DeliveryAddress
	order.SpecialInstructions = in.SpecialInstructions

	var outboxMsg *models.OutboxMessage

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if reward != nil {
			redeemed, err := s.redeemInTx(ctx, tx, in, *reward, totals.Subtotal, order.CreatedAt)

			if err != nil {
				return err
			}
			totals = redeemed
		}

		totals.Apply(order)

		if err := s.orders.CreateInTx(ctx, tx, order); err != nil {
			return err
		}

		msg, err := queueCreated(ctx, tx, s.outbox, models.KindOrder, order.ID, order)

		if err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}
		outboxMsg = msg

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created with outbox message",
		"orderID", order.ID,
		"total", order.TotalAmount,
		"messageID", outboxMsg.ID)

	return order, nil
}

// redeemInTx spends the client's points and reprices with the reward discount added
func (s *OrderService) redeemInTx(ctx context.Context, tx *sqlx.Tx, in CreateOrderInput, reward models.LoyaltyReward, subtotal money.Cents, at time.Time) (pricing.Totals, error) {
	account, err := s.loyalty.GetOrCreateInTx(ctx, tx, in.ClientID, at)

	if err != nil {
		return pricing.Totals{}, err
	}

	redemption, err := loyalty.Redeem(*account, reward, s.program, subtotal, at)

	if err != nil {
		return pricing.Totals{}, err
	}

	totals, err := pricing.ComputeTotals(in.Items, s.rates, in.Discount+redemption.Discount)

	if err != nil {
		return pricing.Totals{}, err
	}

	if err := s.loyalty.SaveInTx(ctx, tx, &redemption.Account); err != nil {
		return pricing.Totals{}, err
	}

	s.logger.Info("Loyalty reward redeemed",
		"clientID", in.ClientID,
		"rewardID", reward.ID,
		"pointsSpent", redemption.PointsSpent,
		"discount", redemption.Discount)

	return totals, nil
}

// UpdateOrderStatus moves an order to target on behalf of role and queues the transition event.
// Delivering an order credits the client's loyalty points in the same transaction.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, target models.Status, role string) (*models.Order, error) {
	current, err := s.orders.GetByID(ctx, orderID)

	if err != nil {
		return nil, err
	}

	next, event, err := s.engine.TransitionOrder(*current, target, role)

	if err != nil {
		return nil, err
	}

	var outboxMsg *models.OutboxMessage

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.UpdateStatusInTx(ctx, tx, &next, current.Version); err != nil {
			return err
		}

		msg, err := queueTransition(ctx, tx, s.outbox, event)

		if err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}
		outboxMsg = msg

		if next.Status == models.OrderStatusDelivered {
			return s.creditInTx(ctx, tx, &next, event.Timestamp)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated with outbox message",
		"orderID", next.ID,
		"oldStatus", event.FromStatus,
		"newStatus", event.ToStatus,
		"role", role,
		"messageID", outboxMsg.ID)

	return &next, nil
}

func (s *OrderService) creditInTx(ctx context.Context, tx *sqlx.Tx, order *models.Order, at time.Time) error {
	points := loyalty.Earn(order.TotalAmount, s.program)

	if points == 0 {
		return nil
	}

	account, err := s.loyalty.GetOrCreateInTx(ctx, tx, order.ClientID, at)

	if err != nil {
		return err
	}

	credited := loyalty.Credit(*account, points, at)

	if err := s.loyalty.SaveInTx(ctx, tx, &credited); err != nil {
		return err
	}

	s.logger.Info("Loyalty points credited", "clientID", order.ClientID, "orderID", order.ID, "points", points)
	return nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrders retrieves orders with optional status and client filters
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*models.Order, error) {
	if filter.Status != "" && !lifecycle.IsKnownStatus(models.KindOrder, filter.Status) {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown order status %q", filter.Status))
	}
	return s.orders.List(ctx, filter)
}

// CountOrdersByStatus returns the dashboard counters, with every known status present
func (s *OrderService) CountOrdersByStatus(ctx context.Context) (map[models.Status]int, error) {
	counts, err := s.orders.CountByStatus(ctx)

	if err != nil {
		return nil, err
	}

	for _, status := range lifecycle.Statuses(models.KindOrder) {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	return counts, nil
}
