package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/catering-api/internal/finance"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// RecordTransactionInput is a ledger entry as submitted by a caller. Date is YYYY-MM-DD.
type RecordTransactionInput struct {
	Type        models.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Amount      money.Cents            `json:"amount"`
	Description string                 `json:"description"`
	Date        string                 `json:"date"`
	Reference   string                 `json:"reference"`
}

// FinanceService records ledger entries and builds period summaries
type FinanceService struct {
	tx           TxRunner
	transactions TransactionStore
	outbox       OutboxWriter
	authz        lifecycle.Authorizer
	logger       logger.Logger
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(tx TxRunner, transactions TransactionStore, outbox OutboxWriter, authz lifecycle.Authorizer, logger logger.Logger) *FinanceService {
	return &FinanceService{
		tx:           tx,
		transactions: transactions,
		outbox:       outbox,
		authz:        authz,
		logger:       logger,
	}
}

// RecordTransaction appends an entry to the ledger on behalf of role
func (s *FinanceService) RecordTransaction(ctx context.Context, in RecordTransactionInput, role string) (*models.Transaction, error) {
	if s.authz == nil || !s.authz.CanMutate(role, models.KindTransaction) {
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("role %q may not record transactions", role))
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(in.Date))

	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("date %q must be YYYY-MM-DD", in.Date))
	}

	t := models.NewTransaction(in.Type, strings.TrimSpace(in.Category), in.Amount, in.Description, date)
	t.Reference = in.Reference

	if err := finance.ValidateTransaction(t); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.transactions.CreateInTx(ctx, tx, t); err != nil {
			return err
		}

		msg, err := models.NewTransactionRecordedOutboxMessage(t)

		if err != nil {
			return fmt.Errorf("failed to create outbox message: %w", err)
		}

		return s.outbox.CreateInTx(ctx, tx, msg)
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Transaction recorded", "transactionID", t.ID, "type", t.Type, "amount", t.Amount, "role", role)
	return t, nil
}

// Summary aggregates the ledger over period
func (s *FinanceService) Summary(ctx context.Context, period finance.Period) (finance.Summary, error) {
	stored, err := s.transactions.ListBetween(ctx, period.From, period.To)

	if err != nil {
		return finance.Summary{}, err
	}

	transactions := make([]models.Transaction, len(stored))
	for i, t := range stored {
		transactions[i] = *t
	}

	return finance.Aggregate(transactions, period), nil
}
