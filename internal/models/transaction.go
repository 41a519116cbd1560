package models

import (
	"time"

	"github.com/vaidashi/catering-api/internal/money"
)

// TransactionType separates income from expense entries
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction is an immutable financial ledger entry
type Transaction struct {
	ID          string          `db:"id" json:"id"`
	Type        TransactionType `db:"type" json:"type"`
	Category    string          `db:"category" json:"category"`
	Amount      money.Cents     `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	Date        time.Time       `db:"date" json:"date"`
	Reference   string          `db:"reference" json:"reference,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// NewTransaction creates a ledger entry
func NewTransaction(txType TransactionType, category string, amount money.Cents, description string, date time.Time) *Transaction {
	return &Transaction{
		ID:          GenerateID("txn"),
		Type:        txType,
		Category:    category,
		Amount:      amount,
		Description: description,
		Date:        date,
		CreatedAt:   GetCurrentTime(),
	}
}
