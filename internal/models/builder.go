package models

import (
	"errors"
	"fmt"
	"time"

	"fjacquet/txn-recon/internal/dateutils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionBuilder provides a fluent API for constructing transactions.
// The first error encountered sticks and is returned by Build.
type TransactionBuilder struct {
	tx  Transaction
	err error
}

// NewTransactionBuilder creates a builder for an expense with a random id.
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{
		tx: Transaction{
			ID:     uuid.NewString(),
			Type:   TypeExpense,
			Amount: decimal.Zero,
		},
	}
}

// WithID sets the transaction ID
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.ID = id
	return b
}

// WithDate sets the posting date from any layout accepted by dateutils.ParseDate.
func (b *TransactionBuilder) WithDate(dateStr string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	date, _, err := dateutils.ParseDate(dateStr)
	if err != nil {
		b.err = fmt.Errorf("invalid date %q: %w", dateStr, err)
		return b
	}
	b.tx.Date = date
	return b
}

// WithAmount sets the amount from a decimal string.
func (b *TransactionBuilder) WithAmount(amount string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		b.err = fmt.Errorf("invalid amount %q: %w", amount, err)
		return b
	}
	b.tx.Amount = dec
	return b
}

// WithAmountDecimal sets the amount.
func (b *TransactionBuilder) WithAmountDecimal(amount decimal.Decimal) *TransactionBuilder {
	b.tx.Amount = amount
	return b
}

// WithType sets the direction classifier.
func (b *TransactionBuilder) WithType(t TxnType) *TransactionBuilder {
	b.tx.Type = t
	return b
}

// WithDescription sets the free-text label.
func (b *TransactionBuilder) WithDescription(desc string) *TransactionBuilder {
	b.tx.Description = desc
	return b
}

// WithCategory sets the advisory category.
func (b *TransactionBuilder) WithCategory(category string) *TransactionBuilder {
	b.tx.Category = category
	return b
}

// WithBankReference sets the bank reference id.
func (b *TransactionBuilder) WithBankReference(ref string) *TransactionBuilder {
	b.tx.BankReferenceID = ref
	return b
}

// WithCheckNumber sets the check number.
func (b *TransactionBuilder) WithCheckNumber(num string) *TransactionBuilder {
	b.tx.CheckNumber = num
	return b
}

// WithCreatedAt sets the ingestion timestamp.
func (b *TransactionBuilder) WithCreatedAt(ts time.Time) *TransactionBuilder {
	created := ts.UTC()
	b.tx.CreatedAt = &created
	return b
}

// Build returns the transaction or the first error recorded.
func (b *TransactionBuilder) Build() (Transaction, error) {
	if b.err != nil {
		return Transaction{}, b.err
	}
	if b.tx.Date.IsZero() {
		return Transaction{}, errors.New("transaction date is required")
	}
	return b.tx, nil
}

// MustBuild is Build for fixtures; it panics on error.
func (b *TransactionBuilder) MustBuild() Transaction {
	tx, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tx
}
