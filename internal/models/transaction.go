// Package models provides the data structures shared by the deduplication and
// reconciliation engine.
package models

import (
	"errors"
	"strings"
	"time"

	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/engineerror"

	"github.com/shopspring/decimal"
)

// Transaction is the atomic, immutable input of the engine.
type Transaction struct {
	ID              string          `json:"id" yaml:"id"`
	Date            time.Time       `json:"date" yaml:"date"`
	Amount          decimal.Decimal `json:"amount" yaml:"amount"`
	Type            TxnType         `json:"type" yaml:"type"`
	Description     string          `json:"description" yaml:"description"`
	Category        string          `json:"category,omitempty" yaml:"category,omitempty"`
	BankReferenceID string          `json:"bank_reference_id,omitempty" yaml:"bank_reference_id,omitempty"`
	CheckNumber     string          `json:"check_number,omitempty" yaml:"check_number,omitempty"`
	CreatedAt       *time.Time      `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// ParseTxnType maps a free-form type label onto a TxnType. Matching is
// case-insensitive; "dbit"/"crdt" are accepted as debit/credit.
func ParseTxnType(s string) (TxnType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return TypeIncome, true
	case "expense":
		return TypeExpense, true
	case "debit", "dbit":
		return TypeDebit, true
	case "credit", "crdt":
		return TypeCredit, true
	}
	return "", false
}

// IsValid reports whether t is one of the known types.
func (t TxnType) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeDebit, TypeCredit:
		return true
	}
	return false
}

// IsOutflow reports whether money leaves the account (expense or debit).
func (t TxnType) IsOutflow() bool {
	return t == TypeExpense || t == TypeDebit
}

// RoundedAmount returns the amount rounded to cents.
func (t Transaction) RoundedAmount() decimal.Decimal {
	return t.Amount.Round(2)
}

// AmountKey is the bucket key used to partition transactions by amount.
func (t Transaction) AmountKey() string {
	return t.Amount.StringFixed(2)
}

// CanonicalTime is the instant used to decide which record is the original:
// CreatedAt when present, the posting date otherwise.
func (t Transaction) CanonicalTime() time.Time {
	if t.CreatedAt != nil {
		return *t.CreatedAt
	}
	return t.Date
}

// TransactionRecord is the flat, string-typed row read from and written to
// CSV files.
type TransactionRecord struct {
	ID              string `csv:"id"`
	Date            string `csv:"date"`
	Amount          string `csv:"amount"`
	Type            string `csv:"type"`
	Description     string `csv:"description"`
	Category        string `csv:"category"`
	BankReferenceID string `csv:"bank_reference_id"`
	CheckNumber     string `csv:"check_number"`
	CreatedAt       string `csv:"created_at"`
}

var errRequired = errors.New("required field is empty")

// ToTransaction converts a CSV row into a Transaction. index is the row
// position, used in errors when the id is missing.
func (r TransactionRecord) ToTransaction(index int) (Transaction, error) {
	id := strings.TrimSpace(r.ID)
	fail := func(field, value string, err error) (Transaction, error) {
		return Transaction{}, &engineerror.ValidationError{TxnID: id, Index: index, Field: field, Value: value, Err: err}
	}

	if id == "" {
		return fail("id", "", errRequired)
	}

	date, _, err := dateutils.ParseDate(r.Date)
	if err != nil {
		return fail("date", r.Date, err)
	}

	rawAmount := strings.TrimSpace(r.Amount)
	if rawAmount == "" {
		return fail("amount", "", errRequired)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(rawAmount, ",", ""))
	if err != nil {
		return fail("amount", r.Amount, err)
	}

	txnType, ok := ParseTxnType(r.Type)
	if !ok {
		return fail("type", r.Type, errors.New("must be one of income, expense, debit, credit"))
	}

	txn := Transaction{
		ID:              id,
		Date:            date,
		Amount:          amount,
		Type:            txnType,
		Description:     r.Description,
		Category:        strings.TrimSpace(r.Category),
		BankReferenceID: strings.TrimSpace(r.BankReferenceID),
		CheckNumber:     strings.TrimSpace(r.CheckNumber),
	}

	if strings.TrimSpace(r.CreatedAt) != "" {
		created, err := dateutils.ParseTimestamp(r.CreatedAt)
		if err != nil {
			return fail("created_at", r.CreatedAt, err)
		}
		txn.CreatedAt = &created
	}

	return txn, nil
}

// NewTransactionRecord flattens a Transaction for CSV output.
func NewTransactionRecord(t Transaction) TransactionRecord {
	rec := TransactionRecord{
		ID:              t.ID,
		Date:            dateutils.ToISODate(t.Date),
		Amount:          t.Amount.StringFixed(2),
		Type:            string(t.Type),
		Description:     t.Description,
		Category:        t.Category,
		BankReferenceID: t.BankReferenceID,
		CheckNumber:     t.CheckNumber,
	}
	if t.CreatedAt != nil {
		rec.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return rec
}
