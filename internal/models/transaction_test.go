package models

import (
	"errors"
	"testing"
	"time"

	"fjacquet/txn-recon/internal/engineerror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTxnType(t *testing.T) {
	tests := []struct {
		in   string
		want TxnType
		ok   bool
	}{
		{"income", TypeIncome, true},
		{" Expense ", TypeExpense, true},
		{"Debit", TypeDebit, true},
		{"CRDT", TypeCredit, true},
		{"DBIT", TypeDebit, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTxnType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, TypeCredit.IsValid())
	assert.False(t, TxnType("Credit").IsValid())
	assert.True(t, TypeDebit.IsOutflow())
	assert.False(t, TypeIncome.IsOutflow())
}

func TestTransactionRecord_ToTransaction(t *testing.T) {
	rec := TransactionRecord{
		ID:              "t1",
		Date:            "2024-01-15",
		Amount:          "2,500.005",
		Type:            "Income",
		Description:     "Client Payment - ABC Corp",
		BankReferenceID: " REF1 ",
		CreatedAt:       "2024-01-15T09:00:00Z",
	}

	txn, err := rec.ToTransaction(0)
	require.NoError(t, err)
	assert.Equal(t, "t1", txn.ID)
	assert.Equal(t, TypeIncome, txn.Type)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("2500.005")))
	assert.Equal(t, "2500.01", txn.AmountKey())
	assert.Equal(t, "REF1", txn.BankReferenceID)
	require.NotNil(t, txn.CreatedAt)
	assert.Equal(t, 9, txn.CreatedAt.Hour())
	assert.Equal(t, *txn.CreatedAt, txn.CanonicalTime())
}

func TestTransactionRecord_ToTransaction_Errors(t *testing.T) {
	base := TransactionRecord{ID: "t1", Date: "2024-01-15", Amount: "10", Type: "expense"}

	tests := []struct {
		name  string
		mut   func(r *TransactionRecord)
		field string
	}{
		{"missing id", func(r *TransactionRecord) { r.ID = " " }, "id"},
		{"bad date", func(r *TransactionRecord) { r.Date = "soon" }, "date"},
		{"missing amount", func(r *TransactionRecord) { r.Amount = "" }, "amount"},
		{"bad amount", func(r *TransactionRecord) { r.Amount = "NaN" }, "amount"},
		{"bad type", func(r *TransactionRecord) { r.Type = "transfer" }, "type"},
		{"bad created_at", func(r *TransactionRecord) { r.CreatedAt = "later" }, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			tt.mut(&rec)
			_, err := rec.ToTransaction(7)
			require.Error(t, err)

			var vErr *engineerror.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, 7, vErr.Index)
		})
	}
}

func TestNewTransactionRecord(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	txn := NewTransactionBuilder().
		WithID("x").
		WithDate("2024-01-01").
		WithAmount("-12.5").
		WithDescription("Coffee").
		WithCheckNumber("101").
		WithCreatedAt(created).
		MustBuild()

	rec := NewTransactionRecord(txn)
	assert.Equal(t, "2024-01-01", rec.Date)
	assert.Equal(t, "-12.50", rec.Amount)
	assert.Equal(t, "expense", rec.Type)
	assert.Equal(t, "101", rec.CheckNumber)
	assert.Equal(t, "2024-01-02T03:04:05Z", rec.CreatedAt)

	back, err := rec.ToTransaction(0)
	require.NoError(t, err)
	assert.True(t, back.Amount.Equal(txn.Amount))
	assert.Equal(t, txn.Date, back.Date)
}

func TestTransactionBuilder_Errors(t *testing.T) {
	_, err := NewTransactionBuilder().WithDate("bad").WithAmount("1").Build()
	assert.Error(t, err)

	_, err = NewTransactionBuilder().WithAmount("x").Build()
	assert.Error(t, err)

	_, err = NewTransactionBuilder().WithAmount("1").Build()
	assert.EqualError(t, err, "transaction date is required")

	tx := NewTransactionBuilder().WithDate("2024-01-01").MustBuild()
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, tx.Date, tx.CanonicalTime())
}

func TestGroupAndAuditHelpers(t *testing.T) {
	a := NewTransactionBuilder().WithID("a").WithDate("2024-01-01").MustBuild()
	b := NewTransactionBuilder().WithID("b").WithDate("2024-01-01").MustBuild()
	g := DuplicateGroup{Members: []GroupMember{{Txn: a}, {Txn: b, SuggestedRemove: true}}}
	assert.Equal(t, []string{"a", "b"}, g.MemberIDs())
	assert.True(t, g.HasMember("b"))
	assert.False(t, g.HasMember("c"))

	log := &AuditLog{Actions: []AuditAction{
		{TxnID: "a", Action: ActionKeep},
		{TxnID: "b", Action: ActionRemove},
	}}
	assert.Equal(t, map[string]struct{}{"b": {}}, log.RemovedIDs())

	var nilLog *AuditLog
	assert.Empty(t, nilLog.RemovedIDs())

	res := ReconciliationResult{Matches: []ReconciliationMatch{
		{ID: "m1", MatchType: MatchExact, BankTransaction: a, BookTransaction: &b},
		{ID: "m2", MatchType: MatchUnmatched, BankTransaction: b},
	}}
	require.Len(t, res.MatchedPairs(), 1)
	assert.Equal(t, "m1", res.MatchedPairs()[0].ID)
}
