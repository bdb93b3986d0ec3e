package models

import "github.com/shopspring/decimal"

// ReconciliationMatch pairs a bank transaction with at most one book
// transaction. BookTransaction is nil for unmatched entries.
type ReconciliationMatch struct {
	ID              string           `json:"id" yaml:"id"`
	BankTransaction Transaction      `json:"bank_transaction" yaml:"bank_transaction"`
	BookTransaction *Transaction     `json:"book_transaction,omitempty" yaml:"book_transaction,omitempty"`
	MatchType       MatchType        `json:"match_type" yaml:"match_type"`
	Confidence      float64          `json:"confidence" yaml:"confidence"`
	Difference      *decimal.Decimal `json:"difference,omitempty" yaml:"difference,omitempty"`
	Notes           string           `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// IsMatched reports whether the entry pairs two transactions.
func (m ReconciliationMatch) IsMatched() bool {
	return m.MatchType != MatchUnmatched && m.BookTransaction != nil
}

// ReconciliationResult is the output of a two-ledger reconciliation.
// Matches also contains one unmatched entry per residual bank transaction.
type ReconciliationResult struct {
	Matches       []ReconciliationMatch `json:"matches" yaml:"matches"`
	UnmatchedBank []Transaction         `json:"unmatched_bank" yaml:"unmatched_bank"`
	UnmatchedBook []Transaction         `json:"unmatched_book" yaml:"unmatched_book"`
}

// MatchedPairs returns the entries that pair a bank and a book transaction.
func (r ReconciliationResult) MatchedPairs() []ReconciliationMatch {
	var pairs []ReconciliationMatch
	for _, m := range r.Matches {
		if m.IsMatched() {
			pairs = append(pairs, m)
		}
	}
	return pairs
}

// MatchRecord is the flat CSV row for a reconciliation match.
type MatchRecord struct {
	ID              string `csv:"match_id"`
	MatchType       string `csv:"match_type"`
	Confidence      string `csv:"confidence"`
	BankID          string `csv:"bank_id"`
	BankDate        string `csv:"bank_date"`
	BankAmount      string `csv:"bank_amount"`
	BankDescription string `csv:"bank_description"`
	BookID          string `csv:"book_id"`
	BookDate        string `csv:"book_date"`
	BookAmount      string `csv:"book_amount"`
	BookDescription string `csv:"book_description"`
	Difference      string `csv:"difference"`
	Notes           string `csv:"notes"`
}
