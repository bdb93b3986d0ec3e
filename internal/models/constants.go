package models

// TxnType is the coarse direction classifier of a transaction. income/expense
// are used inside one ledger, debit/credit between ledgers.
type TxnType string

const (
	TypeIncome  TxnType = "income"
	TypeExpense TxnType = "expense"
	TypeDebit   TxnType = "debit"
	TypeCredit  TxnType = "credit"
)

// GroupLabel classifies a duplicate group.
type GroupLabel string

const (
	LabelDefinite GroupLabel = "definite"
	LabelPossible GroupLabel = "possible"
)

// MatchType classifies a two-ledger reconciliation match.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchFuzzy     MatchType = "fuzzy"
	MatchUnmatched MatchType = "unmatched"
)

// ActionType is the intent recorded for a transaction in an audit log.
type ActionType string

const (
	ActionKeep   ActionType = "keep"
	ActionRemove ActionType = "remove"
)

// File permissions
const (
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
