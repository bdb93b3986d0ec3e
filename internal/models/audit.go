package models

import "time"

// AuditAction is one keep/remove decision.
type AuditAction struct {
	TxnID      string     `json:"txn_id" yaml:"txn_id"`
	Action     ActionType `json:"action" yaml:"action"`
	Reason     string     `json:"reason" yaml:"reason"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
}

// AuditSummary aggregates an audit log by group label.
type AuditSummary struct {
	TotalProcessed     int `json:"total_processed" yaml:"total_processed"`
	DefiniteDuplicates int `json:"definite_duplicates" yaml:"definite_duplicates"`
	PossibleDuplicates int `json:"possible_duplicates" yaml:"possible_duplicates"`
	RemovedCount       int `json:"removed_count" yaml:"removed_count"`
}

// AuditLog is the append-only record of an apply step. It is the only
// representation of removal; transactions themselves are never modified.
type AuditLog struct {
	ID        string        `json:"id" yaml:"id"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Actions   []AuditAction `json:"actions" yaml:"actions"`
	Summary   AuditSummary  `json:"summary" yaml:"summary"`
}

// RemovedIDs returns the set of transaction ids marked for removal.
func (l *AuditLog) RemovedIDs() map[string]struct{} {
	removed := make(map[string]struct{})
	if l == nil {
		return removed
	}
	for _, a := range l.Actions {
		if a.Action == ActionRemove {
			removed[a.TxnID] = struct{}{}
		}
	}
	return removed
}

// AuditRecord is the flat CSV row for an audit action.
type AuditRecord struct {
	TxnID      string `csv:"txn_id"`
	Action     string `csv:"action"`
	Reason     string `csv:"reason"`
	Confidence string `csv:"confidence"`
	Timestamp  string `csv:"timestamp"`
}
