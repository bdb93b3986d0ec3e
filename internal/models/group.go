package models

import "github.com/shopspring/decimal"

// GroupKey is the representative amount and normalized description of a group.
type GroupKey struct {
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Description string          `json:"description" yaml:"description"`
}

// GroupMember is a transaction inside a duplicate group.
type GroupMember struct {
	Txn             Transaction `json:"txn" yaml:"txn"`
	SuggestedRemove bool        `json:"suggested_remove" yaml:"suggested_remove"`
}

// DuplicateGroup is a set of transactions believed to record the same event.
type DuplicateGroup struct {
	GroupID         string        `json:"group_id" yaml:"group_id"`
	Label           GroupLabel    `json:"label" yaml:"label"`
	Confidence      float64       `json:"confidence" yaml:"confidence"`
	Key             GroupKey      `json:"key" yaml:"key"`
	SuggestedKeepID string        `json:"suggested_keep_id,omitempty" yaml:"suggested_keep_id,omitempty"`
	Members         []GroupMember `json:"txns" yaml:"txns"`
}

// MemberIDs returns the member transaction ids in group order.
func (g DuplicateGroup) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.Txn.ID
	}
	return ids
}

// HasMember reports whether id belongs to the group.
func (g DuplicateGroup) HasMember(id string) bool {
	for _, m := range g.Members {
		if m.Txn.ID == id {
			return true
		}
	}
	return false
}
