// Package engineerror defines the typed errors returned by the matching and
// deduplication engine. No-match outcomes are never errors.
package engineerror

import "fmt"

// ValidationError reports a transaction record that is missing a required
// field or carries an unusable value.
type ValidationError struct {
	TxnID string
	Index int
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	id := e.TxnID
	if id == "" {
		id = fmt.Sprintf("#%d", e.Index)
	}
	if e.Value != "" {
		return fmt.Sprintf("invalid transaction %s: field %s='%s': %v", id, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid transaction %s: field %s: %v", id, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DuplicateIDError reports two records sharing the same id in one processed set.
type DuplicateIDError struct {
	TxnID  string
	First  int
	Second int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("transaction id %q appears at positions %d and %d", e.TxnID, e.First, e.Second)
}

// UnsupportedFormatError is returned by the export adapters for an unknown
// format string.
type UnsupportedFormatError struct {
	Kind      string
	Format    string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported %s format: %s (supported: %v)", e.Kind, e.Format, e.Supported)
}

// KeepNotMemberError is returned when a keep map points a group at a
// transaction that is not one of its members.
type KeepNotMemberError struct {
	GroupID string
	KeepID  string
}

func (e *KeepNotMemberError) Error() string {
	return fmt.Sprintf("keep id %q is not a member of group %s", e.KeepID, e.GroupID)
}
