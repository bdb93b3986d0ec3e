// Package validation checks transaction sets and file arguments before they
// reach the engine.
package validation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"fjacquet/txn-recon/internal/engineerror"
	"fjacquet/txn-recon/internal/models"
)

var (
	errEmpty       = errors.New("required field is empty")
	errUnknownType = errors.New("must be one of income, expense, debit, credit")
)

// ValidateTransaction checks a single record. index is its position in the
// input and is only used for error reporting.
func ValidateTransaction(t models.Transaction, index int) error {
	if strings.TrimSpace(t.ID) == "" {
		return &engineerror.ValidationError{Index: index, Field: "id", Err: errEmpty}
	}
	if t.Date.IsZero() {
		return &engineerror.ValidationError{TxnID: t.ID, Index: index, Field: "date", Err: errEmpty}
	}
	if !t.Type.IsValid() {
		return &engineerror.ValidationError{TxnID: t.ID, Index: index, Field: "type", Value: string(t.Type), Err: errUnknownType}
	}
	return nil
}

// ValidateTransactions fails on the first invalid record or on the first id
// seen twice.
func ValidateTransactions(txns []models.Transaction) error {
	seen := make(map[string]int, len(txns))
	for i, t := range txns {
		if err := ValidateTransaction(t, i); err != nil {
			return err
		}
		if first, ok := seen[t.ID]; ok {
			return &engineerror.DuplicateIDError{TxnID: t.ID, First: first, Second: i}
		}
		seen[t.ID] = i
	}
	return nil
}

// IsValidFile checks that path exists and is a regular file.
func IsValidFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

// IsValidDirectory checks that path exists and is a directory.
func IsValidDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// IsValidFilePermissions rejects modes that grant any permission to others.
// Audit logs are written with 0644 at most.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0002 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s", mode.String())
	}
	return nil
}
