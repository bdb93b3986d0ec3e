// Package common provides the CSV ingestion and file naming helpers shared by
// the command line front end.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

// NewReader returns a csv.Reader configured with delimiter.
func NewReader(r io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

// NewWriter returns a csv.Writer configured with delimiter.
func NewWriter(w io.Writer, delimiter rune) *csv.Writer {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter
	return writer
}

// ReadCSV reads CSV data into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSV[TCSVRow any](r io.Reader, delimiter rune) ([]TCSVRow, error) {
	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(NewReader(r, delimiter), &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// ReadCSVFile reads a CSV file into a slice of structs.
func ReadCSVFile[TCSVRow any](filePath string, delimiter rune, logger logging.Logger) ([]TCSVRow, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	logger.Debug("Reading CSV file", logging.F(logging.FieldFile, filePath))

	file, err := os.Open(filePath) // #nosec G304 -- path supplied by the user
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close file",
				logging.F(logging.FieldFile, filePath),
				logging.F("error", err))
		}
	}()

	rows, err := ReadCSV[TCSVRow](file, delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	logger.Debug("Successfully read CSV data",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// ParseTransactions converts CSV records into transactions, failing on the
// first invalid row.
func ParseTransactions(records []models.TransactionRecord) ([]models.Transaction, error) {
	txns := make([]models.Transaction, 0, len(records))
	for i, rec := range records {
		txn, err := rec.ToTransaction(i)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// ReadTransactionsFile loads a transaction ledger from a CSV file with the
// columns id, date, amount, type, description and the optional category,
// bank_reference_id, check_number and created_at.
func ReadTransactionsFile(filePath string, delimiter rune, logger logging.Logger) ([]models.Transaction, error) {
	records, err := ReadCSVFile[models.TransactionRecord](filePath, delimiter, logger)
	if err != nil {
		return nil, err
	}
	txns, err := ParseTransactions(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return txns, nil
}

// WriteCSV marshals rows with gocsv using delimiter.
func WriteCSV(w io.Writer, rows interface{}, delimiter rune) error {
	writer := NewWriter(w, delimiter)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteTransactionsFile writes transactions in the same layout
// ReadTransactionsFile reads, creating parent directories as needed.
func WriteTransactionsFile(filePath string, txns []models.Transaction, delimiter rune, logger logging.Logger) error {
	if txns == nil {
		return fmt.Errorf("cannot write nil transactions to CSV")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	if err := os.MkdirAll(filepath.Dir(filePath), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(filePath) // #nosec G304 -- path supplied by the user
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close file",
				logging.F(logging.FieldFile, filePath),
				logging.F("error", err))
		}
	}()

	records := make([]models.TransactionRecord, len(txns))
	for i, t := range txns {
		records[i] = models.NewTransactionRecord(t)
	}
	if err := WriteCSV(file, records, delimiter); err != nil {
		return err
	}

	logger.Info("Wrote transactions to CSV file",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, len(txns)))
	return nil
}
