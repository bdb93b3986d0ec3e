package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fjacquet/txn-recon/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Write renders p in the encoding its format calls for.
func Write(w io.Writer, p *Payload, delimiter rune) error {
	switch {
	case p.Lines != nil:
		return WriteText(w, p)
	case p.Format == FormatXLSX:
		return WriteXLSX(w, p)
	case p.Format == FormatJSON || p.Format == FormatPDF:
		return WriteJSON(w, p)
	default:
		return WriteCSV(w, p, delimiter)
	}
}

// WriteCSV marshals the payload records with gocsv.
func WriteCSV(w io.Writer, p *Payload, delimiter rune) error {
	if p.Data == nil {
		return fmt.Errorf("payload %s has no records", p.Filename)
	}
	if delimiter == 0 {
		delimiter = ','
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(p.Data, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteJSON writes the payload data as indented JSON. PDF payloads are written
// whole so the summary travels with the rows; rendering them is up to the
// caller.
func WriteJSON(w io.Writer, p *Payload) error {
	var v interface{} = p.Data
	if p.Format == FormatPDF {
		v = p
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteText writes line-oriented payloads with CRLF endings, as QuickBooks
// Desktop expects for IIF files.
func WriteText(w io.Writer, p *Payload) error {
	bw := bufio.NewWriter(w)
	for _, line := range p.Lines {
		if _, err := bw.WriteString(line + "\r\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.Filename, err)
		}
	}
	return bw.Flush()
}

const (
	dataSheet    = "Data"
	summarySheet = "Summary"
	columnWidth  = 18
)

// WriteXLSX writes the payload rows to a workbook with a styled header row.
// Amount and confidence columns are stored as numbers. A summary sheet is
// added when the payload carries one.
func WriteXLSX(w io.Writer, p *Payload) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), dataSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	numeric := make([]bool, len(p.Headers))
	for i, header := range p.Headers {
		h := strings.ToLower(header)
		numeric[i] = strings.Contains(h, "amount") || h == "confidence" || h == "difference"

		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(dataSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(dataSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for r, row := range p.Rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(dataSheet, cell, cellValue(value, c < len(numeric) && numeric[c])); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if len(p.Headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(p.Headers))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(dataSheet, "A", last, columnWidth); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if p.Summary != nil {
		if err := writeSummarySheet(f, *p.Summary); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s models.AuditSummary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	rows := [][]interface{}{
		{"total_processed", s.TotalProcessed},
		{"definite_duplicates", s.DefiniteDuplicates},
		{"possible_duplicates", s.PossibleDuplicates},
		{"removed_count", s.RemovedCount},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

func cellValue(value string, numeric bool) interface{} {
	if !numeric || value == "" {
		return value
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return value
	}
	f, _ := d.Float64()
	return f
}
