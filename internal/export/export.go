// Package export turns clean transaction sets, audit logs and reconciliation
// results into serializable payloads, and writes those payloads as CSV, XLSX,
// JSON or plain text.
//
// Building a payload never touches storage. Writers take an io.Writer so the
// caller decides where the bytes go.
package export

import (
	"strings"
	"time"

	"fjacquet/txn-recon/internal/audit"
	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/engineerror"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"
)

// Format names an output format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatPDF     Format = "pdf"
	FormatJSON    Format = "json"
	FormatQBO     Format = "qbo"
	FormatXero    Format = "xero"
	FormatGeneric Format = "generic"
	FormatIIF     Format = "iif"
)

// Supported formats per export kind.
var (
	CleanDataFormats      = []Format{FormatCSV, FormatXLSX, FormatPDF, FormatQBO, FormatXero, FormatGeneric, FormatIIF}
	AuditLogFormats       = []Format{FormatCSV, FormatJSON}
	ReconciliationFormats = []Format{FormatCSV, FormatXLSX, FormatJSON}
)

// Payload is a serializable export. Data holds csv-tagged records (or the
// audit log for JSON); Rows mirrors Data as strings for spreadsheet output;
// Lines is set for line-oriented formats such as IIF.
type Payload struct {
	Format   Format               `json:"format" yaml:"format"`
	Filename string               `json:"filename" yaml:"filename"`
	Headers  []string             `json:"headers,omitempty" yaml:"headers,omitempty"`
	Data     interface{}          `json:"data" yaml:"data"`
	Summary  *models.AuditSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Rows     [][]string           `json:"-" yaml:"-"`
	Lines    []string             `json:"-" yaml:"-"`
}

// Exporter builds payloads. The alias table is used to derive a payee from
// descriptions in accounting formats.
type Exporter struct {
	aliases normalizer.AliasTable
	now     func() time.Time
}

// NewExporter returns an Exporter dating filenames with the current UTC day.
func NewExporter(aliases normalizer.AliasTable) *Exporter {
	return &Exporter{
		aliases: aliases,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of e using now for filenames.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	c := *e
	c.now = now
	return &c
}

func parseFormat(kind, format string, supported []Format) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(format)))
	for _, s := range supported {
		if f == s {
			return f, nil
		}
	}
	names := make([]string, len(supported))
	for i, s := range supported {
		names[i] = string(s)
	}
	return "", &engineerror.UnsupportedFormatError{Kind: kind, Format: format, Supported: names}
}

// CheckCleanDataFormat returns an UnsupportedFormatError unless format is a
// clean data format. Callers check before doing work that has side effects.
func CheckCleanDataFormat(format string) error {
	_, err := parseFormat("clean data", format, CleanDataFormats)
	return err
}

// CheckAuditLogFormat is CheckCleanDataFormat for audit log exports.
func CheckAuditLogFormat(format string) error {
	_, err := parseFormat("audit", format, AuditLogFormats)
	return err
}

// CheckReconciliationFormat is CheckCleanDataFormat for reconciliation exports.
func CheckReconciliationFormat(format string) error {
	_, err := parseFormat("reconciliation", format, ReconciliationFormats)
	return err
}

// ExportCleanData filters out the transactions removed by log and renders the
// rest in format. A nil log removes nothing.
func (e *Exporter) ExportCleanData(txns []models.Transaction, log *models.AuditLog, format string) (*Payload, error) {
	f, err := parseFormat("clean data", format, CleanDataFormats)
	if err != nil {
		return nil, err
	}

	clean := audit.Clean(txns, log)
	day := dateutils.ToISODate(e.now())

	switch f {
	case FormatCSV, FormatXLSX, FormatPDF:
		records := make([]models.TransactionRecord, len(clean))
		rows := make([][]string, len(clean))
		for i, t := range clean {
			records[i] = models.NewTransactionRecord(t)
			rows[i] = transactionRow(records[i])
		}
		p := &Payload{
			Format:   f,
			Filename: "clean_transactions_" + day + "." + string(f),
			Headers:  TransactionHeaders,
			Data:     records,
			Rows:     rows,
		}
		if f == FormatPDF {
			summary := models.AuditSummary{}
			if log != nil {
				summary = log.Summary
			}
			p.Summary = &summary
		}
		return p, nil

	case FormatQBO:
		records := make([]QBORecord, len(clean))
		rows := make([][]string, len(clean))
		for i, t := range clean {
			records[i] = QBORecord{
				Date:        dateutils.ToUSDate(t.Date),
				Description: orDefault(t.Description, "Transaction"),
				Amount:      signedAmount(t),
				Category:    orDefault(t.Category, defaultCategory),
				Account:     qboAccount,
				Payee:       e.payee(t),
				Tax:         "Non",
			}
			rows[i] = qboRow(records[i])
		}
		return &Payload{Format: f, Filename: "clean_transactions_qbo_" + day + ".csv", Headers: QBOHeaders, Data: records, Rows: rows}, nil

	case FormatXero:
		records := make([]XeroRecord, len(clean))
		rows := make([][]string, len(clean))
		for i, t := range clean {
			records[i] = XeroRecord{
				Date:        dateutils.ToUSDate(t.Date),
				Amount:      t.Amount.Abs().StringFixed(2),
				Payee:       e.payee(t),
				Description: orDefault(t.Description, "Transaction"),
				Reference:   orDefault(t.BankReferenceID, t.CheckNumber),
				Code:        orDefault(t.Category, defaultXeroCode),
				TaxType:     "Tax Exempt",
				TaxAmount:   "0.00",
			}
			rows[i] = xeroRow(records[i])
		}
		return &Payload{Format: f, Filename: "clean_transactions_xero_" + day + ".csv", Headers: XeroHeaders, Data: records, Rows: rows}, nil

	case FormatGeneric:
		records := make([]GenericRecord, len(clean))
		rows := make([][]string, len(clean))
		for i, t := range clean {
			records[i] = GenericRecord{
				Date:        dateutils.ToISODate(t.Date),
				Description: t.Description,
				Amount:      t.Amount.StringFixed(2),
				Type:        string(t.Type),
				Category:    t.Category,
				Vendor:      e.payee(t),
				Status:      unreconciled,
			}
			rows[i] = genericRow(records[i])
		}
		return &Payload{Format: f, Filename: "clean_transactions_generic_" + day + ".csv", Headers: GenericHeaders, Data: records, Rows: rows}, nil

	default: // FormatIIF
		return &Payload{Format: f, Filename: "clean_transactions_" + day + ".iif", Data: clean, Lines: iifLines(clean)}, nil
	}
}

// ExportAuditLog renders an audit log as CSV rows (one per action) or as the
// log itself for JSON.
func (e *Exporter) ExportAuditLog(log *models.AuditLog, format string) (*Payload, error) {
	f, err := parseFormat("audit", format, AuditLogFormats)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = &models.AuditLog{}
	}

	if f == FormatJSON {
		return &Payload{Format: f, Filename: "audit_log_" + log.ID + ".json", Data: log}, nil
	}

	stamp := log.Timestamp.UTC().Format(time.RFC3339)
	records := make([]models.AuditRecord, len(log.Actions))
	rows := make([][]string, len(log.Actions))
	for i, a := range log.Actions {
		records[i] = models.AuditRecord{
			TxnID:      a.TxnID,
			Action:     string(a.Action),
			Reason:     a.Reason,
			Confidence: formatConfidence(a.Confidence),
			Timestamp:  stamp,
		}
		rows[i] = auditRow(records[i])
	}
	return &Payload{Format: f, Filename: "audit_log_" + log.ID + ".csv", Headers: AuditHeaders, Data: records, Rows: rows}, nil
}

// ExportReconciliation renders a reconciliation result, one row per bank
// transaction, or the full result for JSON.
func (e *Exporter) ExportReconciliation(result *models.ReconciliationResult, format string) (*Payload, error) {
	f, err := parseFormat("reconciliation", format, ReconciliationFormats)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &models.ReconciliationResult{}
	}

	day := dateutils.ToISODate(e.now())
	if f == FormatJSON {
		return &Payload{Format: f, Filename: "reconciliation_" + day + ".json", Data: result}, nil
	}

	records := make([]models.MatchRecord, len(result.Matches))
	rows := make([][]string, len(result.Matches))
	for i, m := range result.Matches {
		records[i] = NewMatchRecord(m)
		rows[i] = matchRow(records[i])
	}
	return &Payload{
		Format:   f,
		Filename: "reconciliation_" + day + "." + string(f),
		Headers:  MatchHeaders,
		Data:     records,
		Rows:     rows,
	}, nil
}

// payee is the alias-normalized description, used where accounting tools
// expect a counterparty name.
func (e *Exporter) payee(t models.Transaction) string {
	return normalizer.Normalize(t.Description, e.aliases)
}
