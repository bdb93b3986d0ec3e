package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"fjacquet/txn-recon/internal/engineerror"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var exportDay = time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)

func newTestExporter() *Exporter {
	return NewExporter(normalizer.DefaultAliases()).WithClock(func() time.Time { return exportDay })
}

func fixtures() ([]models.Transaction, *models.AuditLog) {
	txns := []models.Transaction{
		models.NewTransactionBuilder().WithID("t1").WithDate("2024-01-15").WithAmount("2500").
			WithType(models.TypeIncome).WithDescription("Client Payment - ABC Corp").WithCategory("Sales").MustBuild(),
		models.NewTransactionBuilder().WithID("t2").WithDate("2024-01-15").WithAmount("2500").
			WithType(models.TypeIncome).WithDescription("Client Payment - ABC Corp").MustBuild(),
		models.NewTransactionBuilder().WithID("t3").WithDate("2024-01-20").WithAmount("-42.5").
			WithType(models.TypeExpense).WithDescription("AMAZON MKTP US, order").WithCheckNumber("1001").MustBuild(),
	}
	log := &models.AuditLog{
		ID:        "a1",
		Timestamp: time.Date(2024, 5, 31, 10, 0, 0, 0, time.UTC),
		Actions: []models.AuditAction{
			{TxnID: "t1", Action: models.ActionKeep, Reason: "definite duplicate (confidence: 0.95)", Confidence: 0.95},
			{TxnID: "t2", Action: models.ActionRemove, Reason: "definite duplicate (confidence: 0.95)", Confidence: 0.95},
		},
		Summary: models.AuditSummary{TotalProcessed: 2, DefiniteDuplicates: 2, RemovedCount: 1},
	}
	return txns, log
}

func TestExportCleanData_CSV(t *testing.T) {
	txns, log := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, log, "csv")
	require.NoError(t, err)

	assert.Equal(t, "clean_transactions_2024-06-01.csv", p.Filename)
	assert.Equal(t, TransactionHeaders, p.Headers)
	assert.Nil(t, p.Summary)
	records := p.Data.([]models.TransactionRecord)
	require.Len(t, records, 2)
	assert.Equal(t, "t1", records[0].ID)
	assert.Equal(t, "t3", records[1].ID)
	require.Len(t, p.Rows, 2)
	assert.Len(t, p.Rows[0], len(TransactionHeaders))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, ';'))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(TransactionHeaders, ";"), lines[0])
	assert.Equal(t, "t3;2024-01-20;-42.50;expense;AMAZON MKTP US, order;;;1001;", lines[2])
}

func TestExportCleanData_NilLogKeepsEverything(t *testing.T) {
	txns, _ := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, nil, "CSV")
	require.NoError(t, err)
	assert.Len(t, p.Data.([]models.TransactionRecord), 3)
}

func TestExportCleanData_PDFCarriesSummary(t *testing.T) {
	txns, log := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, log, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "clean_transactions_2024-06-01.pdf", p.Filename)
	require.NotNil(t, p.Summary)
	assert.Equal(t, 1, p.Summary.RemovedCount)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, ','))
	assert.Contains(t, buf.String(), `"removed_count": 1`)
	assert.Contains(t, buf.String(), `"filename": "clean_transactions_2024-06-01.pdf"`)
}

func TestExportCleanData_XLSX(t *testing.T) {
	txns, log := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, log, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "clean_transactions_2024-06-01.xlsx", p.Filename)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, ','))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(dataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "t3", rows[2][0])
	assert.Equal(t, "-42.5", rows[2][2])
	assert.NotContains(t, f.GetSheetList(), "Sheet1")
}

func TestExportCleanData_QuickBooksOnline(t *testing.T) {
	txns, log := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, log, "qbo")
	require.NoError(t, err)
	assert.Equal(t, "clean_transactions_qbo_2024-06-01.csv", p.Filename)

	records := p.Data.([]QBORecord)
	require.Len(t, records, 2)
	assert.Equal(t, QBORecord{
		Date: "01/15/2024", Description: "Client Payment - ABC Corp", Amount: "2500.00",
		Category: "Sales", Account: "Checking", Payee: "client payment abc", Tax: "Non",
	}, records[0])
	assert.Equal(t, "-42.50", records[1].Amount)
	assert.Equal(t, "Uncategorized", records[1].Category)
	assert.Equal(t, "amazon us order", records[1].Payee)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, p, ','))
	assert.True(t, strings.HasPrefix(buf.String(), "Date,Description,Amount,Category,Account,Payee,Tax\n"))
	assert.Contains(t, buf.String(), `"AMAZON MKTP US, order"`)
}

func TestExportCleanData_Xero(t *testing.T) {
	txns, log := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, log, "xero")
	require.NoError(t, err)

	records := p.Data.([]XeroRecord)
	require.Len(t, records, 2)
	assert.Equal(t, "42.50", records[1].Amount)
	assert.Equal(t, "1001", records[1].Reference)
	assert.Equal(t, "200", records[1].Code)
	assert.Equal(t, "Sales", records[0].Code)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, p, ','))
	assert.True(t, strings.HasPrefix(buf.String(), "*Date,*Amount,Payee,Description,Reference,*Code,Tax Type,Tax Amount\n"))
}

func TestExportCleanData_Generic(t *testing.T) {
	txns, _ := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, nil, "generic")
	require.NoError(t, err)

	records := p.Data.([]GenericRecord)
	require.Len(t, records, 3)
	assert.Equal(t, GenericRecord{
		Date: "2024-01-20", Description: "AMAZON MKTP US, order", Amount: "-42.50",
		Type: "expense", Vendor: "amazon us order", Status: "Unreconciled",
	}, records[2])
	assert.Equal(t, GenericHeaders, p.Headers)
}

func TestExportCleanData_IIF(t *testing.T) {
	txns, log := fixtures()
	p, err := newTestExporter().ExportCleanData(txns, log, "iif")
	require.NoError(t, err)
	assert.Equal(t, "clean_transactions_2024-06-01.iif", p.Filename)
	require.Len(t, p.Lines, 3+2*3)

	assert.True(t, strings.HasPrefix(p.Lines[0], "!TRNS\tTRNSID"))
	assert.Equal(t, "!ENDTRNS", p.Lines[2])

	deposit := strings.Split(p.Lines[3], "\t")
	assert.Equal(t, []string{"TRNS", "0", "DEPOSIT", "01/15/2024", "Checking", "", "", "2500.00"}, deposit[:8])
	split := strings.Split(p.Lines[4], "\t")
	assert.Equal(t, "Sales", split[4])
	assert.Equal(t, "-2500.00", split[7])
	assert.Equal(t, "ENDTRNS", p.Lines[5])

	check := strings.Split(p.Lines[6], "\t")
	assert.Equal(t, "CHECK", check[2])
	assert.Equal(t, "-42.50", check[7])
	assert.Equal(t, "1001", check[8])
	assert.Equal(t, "42.50", strings.Split(p.Lines[7], "\t")[7])

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, ','))
	assert.Equal(t, 9, strings.Count(buf.String(), "\r\n"))
}

func TestExportCleanData_UnsupportedFormat(t *testing.T) {
	txns, log := fixtures()
	_, err := newTestExporter().ExportCleanData(txns, log, "docx")

	var fmtErr *engineerror.UnsupportedFormatError
	require.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, "docx", fmtErr.Format)
	assert.Contains(t, fmtErr.Supported, "iif")

	_, err = newTestExporter().ExportCleanData(txns, log, "json")
	assert.True(t, errors.As(err, &fmtErr))
}

func TestCheckFormats(t *testing.T) {
	assert.NoError(t, CheckCleanDataFormat("IIF"))
	assert.NoError(t, CheckAuditLogFormat("json"))
	assert.NoError(t, CheckReconciliationFormat("xlsx"))

	var fmtErr *engineerror.UnsupportedFormatError
	require.True(t, errors.As(CheckCleanDataFormat("bogus"), &fmtErr))
	assert.Equal(t, "clean data", fmtErr.Kind)
	require.True(t, errors.As(CheckAuditLogFormat("pdf"), &fmtErr))
	assert.Equal(t, "audit", fmtErr.Kind)
	require.True(t, errors.As(CheckReconciliationFormat("iif"), &fmtErr))
	assert.Equal(t, "reconciliation", fmtErr.Kind)
}

func TestExportAuditLog(t *testing.T) {
	_, log := fixtures()
	e := newTestExporter()

	p, err := e.ExportAuditLog(log, "csv")
	require.NoError(t, err)
	assert.Equal(t, "audit_log_a1.csv", p.Filename)
	assert.Equal(t, AuditHeaders, p.Headers)
	records := p.Data.([]models.AuditRecord)
	require.Len(t, records, 2)
	assert.Equal(t, models.AuditRecord{
		TxnID: "t2", Action: "remove", Reason: "definite duplicate (confidence: 0.95)",
		Confidence: "0.95", Timestamp: "2024-05-31T10:00:00Z",
	}, records[1])

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p, ','))
	assert.True(t, strings.HasPrefix(buf.String(), "txn_id,action,reason,confidence,timestamp\n"))

	p, err = e.ExportAuditLog(log, "json")
	require.NoError(t, err)
	assert.Equal(t, "audit_log_a1.json", p.Filename)
	assert.Same(t, log, p.Data)

	buf.Reset()
	require.NoError(t, Write(&buf, p, ','))
	assert.Contains(t, buf.String(), `"txn_id": "t2"`)

	_, err = e.ExportAuditLog(log, "xlsx")
	var fmtErr *engineerror.UnsupportedFormatError
	assert.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, "audit", fmtErr.Kind)
}

func TestExportReconciliation(t *testing.T) {
	bank := models.NewTransactionBuilder().WithID("b1").WithDate("2024-03-01").WithAmount("847.50").
		WithType(models.TypeDebit).WithDescription("Office Supplies").MustBuild()
	book := bank
	book.ID = "k1"
	diff := decimal.Zero
	result := &models.ReconciliationResult{
		Matches: []models.ReconciliationMatch{
			{ID: "exact-b1-k1", BankTransaction: bank, BookTransaction: &book, MatchType: models.MatchExact, Confidence: 0.98, Difference: &diff},
			{ID: "unmatched-bank-b2", BankTransaction: bank, MatchType: models.MatchUnmatched, Notes: "No matching book transaction found"},
		},
	}

	p, err := newTestExporter().ExportReconciliation(result, "csv")
	require.NoError(t, err)
	assert.Equal(t, "reconciliation_2024-06-01.csv", p.Filename)
	records := p.Data.([]models.MatchRecord)
	require.Len(t, records, 2)
	assert.Equal(t, "0.9800", records[0].Confidence)
	assert.Equal(t, "k1", records[0].BookID)
	assert.Equal(t, "0.00", records[0].Difference)
	assert.Empty(t, records[1].BookID)
	assert.Empty(t, records[1].Difference)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, p))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(dataSheet)
	require.NoError(t, err)
	assert.Equal(t, MatchHeaders, rows[0])
}
