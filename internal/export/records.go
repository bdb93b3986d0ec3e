package export

import (
	"strconv"
	"strings"

	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/models"
)

// QBORecord is a row of the QuickBooks Online bank import CSV.
type QBORecord struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
	Account     string `csv:"Account"`
	Payee       string `csv:"Payee"`
	Tax         string `csv:"Tax"`
}

// XeroRecord is a row of the Xero bank statement import CSV. Starred columns
// are mandatory for Xero.
type XeroRecord struct {
	Date        string `csv:"*Date"`
	Amount      string `csv:"*Amount"`
	Payee       string `csv:"Payee"`
	Description string `csv:"Description"`
	Reference   string `csv:"Reference"`
	Code        string `csv:"*Code"`
	TaxType     string `csv:"Tax Type"`
	TaxAmount   string `csv:"Tax Amount"`
}

// GenericRecord is a row of the accounting-neutral CSV.
type GenericRecord struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Type        string `csv:"Type"`
	Category    string `csv:"Category"`
	Vendor      string `csv:"Vendor"`
	Status      string `csv:"Status"`
}

// Column headers, in record field order.
var (
	TransactionHeaders = []string{"id", "date", "amount", "type", "description", "category", "bank_reference_id", "check_number", "created_at"}
	AuditHeaders       = []string{"txn_id", "action", "reason", "confidence", "timestamp"}
	QBOHeaders         = []string{"Date", "Description", "Amount", "Category", "Account", "Payee", "Tax"}
	XeroHeaders        = []string{"*Date", "*Amount", "Payee", "Description", "Reference", "*Code", "Tax Type", "Tax Amount"}
	GenericHeaders     = []string{"Date", "Description", "Amount", "Type", "Category", "Vendor", "Status"}
	MatchHeaders       = []string{"match_id", "match_type", "confidence", "bank_id", "bank_date", "bank_amount", "bank_description", "book_id", "book_date", "book_amount", "book_description", "difference", "notes"}
)

const (
	defaultCategory = "Uncategorized"
	defaultXeroCode = "200"
	qboAccount      = "Checking"
	unreconciled    = "Unreconciled"
)

func transactionRow(r models.TransactionRecord) []string {
	return []string{r.ID, r.Date, r.Amount, r.Type, r.Description, r.Category, r.BankReferenceID, r.CheckNumber, r.CreatedAt}
}

func auditRow(r models.AuditRecord) []string {
	return []string{r.TxnID, r.Action, r.Reason, r.Confidence, r.Timestamp}
}

func qboRow(r QBORecord) []string {
	return []string{r.Date, r.Description, r.Amount, r.Category, r.Account, r.Payee, r.Tax}
}

func xeroRow(r XeroRecord) []string {
	return []string{r.Date, r.Amount, r.Payee, r.Description, r.Reference, r.Code, r.TaxType, r.TaxAmount}
}

func genericRow(r GenericRecord) []string {
	return []string{r.Date, r.Description, r.Amount, r.Type, r.Category, r.Vendor, r.Status}
}

func matchRow(r models.MatchRecord) []string {
	return []string{r.ID, r.MatchType, r.Confidence, r.BankID, r.BankDate, r.BankAmount, r.BankDescription, r.BookID, r.BookDate, r.BookAmount, r.BookDescription, r.Difference, r.Notes}
}

// signedAmount is negative for outflows whatever the sign in the source.
func signedAmount(t models.Transaction) string {
	amount := t.Amount.Abs()
	if t.Type.IsOutflow() || t.Amount.IsNegative() {
		amount = amount.Neg()
	}
	return amount.StringFixed(2)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

// NewMatchRecord flattens a reconciliation match for tabular output.
func NewMatchRecord(m models.ReconciliationMatch) models.MatchRecord {
	rec := models.MatchRecord{
		ID:              m.ID,
		MatchType:       string(m.MatchType),
		Confidence:      strconv.FormatFloat(m.Confidence, 'f', 4, 64),
		BankID:          m.BankTransaction.ID,
		BankDate:        dateutils.ToISODate(m.BankTransaction.Date),
		BankAmount:      m.BankTransaction.Amount.StringFixed(2),
		BankDescription: m.BankTransaction.Description,
		Notes:           m.Notes,
	}
	if m.BookTransaction != nil {
		rec.BookID = m.BookTransaction.ID
		rec.BookDate = dateutils.ToISODate(m.BookTransaction.Date)
		rec.BookAmount = m.BookTransaction.Amount.StringFixed(2)
		rec.BookDescription = m.BookTransaction.Description
	}
	if m.Difference != nil {
		rec.Difference = m.Difference.StringFixed(2)
	}
	return rec
}
