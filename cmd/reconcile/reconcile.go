// Package reconcile implements the two-ledger reconciliation command.
package reconcile

import (
	"fjacquet/txn-recon/cmd/common"
	"fjacquet/txn-recon/cmd/root"
	internalcommon "fjacquet/txn-recon/internal/common"
	"fjacquet/txn-recon/internal/export"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/reconcile"

	"github.com/spf13/cobra"
)

var (
	bankFile    string
	bookFile    string
	format      string
	suggestions int
)

// Cmd represents the reconcile command
var Cmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match a bank ledger against a books ledger",
	Long: `Match every bank transaction to at most one book transaction.

Matches on bank reference or check number come first, then exact amount
matches within the date window, then fuzzy matches scored on amount, date
and description. The result is exported to the output directory.

Example:
  txn-recon reconcile --bank bank.csv --book books.csv --format xlsx -o out/`,
	RunE: reconcileFunc,
}

func init() {
	Cmd.Flags().StringVar(&bankFile, "bank", "", "Bank ledger CSV file")
	Cmd.Flags().StringVar(&bookFile, "book", "", "Books ledger CSV file")
	Cmd.Flags().StringVar(&format, "format", "csv", "Output format (csv, xlsx, json)")
	Cmd.Flags().IntVar(&suggestions, "suggest", 0, "Log up to N candidate matches for each unmatched bank transaction")
}

func reconcileFunc(cmd *cobra.Command, args []string) error {
	if err := export.CheckReconciliationFormat(format); err != nil {
		return err
	}
	if err := common.RequireInputFile("bank", bankFile); err != nil {
		return err
	}
	if err := common.RequireInputFile("book", bookFile); err != nil {
		return err
	}
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	delimiter := c.GetConfig().Delimiter()

	bank, err := internalcommon.ReadTransactionsFile(bankFile, delimiter, root.Log)
	if err != nil {
		return err
	}
	book, err := internalcommon.ReadTransactionsFile(bookFile, delimiter, root.Log)
	if err != nil {
		return err
	}

	result, err := c.GetMatcher().Reconcile(bank, book)
	if err != nil {
		return err
	}
	LogSummary(root.Log, reconcile.Summarize(result))

	if suggestions > 0 {
		logSuggestions(c.GetMatcher(), result)
	}

	p, err := c.GetExporter().ExportReconciliation(result, format)
	if err != nil {
		return err
	}
	_, err = common.WritePayload(root.SharedFlags.OutputDir, "", p, delimiter, root.Log)
	return err
}

// LogSummary reports reconciliation statistics.
func LogSummary(logger logging.Logger, s reconcile.Summary) {
	logger.Info("Reconciliation completed",
		logging.F("bank_total", s.BankTotal),
		logging.F("exact", s.Exact),
		logging.F("fuzzy", s.Fuzzy),
		logging.F("needs_review", s.NeedsReview),
		logging.F("unmatched_bank", s.UnmatchedBank),
		logging.F("unmatched_book", s.UnmatchedBook),
		logging.F("match_rate", s.MatchRate))
}

func logSuggestions(m *reconcile.Matcher, result *models.ReconciliationResult) {
	for _, bank := range result.UnmatchedBank {
		for _, s := range m.SuggestMatches(bank, result.UnmatchedBook, suggestions) {
			root.Log.Info("Candidate match",
				logging.F(logging.FieldTransactionID, bank.ID),
				logging.F("book_id", s.Book.ID),
				logging.F("score", s.Score),
				logging.F("reason", s.Reason))
		}
	}
}
