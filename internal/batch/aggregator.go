// Package batch turns directories of per-client ledger files into bulk
// reconciliation jobs.
package batch

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"fjacquet/txn-recon/internal/common"
	"fjacquet/txn-recon/internal/dedupe"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/reconcile"
	"fjacquet/txn-recon/internal/store"
)

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format("2006-01-02"),
		dr.End.Format("2006-01-02"))
}

// CalculateDateRange returns the span of dates covered by txns.
func CalculateDateRange(txns []models.Transaction) DateRange {
	if len(txns) == 0 {
		return DateRange{}
	}
	start, end := txns[0].Date, txns[0].Date
	for _, tx := range txns[1:] {
		if tx.Date.Before(start) {
			start = tx.Date
		}
		if tx.Date.After(end) {
			end = tx.Date
		}
	}
	return DateRange{Start: start, End: end}
}

// ClientLedgers lists the files holding one client's two ledgers.
type ClientLedgers struct {
	ClientID  string
	BankFiles []string
	BookFiles []string
}

// Complete reports whether both sides have at least one file.
func (c ClientLedgers) Complete() bool {
	return len(c.BankFiles) > 0 && len(c.BookFiles) > 0
}

// Aggregator loads client ledgers and assembles reconciliation jobs.
type Aggregator struct {
	delimiter rune
	deduper   *dedupe.Deduper
	logger    logging.Logger
}

// NewAggregator creates an Aggregator. deduper may be nil, in which case
// merged ledgers are not screened for duplicates.
func NewAggregator(delimiter rune, deduper *dedupe.Deduper, logger logging.Logger) *Aggregator {
	if delimiter == 0 {
		delimiter = common.DefaultDelimiter
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{delimiter: delimiter, deduper: deduper, logger: logger}
}

// GroupFilesByClient groups ledger files by the client named in the file
// name. Files that do not follow the naming pattern are ignored. Groups are
// sorted by client id and files within a side by path.
func (a *Aggregator) GroupFilesByClient(files []string) []ClientLedgers {
	byClient := make(map[string]*ClientLedgers)

	for _, file := range files {
		cf, ok := common.ParseClientFile(file)
		if !ok {
			a.logger.Debug("Skipping file without client ledger name",
				logging.F(logging.FieldFile, filepath.Base(file)))
			continue
		}

		group, exists := byClient[cf.ClientID]
		if !exists {
			group = &ClientLedgers{ClientID: cf.ClientID}
			byClient[cf.ClientID] = group
		}
		if cf.Side == common.SideBank {
			group.BankFiles = append(group.BankFiles, file)
		} else {
			group.BookFiles = append(group.BookFiles, file)
		}
	}

	groups := make([]ClientLedgers, 0, len(byClient))
	for _, g := range byClient {
		sort.Strings(g.BankFiles)
		sort.Strings(g.BookFiles)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].ClientID < groups[j].ClientID
	})

	a.logger.Info("Grouped files by client",
		logging.F("total_files", len(files)),
		logging.F("clients", len(groups)))
	return groups
}

// DiscoverDirectory groups the CSV files of dir by client.
func (a *Aggregator) DiscoverDirectory(dir string) ([]ClientLedgers, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", dir, err)
	}
	return a.GroupFilesByClient(files), nil
}

// AggregateTransactions loads and merges the given files of one ledger.
// Records repeated across files under the same id are kept once, as
// overlapping statement exports repeat them. The merged ledger is sorted
// chronologically.
func (a *Aggregator) AggregateTransactions(clientID string, files []string) ([]models.Transaction, error) {
	var all []models.Transaction
	seen := make(map[string]string)

	for _, file := range files {
		txns, err := common.ReadTransactionsFile(file, a.delimiter, a.logger)
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", clientID, err)
		}
		for _, tx := range txns {
			if first, dup := seen[tx.ID]; dup {
				a.logger.Warn("Transaction repeated across files, keeping first",
					logging.F(logging.FieldClient, clientID),
					logging.F(logging.FieldTransactionID, tx.ID),
					logging.F(logging.FieldFile, filepath.Base(file)),
					logging.F("first_file", filepath.Base(first)))
				continue
			}
			seen[tx.ID] = file
			all = append(all, tx)
		}
	}

	sortChronologically(all)
	a.detectAndLogDuplicates(clientID, all)

	a.logger.Info("Aggregated transactions for client",
		logging.F(logging.FieldClient, clientID),
		logging.F(logging.FieldCount, len(all)),
		logging.F("file_count", len(files)),
		logging.F("date_range", CalculateDateRange(all).String()))
	return all, nil
}

func sortChronologically(txns []models.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})
}

// detectAndLogDuplicates warns about duplicate groups in a merged ledger.
// Nothing is removed: deduplication stays a separate reviewed step.
func (a *Aggregator) detectAndLogDuplicates(clientID string, txns []models.Transaction) {
	if a.deduper == nil || len(txns) < 2 {
		return
	}
	groups, err := a.deduper.Preview(txns)
	if err != nil {
		a.logger.Warn("Duplicate screening failed",
			logging.F(logging.FieldClient, clientID),
			logging.F("error", err))
		return
	}
	definite := 0
	for _, g := range groups {
		if g.Label == models.LabelDefinite {
			definite++
		}
	}
	if len(groups) > 0 {
		a.logger.Warn("Found potential duplicate transactions",
			logging.F(logging.FieldClient, clientID),
			logging.F(logging.FieldCount, len(groups)),
			logging.F("definite", definite))
	}
}

// BuildJobs loads every complete client group into a job request. Clients
// missing one side are skipped with a warning.
func (a *Aggregator) BuildJobs(groups []ClientLedgers) ([]reconcile.JobRequest, error) {
	jobs := make([]reconcile.JobRequest, 0, len(groups))
	for _, g := range groups {
		if !g.Complete() {
			a.logger.Warn("Skipping client without both ledgers",
				logging.F(logging.FieldClient, g.ClientID),
				logging.F("bank_files", len(g.BankFiles)),
				logging.F("book_files", len(g.BookFiles)))
			continue
		}
		job, err := a.buildJob(g.ClientID, g.ClientID, g.BankFiles, g.BookFiles)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// JobsFromManifest loads the ledgers listed in a bulk manifest.
func (a *Aggregator) JobsFromManifest(entries []store.ManifestEntry) ([]reconcile.JobRequest, error) {
	jobs := make([]reconcile.JobRequest, 0, len(entries))
	for _, e := range entries {
		job, err := a.buildJob(e.ClientID, e.ClientName, []string{e.BankFile}, []string{e.BookFile})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (a *Aggregator) buildJob(clientID, clientName string, bankFiles, bookFiles []string) (reconcile.JobRequest, error) {
	bank, err := a.AggregateTransactions(clientID, bankFiles)
	if err != nil {
		return reconcile.JobRequest{}, err
	}
	book, err := a.AggregateTransactions(clientID, bookFiles)
	if err != nil {
		return reconcile.JobRequest{}, err
	}
	return reconcile.JobRequest{
		ClientID:         clientID,
		ClientName:       clientName,
		BankTransactions: bank,
		BookTransactions: book,
	}, nil
}
