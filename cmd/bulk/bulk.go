// Package bulk implements multi-client reconciliation.
package bulk

import (
	"fmt"
	"path/filepath"
	"time"

	"fjacquet/txn-recon/cmd/common"
	"fjacquet/txn-recon/cmd/root"
	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/export"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/reconcile"
	"fjacquet/txn-recon/internal/store"
	"fjacquet/txn-recon/internal/validation"

	"github.com/spf13/cobra"
)

var (
	inputDir     string
	manifestFile string
	format       string
)

// Cmd represents the bulk command
var Cmd = &cobra.Command{
	Use:   "bulk",
	Short: "Reconcile many clients at once",
	Long: `Reconcile the ledgers of many clients concurrently.

Clients come either from a directory of files named {client}_bank*.csv and
{client}_book*.csv, or from a YAML manifest:

  clients:
    - client_id: acme
      client_name: ACME Corp
      bank_file: acme/bank.csv
      book_file: acme/books.csv

Each client's result is exported as {client}_reconciliation_<date>.<format>
and a bulk summary is written next to them.

Example:
  txn-recon bulk -d ledgers/ -o out/
  txn-recon bulk --manifest clients.yaml --format xlsx -o out/`,
	RunE: bulkFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputDir, "dir", "d", "", "Directory of client ledger files")
	Cmd.Flags().StringVar(&manifestFile, "manifest", "", "Manifest listing client ledgers")
	Cmd.Flags().StringVar(&format, "format", "csv", "Per-client output format (csv, xlsx, json)")
}

func bulkFunc(cmd *cobra.Command, args []string) error {
	if err := export.CheckReconciliationFormat(format); err != nil {
		return err
	}
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	agg := c.GetAggregator()

	var requests []reconcile.JobRequest
	switch {
	case manifestFile != "" && inputDir != "":
		return fmt.Errorf("--dir and --manifest are mutually exclusive")
	case manifestFile != "":
		if err := common.RequireInputFile("manifest", manifestFile); err != nil {
			return err
		}
		entries, err := store.LoadManifest(manifestFile)
		if err != nil {
			return err
		}
		requests, err = agg.JobsFromManifest(entries)
		if err != nil {
			return err
		}
	case inputDir != "":
		if err := validation.IsValidDirectory(inputDir); err != nil {
			return err
		}
		groups, err := agg.DiscoverDirectory(inputDir)
		if err != nil {
			return err
		}
		requests, err = agg.BuildJobs(groups)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("either --dir or --manifest is required")
	}

	if len(requests) == 0 {
		root.Log.Warn("No client ledgers to reconcile")
		return nil
	}

	result, procErr := c.GetBulkEngine().Process(cmd.Context(), requests)
	if result != nil {
		if err := writeResults(result); err != nil {
			return err
		}
	}
	return procErr
}

func writeResults(result *reconcile.BulkResult) error {
	c, _ := root.GetContainer()
	out := root.SharedFlags.OutputDir

	for _, job := range result.Jobs {
		if job.Status != reconcile.JobCompleted {
			root.Log.Warn("Client reconciliation failed",
				logging.F(logging.FieldClient, job.ClientID),
				logging.F(logging.FieldJobID, job.ID),
				logging.F("errors", job.Errors))
			continue
		}
		p, err := c.GetExporter().ExportReconciliation(job.Result, format)
		if err != nil {
			return err
		}
		if _, err := common.WritePayload(out, job.ClientID, p, c.GetConfig().Delimiter(), root.Log); err != nil {
			return err
		}
	}

	path := filepath.Join(out, "bulk_summary_"+dateutils.ToISODate(time.Now())+".json")
	if err := common.WriteDocument(path, summarize(result)); err != nil {
		return err
	}
	root.Log.Info("Bulk summary written",
		logging.F(logging.FieldFile, path),
		logging.F("completed", result.CompletedJobs),
		logging.F(logging.FieldCount, result.TotalJobs))
	return nil
}

// jobSummary is the per-client line of the bulk summary; full results go to
// the per-client exports.
type jobSummary struct {
	ID         string              `json:"id"`
	ClientID   string              `json:"client_id"`
	ClientName string              `json:"client_name"`
	Status     reconcile.JobStatus `json:"status"`
	Summary    reconcile.Summary   `json:"summary"`
	Errors     []string            `json:"errors,omitempty"`
	DurationMS int64               `json:"duration_ms"`
}

type bulkSummary struct {
	TotalJobs        int          `json:"total_jobs"`
	CompletedJobs    int          `json:"completed_jobs"`
	TotalMatches     int          `json:"total_matches"`
	TotalUnmatched   int          `json:"total_unmatched"`
	ProcessingTimeMS int64        `json:"processing_time_ms"`
	Jobs             []jobSummary `json:"jobs"`
}

func summarize(r *reconcile.BulkResult) bulkSummary {
	s := bulkSummary{
		TotalJobs:        r.TotalJobs,
		CompletedJobs:    r.CompletedJobs,
		TotalMatches:     r.TotalMatches,
		TotalUnmatched:   r.TotalUnmatched,
		ProcessingTimeMS: r.ProcessingTime.Milliseconds(),
		Jobs:             make([]jobSummary, len(r.Jobs)),
	}
	for i, j := range r.Jobs {
		js := jobSummary{
			ID:         j.ID,
			ClientID:   j.ClientID,
			ClientName: j.ClientName,
			Status:     j.Status,
			Summary:    j.Summary,
			Errors:     j.Errors,
		}
		if j.StartTime != nil && j.EndTime != nil {
			js.DurationMS = j.EndTime.Sub(*j.StartTime).Milliseconds()
		}
		s.Jobs[i] = js
	}
	return s
}
