// Package export implements the export commands for clean ledgers and audit
// logs.
package export

import (
	"fmt"
	"strings"

	"fjacquet/txn-recon/cmd/common"
	"fjacquet/txn-recon/cmd/root"
	"fjacquet/txn-recon/internal/audit"
	internalcommon "fjacquet/txn-recon/internal/common"
	internalexport "fjacquet/txn-recon/internal/export"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"

	"github.com/spf13/cobra"
)

var (
	inputFile string
	auditIDs  []string
	format    string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export clean ledgers and audit logs",
	Long: `Export a ledger with removed duplicates filtered out, or export an audit log.

Removals come from the audit logs named with --audit. Stored logs may belong
to other ledgers, so "clean" never falls back to all of them.

Example:
  txn-recon export clean -i ledger.csv --audit 3f2c... --format qbo -o out/
  txn-recon export audit --audit 3f2c... --format json -o out/`,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Export the ledger without removed duplicates",
	RunE:  cleanFunc,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Export audit logs",
	RunE:  auditFunc,
}

func init() {
	cleanCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Ledger CSV file")
	cleanCmd.Flags().StringSliceVar(&auditIDs, "audit", nil, "Audit log ids recorded for this ledger (required)")
	cleanCmd.Flags().StringVar(&format, "format", "csv", "Output format (csv, xlsx, pdf, qbo, xero, generic, iif)")

	auditCmd.Flags().StringSliceVar(&auditIDs, "audit", nil, "Audit log ids to export (default: all stored logs)")
	auditCmd.Flags().StringVar(&format, "format", "csv", "Output format (csv, json)")

	Cmd.AddCommand(cleanCmd, auditCmd)
}

func cleanFunc(cmd *cobra.Command, args []string) error {
	if err := common.RequireInputFile("input", inputFile); err != nil {
		return err
	}
	if err := requireAuditIDs(auditIDs); err != nil {
		return err
	}
	if err := internalexport.CheckCleanDataFormat(format); err != nil {
		return err
	}
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	delimiter := c.GetConfig().Delimiter()

	txns, err := internalcommon.ReadTransactionsFile(inputFile, delimiter, root.Log)
	if err != nil {
		return err
	}
	logs, err := common.LoadAuditLogs(c.GetAuditRepository(), auditIDs)
	if err != nil {
		return err
	}

	p, err := c.GetExporter().ExportCleanData(txns, mergeLogs(logs), format)
	if err != nil {
		return err
	}
	_, err = common.WritePayload(root.SharedFlags.OutputDir, "", p, delimiter, root.Log)
	return err
}

func requireAuditIDs(ids []string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			return nil
		}
	}
	return fmt.Errorf("--audit is required: name the audit logs recorded for this ledger")
}

// mergeLogs folds several audit logs into one view for export. The merged
// log is never persisted.
func mergeLogs(logs []*models.AuditLog) *models.AuditLog {
	switch len(logs) {
	case 0:
		return nil
	case 1:
		return logs[0]
	}
	merged := &models.AuditLog{ID: "merged", Timestamp: logs[len(logs)-1].Timestamp}
	for _, l := range logs {
		merged.Actions = append(merged.Actions, l.Actions...)
		merged.Summary.TotalProcessed += l.Summary.TotalProcessed
		merged.Summary.DefiniteDuplicates += l.Summary.DefiniteDuplicates
		merged.Summary.PossibleDuplicates += l.Summary.PossibleDuplicates
	}
	merged.Summary.RemovedCount = len(audit.RemovedIDs(logs...))
	return merged
}

func auditFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	logs, err := common.LoadAuditLogs(c.GetAuditRepository(), auditIDs)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return fmt.Errorf("no audit logs found in %s", c.GetConfig().Audit.Directory)
	}

	for _, l := range logs {
		p, err := c.GetExporter().ExportAuditLog(l, format)
		if err != nil {
			return err
		}
		if _, err := common.WritePayload(root.SharedFlags.OutputDir, "", p, c.GetConfig().Delimiter(), root.Log); err != nil {
			return err
		}
	}
	root.Log.Info("Audit logs exported", logging.F(logging.FieldCount, len(logs)))
	return nil
}
