// Package dedupe implements the duplicate preview and apply commands.
package dedupe

import (
	"fmt"
	"path/filepath"
	"time"

	"fjacquet/txn-recon/cmd/common"
	"fjacquet/txn-recon/cmd/root"
	"fjacquet/txn-recon/internal/audit"
	internalcommon "fjacquet/txn-recon/internal/common"
	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/export"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/store"

	"github.com/spf13/cobra"
)

var (
	inputFile   string
	groupsFile  string
	keepFile    string
	autoKeep    bool
	cleanFormat string
	auditFormat string
)

// Cmd represents the dedupe command
var Cmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find and resolve duplicate transactions in a ledger",
	Long: `Find likely duplicate transactions in a ledger and record which to keep.

"preview" groups duplicates and writes them to a YAML file for review.
"apply" turns keep decisions into an append-only audit log.

Example:
  txn-recon dedupe preview -i ledger.csv -o review/
  txn-recon dedupe apply -i ledger.csv --groups review/duplicate_groups.yaml --keep keep.yaml`,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Group likely duplicates without changing anything",
	RunE:  previewFunc,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Record keep/remove decisions in an audit log",
	RunE:  applyFunc,
}

func init() {
	for _, c := range []*cobra.Command{previewCmd, applyCmd} {
		c.Flags().StringVarP(&inputFile, "input", "i", "", "Ledger CSV file")
	}
	previewCmd.Flags().StringVar(&groupsFile, "groups", "", "Where to write the groups (default <output>/duplicate_groups_<date>.yaml)")

	applyCmd.Flags().StringVar(&groupsFile, "groups", "", "Groups file written by preview (default: preview again)")
	applyCmd.Flags().StringVar(&keepFile, "keep", "", "Keep map file (keep: {group_id: txn_id})")
	applyCmd.Flags().BoolVar(&autoKeep, "auto", false, "Keep the suggested transaction of every group")
	applyCmd.Flags().StringVar(&cleanFormat, "format", "", "Also export the clean ledger (csv, xlsx, pdf, qbo, xero, generic, iif)")
	applyCmd.Flags().StringVar(&auditFormat, "audit-format", "", "Also export the audit log (csv, json)")

	Cmd.AddCommand(previewCmd, applyCmd)
}

func loadLedger() ([]models.Transaction, error) {
	if err := common.RequireInputFile("input", inputFile); err != nil {
		return nil, err
	}
	c, err := root.GetContainer()
	if err != nil {
		return nil, err
	}
	return internalcommon.ReadTransactionsFile(inputFile, c.GetConfig().Delimiter(), root.Log)
}

func previewFunc(cmd *cobra.Command, args []string) error {
	txns, err := loadLedger()
	if err != nil {
		return err
	}
	c, _ := root.GetContainer()

	groups, err := c.GetDeduper().Preview(txns)
	if err != nil {
		return err
	}

	path := groupsFile
	if path == "" {
		path = filepath.Join(root.SharedFlags.OutputDir, "duplicate_groups_"+dateutils.ToISODate(time.Now())+".yaml")
	}
	if err := store.SaveGroups(path, groups); err != nil {
		return err
	}

	definite, possible := countLabels(groups)
	root.Log.Info("Duplicate preview written",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(groups)),
		logging.F("definite", definite),
		logging.F("possible", possible))
	return nil
}

func countLabels(groups []models.DuplicateGroup) (definite, possible int) {
	for _, g := range groups {
		if g.Label == models.LabelDefinite {
			definite++
		} else {
			possible++
		}
	}
	return definite, possible
}

func applyFunc(cmd *cobra.Command, args []string) error {
	if err := checkFormats(); err != nil {
		return err
	}
	txns, err := loadLedger()
	if err != nil {
		return err
	}
	c, _ := root.GetContainer()

	var groups []models.DuplicateGroup
	if groupsFile != "" {
		groups, err = store.LoadGroups(groupsFile)
	} else {
		groups, err = c.GetDeduper().Preview(txns)
	}
	if err != nil {
		return err
	}

	keep, err := resolveKeepMap(groups, keepFile, autoKeep)
	if err != nil {
		return err
	}

	log, err := c.GetApplier().Apply(groups, keep)
	if err != nil {
		return err
	}
	if err := c.GetAuditRepository().Save(log); err != nil {
		return err
	}

	root.Log.Info("Audit log recorded",
		logging.F("audit_id", log.ID),
		logging.F("removed", log.Summary.RemovedCount),
		logging.F("processed", log.Summary.TotalProcessed))

	return exportResults(txns, log)
}

// resolveKeepMap picks keep decisions from a keep file, or from the grouper's
// suggestions when auto is set. Removal always needs one of the two: the
// auto_select_keep setting only fills in suggestions during preview.
func resolveKeepMap(groups []models.DuplicateGroup, path string, auto bool) (map[string]string, error) {
	if path != "" {
		return store.LoadKeepMap(path)
	}
	if auto {
		return audit.AutoKeepMap(groups), nil
	}
	return nil, fmt.Errorf("either --keep or --auto is required")
}

// checkFormats rejects unsupported export formats before an audit log is
// recorded, so a failed run leaves nothing behind.
func checkFormats() error {
	if cleanFormat != "" {
		if err := export.CheckCleanDataFormat(cleanFormat); err != nil {
			return err
		}
	}
	if auditFormat != "" {
		if err := export.CheckAuditLogFormat(auditFormat); err != nil {
			return err
		}
	}
	return nil
}

func exportResults(txns []models.Transaction, log *models.AuditLog) error {
	c, _ := root.GetContainer()
	delimiter := c.GetConfig().Delimiter()

	if cleanFormat != "" {
		p, err := c.GetExporter().ExportCleanData(txns, log, cleanFormat)
		if err != nil {
			return err
		}
		if _, err := common.WritePayload(root.SharedFlags.OutputDir, "", p, delimiter, root.Log); err != nil {
			return err
		}
	}
	if auditFormat != "" {
		p, err := c.GetExporter().ExportAuditLog(log, auditFormat)
		if err != nil {
			return err
		}
		if _, err := common.WritePayload(root.SharedFlags.OutputDir, "", p, delimiter, root.Log); err != nil {
			return err
		}
	}
	return nil
}
