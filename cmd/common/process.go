// Package common contains shared functionality for command handlers
package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/txn-recon/internal/export"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/store"
	"fjacquet/txn-recon/internal/validation"

	"gopkg.in/yaml.v3"
)

// WritePayload writes p into dir under its own file name, prefixed with
// prefix when given, and returns the path written.
func WritePayload(dir, prefix string, p *export.Payload, delimiter rune, logger logging.Logger) (string, error) {
	if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}

	name := p.Filename
	if prefix != "" {
		name = prefix + "_" + name
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path) // #nosec G304 -- output directory chosen by the user
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", path, err)
	}
	if err := export.Write(f, p, delimiter); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("error closing %s: %w", path, err)
	}

	logger.Info("Export written",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldFormat, string(p.Format)))
	return path, nil
}

// WriteDocument writes v as JSON when path ends in .json and as YAML
// otherwise.
func WriteDocument(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", path, err)
	}
	return os.WriteFile(path, data, models.PermissionReportFile)
}

// RequireInputFile fails unless path names a readable regular file.
func RequireInputFile(flag, path string) error {
	if path == "" {
		return fmt.Errorf("--%s is required", flag)
	}
	if err := validation.IsValidFile(path); err != nil {
		return fmt.Errorf("--%s: %w", flag, err)
	}
	return nil
}

// LoadAuditLogs returns the audit logs named by ids, or every stored log
// when ids is empty.
func LoadAuditLogs(repo store.AuditRepository, ids []string) ([]*models.AuditLog, error) {
	if len(ids) == 0 {
		return repo.List()
	}
	logs := make([]*models.AuditLog, 0, len(ids))
	for _, id := range ids {
		log, err := repo.Load(id)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}
