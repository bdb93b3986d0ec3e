package common

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/txn-recon/internal/export"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"
	"fjacquet/txn-recon/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWritePayload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	log := &models.AuditLog{ID: "abc", Timestamp: time.Unix(0, 0).UTC()}
	p, err := export.NewExporter(normalizer.AliasTable{}).ExportAuditLog(log, "json")
	require.NoError(t, err)

	logger := logging.NewMockLogger()
	path, err := WritePayload(dir, "acme", p, ',', logger)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "acme_audit_log_abc.json"), path)
	assert.True(t, logger.HasEntry("INFO", "Export written"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"abc"`)
}

func TestWriteDocument(t *testing.T) {
	dir := t.TempDir()
	doc := map[string]int{"total": 3}

	jsonPath := filepath.Join(dir, "a", "doc.json")
	require.NoError(t, WriteDocument(jsonPath, doc))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON map[string]int
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, doc, fromJSON)

	yamlPath := filepath.Join(dir, "doc.yaml")
	require.NoError(t, WriteDocument(yamlPath, doc))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML map[string]int
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, doc, fromYAML)
}

func TestRequireInputFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.csv")
	require.NoError(t, os.WriteFile(file, []byte("id\n"), 0600))

	assert.NoError(t, RequireInputFile("input", file))
	assert.Error(t, RequireInputFile("input", ""))
	assert.Error(t, RequireInputFile("input", dir))
	assert.Error(t, RequireInputFile("input", filepath.Join(dir, "missing.csv")))
}

func TestLoadAuditLogs(t *testing.T) {
	repo := store.NewMockAuditRepository()
	require.NoError(t, repo.Save(&models.AuditLog{ID: "one", Timestamp: time.Unix(1, 0)}))
	require.NoError(t, repo.Save(&models.AuditLog{ID: "two", Timestamp: time.Unix(2, 0)}))

	all, err := LoadAuditLogs(repo, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	some, err := LoadAuditLogs(repo, []string{"two"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "two", some[0].ID)

	_, err = LoadAuditLogs(repo, []string{"three"})
	assert.Error(t, err)
}
