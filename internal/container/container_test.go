package container

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/txn-recon/internal/config"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/normalizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.CSV.Delimiter = ";"
	c.Dedupe.DateWindowExpense = 5
	c.Dedupe.DateWindowIncome = 3
	c.Dedupe.SimilarityThreshold = 0.85
	c.Dedupe.TreatSameAmountDifferentDate = true
	c.Dedupe.AutoSelectKeep = true
	c.Reconcile.DateWindowDays = 5
	c.Reconcile.FuzzyThreshold = 0.6
	c.Reconcile.ReviewThreshold = 0.8
	c.Reconcile.BulkWorkers = 2
	c.Audit.Directory = filepath.Join(t.TempDir(), "audit")
	return c
}

func TestNewContainer(t *testing.T) {
	c, err := NewContainer(testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, c.GetLogger())
	assert.NotNil(t, c.GetConfig())
	assert.NotNil(t, c.GetAliasStore())
	assert.NotNil(t, c.GetAuditRepository())
	assert.NotNil(t, c.GetDeduper())
	assert.NotNil(t, c.GetApplier())
	assert.NotNil(t, c.GetMatcher())
	assert.NotNil(t, c.GetBulkEngine())
	assert.NotNil(t, c.GetExporter())
	assert.NotNil(t, c.GetAggregator())
	assert.Equal(t, normalizer.DefaultAliases().Len(), c.GetAliases().Len())
	assert.Equal(t, 0.85, c.GetDeduper().Settings().SimilarityThreshold)
	assert.NoError(t, c.Close())
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(nil)
	assert.Error(t, err)
	_, err = NewContainerWithLogger(nil, logging.NewMockLogger())
	assert.Error(t, err)
}

func TestNewContainer_AliasesFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  - pattern: sq\n    replacement: square\n"), 0600))
	cfg.Dedupe.AliasesFile = path

	c, err := NewContainerWithLogger(cfg, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, c.GetAliases().Len())

	cfg.Dedupe.AliasesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewContainerWithLogger(cfg, nil)
	assert.Error(t, err)
}

func TestNewContainer_InvalidSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dedupe.SimilarityThreshold = 2
	_, err := NewContainerWithLogger(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Reconcile.ReviewThreshold = 0.1
	_, err = NewContainerWithLogger(cfg, nil)
	assert.Error(t, err)
}
