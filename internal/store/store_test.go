package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "aliases.yaml")
	writeFile(t, testFile, "aliases: []")

	file, err := FindConfigFile(testFile)
	assert.NoError(t, err)
	assert.Equal(t, testFile, file)

	_, err = FindConfigFile(filepath.Join(dir, "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestLoadAliases_Defaults(t *testing.T) {
	s := NewAliasStore("", nil)
	table, err := s.LoadAliases()
	require.NoError(t, err)
	assert.Equal(t, normalizer.DefaultAliases().Len(), table.Len())
}

func TestLoadAliases_RuleList(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "aliases.yaml")
	writeFile(t, file, `aliases:
  - pattern: "amzn mktp"
    replacement: "amazon"
  - pattern: "sq"
    replacement: "square"
`)

	table, err := NewAliasStore(file, nil).LoadAliases()
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "amazon purchase", normalizer.Normalize("AMZN Mktp Purchase", table))
}

func TestLoadAliases_FlatMapping(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "aliases.yaml")
	writeFile(t, file, "msft: microsoft\nqb: quickbooks\n")

	table, err := NewAliasStore(file, nil).LoadAliases()
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "microsoft azure", normalizer.Normalize("MSFT Azure", table))
}

func TestLoadAliases_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewAliasStore(filepath.Join(dir, "missing.yaml"), nil).LoadAliases()
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "aliases: [unclosed")
	_, err = NewAliasStore(bad, nil).LoadAliases()
	assert.Error(t, err)
}

func TestSaveAliases_RoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "aliases.yaml")
	s := NewAliasStore(file, nil)
	require.NoError(t, s.SaveAliases(normalizer.DefaultAliases()))

	table, err := s.LoadAliases()
	require.NoError(t, err)
	assert.Equal(t, normalizer.DefaultAliases().Rules(), table.Rules())

	assert.Error(t, NewAliasStore("", nil).SaveAliases(normalizer.DefaultAliases()))
}

func sampleGroup() models.DuplicateGroup {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	a := models.NewTransactionBuilder().WithID("a").WithDate("2024-01-15").
		WithAmount("49.99").WithDescription("Netflix").WithCreatedAt(created).MustBuild()
	b := models.NewTransactionBuilder().WithID("b").WithDate("2024-01-15").
		WithAmount("49.99").WithDescription("NETFLIX.COM").MustBuild()
	return models.DuplicateGroup{
		GroupID:         "g1",
		Label:           models.LabelDefinite,
		Confidence:      0.95,
		Key:             models.GroupKey{Amount: decimal.RequireFromString("49.99"), Description: "netflix"},
		SuggestedKeepID: "a",
		Members: []models.GroupMember{
			{Txn: a},
			{Txn: b, SuggestedRemove: true},
		},
	}
}

func TestGroups_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.yaml")
	g := sampleGroup()
	require.NoError(t, SaveGroups(path, []models.DuplicateGroup{g}))

	loaded, err := LoadGroups(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, g.GroupID, loaded[0].GroupID)
	assert.Equal(t, g.Label, loaded[0].Label)
	assert.Equal(t, []string{"a", "b"}, loaded[0].MemberIDs())
	assert.True(t, g.Key.Amount.Equal(loaded[0].Key.Amount))
	assert.True(t, loaded[0].Members[1].SuggestedRemove)
	require.NotNil(t, loaded[0].Members[0].Txn.CreatedAt)
	assert.True(t, g.Members[0].Txn.CreatedAt.Equal(*loaded[0].Members[0].Txn.CreatedAt))
}

func TestKeepMap_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.yaml")
	require.NoError(t, SaveKeepMap(path, map[string]string{"g1": "a"}))

	keep, err := LoadKeepMap(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"g1": "a"}, keep)

	empty := filepath.Join(dir, "empty.yaml")
	writeFile(t, empty, "keep: {}\n")
	keep, err = LoadKeepMap(empty)
	require.NoError(t, err)
	assert.Empty(t, keep)

	_, err = LoadKeepMap(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	writeFile(t, path, `clients:
  - client_id: acme
    client_name: ACME Corp
    bank_file: acme_bank.csv
    book_file: /abs/acme_book.csv
  - client_id: globex
    bank_file: globex_bank.csv
    book_file: globex_book.csv
`)

	entries, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(dir, "acme_bank.csv"), entries[0].BankFile)
	assert.Equal(t, "/abs/acme_book.csv", entries[0].BookFile)
	assert.Equal(t, "ACME Corp", entries[0].ClientName)
	assert.Equal(t, "globex", entries[1].ClientName)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "clients:\n  - client_id: x\n    bank_file: a.csv\n")
	_, err = LoadManifest(bad)
	assert.Error(t, err)
}

func newLog(id string, ts time.Time) *models.AuditLog {
	return &models.AuditLog{
		ID:        id,
		Timestamp: ts,
		Actions: []models.AuditAction{
			{TxnID: "a", Action: models.ActionKeep, Reason: "definite duplicate (confidence: 0.95)", Confidence: 0.95},
			{TxnID: "b", Action: models.ActionRemove, Reason: "definite duplicate (confidence: 0.95)", Confidence: 0.95},
		},
		Summary: models.AuditSummary{TotalProcessed: 2, DefiniteDuplicates: 2, RemovedCount: 1},
	}
}

func TestAuditStore_SaveLoadList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	s := NewAuditStore(dir, nil)

	t1 := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)
	require.NoError(t, s.Save(newLog("second", t1)))
	require.NoError(t, s.Save(newLog("first", t0)))

	loaded, err := s.Load("second")
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.ID)
	assert.True(t, t1.Equal(loaded.Timestamp))
	assert.Len(t, loaded.Actions, 2)
	assert.Equal(t, 1, loaded.Summary.RemovedCount)

	logs, err := s.List()
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].ID)
	assert.Equal(t, "second", logs[1].ID)
}

func TestAuditStore_AppendOnly(t *testing.T) {
	s := NewAuditStore(t.TempDir(), nil)
	require.NoError(t, s.Save(newLog("x", time.Now())))

	err := s.Save(newLog("x", time.Now()))
	assert.True(t, errors.Is(err, ErrAuditLogExists))

	assert.Error(t, s.Save(&models.AuditLog{}))
	assert.Error(t, s.Save(newLog("../escape", time.Now())))
}

func TestAuditStore_Missing(t *testing.T) {
	s := NewAuditStore(filepath.Join(t.TempDir(), "none"), nil)

	_, err := s.Load("nope")
	assert.True(t, errors.Is(err, ErrAuditLogNotFound))

	logs, err := s.List()
	assert.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMockAuditRepository(t *testing.T) {
	m := NewMockAuditRepository()
	require.NoError(t, m.Save(newLog("b", time.Unix(200, 0))))
	require.NoError(t, m.Save(newLog("a", time.Unix(100, 0))))
	assert.True(t, errors.Is(m.Save(newLog("a", time.Unix(100, 0))), ErrAuditLogExists))

	logs, err := m.List()
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "a", logs[0].ID)

	_, err = m.Load("zzz")
	assert.Error(t, err)

	m.SaveError = errors.New("disk full")
	assert.EqualError(t, m.Save(newLog("c", time.Now())), "disk full")
}
