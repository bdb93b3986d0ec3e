package export

import (
	"testing"
	"time"

	"fjacquet/txn-recon/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRequireAuditIDs(t *testing.T) {
	assert.Error(t, requireAuditIDs(nil))
	assert.Error(t, requireAuditIDs([]string{" "}))
	assert.NoError(t, requireAuditIDs([]string{"3f2c"}))
}

func TestMergeLogs(t *testing.T) {
	assert.Nil(t, mergeLogs(nil))

	first := &models.AuditLog{
		ID:        "1",
		Timestamp: time.Unix(10, 0),
		Actions: []models.AuditAction{
			{TxnID: "a", Action: models.ActionKeep},
			{TxnID: "b", Action: models.ActionRemove},
		},
		Summary: models.AuditSummary{TotalProcessed: 2, DefiniteDuplicates: 2, RemovedCount: 1},
	}
	assert.Same(t, first, mergeLogs([]*models.AuditLog{first}))

	second := &models.AuditLog{
		ID:        "2",
		Timestamp: time.Unix(20, 0),
		Actions: []models.AuditAction{
			{TxnID: "b", Action: models.ActionRemove},
			{TxnID: "c", Action: models.ActionRemove},
			{TxnID: "d", Action: models.ActionKeep},
		},
		Summary: models.AuditSummary{TotalProcessed: 3, PossibleDuplicates: 3, RemovedCount: 2},
	}
	merged := mergeLogs([]*models.AuditLog{first, second})
	assert.Len(t, merged.Actions, 5)
	assert.Equal(t, 5, merged.Summary.TotalProcessed)
	assert.Equal(t, 2, merged.Summary.DefiniteDuplicates)
	assert.Equal(t, 3, merged.Summary.PossibleDuplicates)
	assert.Equal(t, 2, merged.Summary.RemovedCount)
	assert.True(t, second.Timestamp.Equal(merged.Timestamp))
}
