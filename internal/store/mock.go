package store

import (
	"fmt"
	"sync"

	"fjacquet/txn-recon/internal/models"
)

// MockAuditRepository is an in-memory AuditRepository for testing.
type MockAuditRepository struct {
	mu   sync.Mutex
	logs map[string]*models.AuditLog

	// Error flags for testing error conditions
	SaveError error
	LoadError error
	ListError error
}

// NewMockAuditRepository creates an empty repository.
func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{logs: make(map[string]*models.AuditLog)}
}

// Save stores a copy of log. Saving an id twice fails like the file store.
func (m *MockAuditRepository) Save(log *models.AuditLog) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logs == nil {
		m.logs = make(map[string]*models.AuditLog)
	}
	if _, ok := m.logs[log.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAuditLogExists, log.ID)
	}
	cp := *log
	cp.Actions = append([]models.AuditAction(nil), log.Actions...)
	m.logs[log.ID] = &cp
	return nil
}

// Load returns the stored log.
func (m *MockAuditRepository) Load(id string) (*models.AuditLog, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	log, ok := m.logs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAuditLogNotFound, id)
	}
	return log, nil
}

// List returns stored logs ordered like AuditStore.List.
func (m *MockAuditRepository) List() ([]*models.AuditLog, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	logs := make([]*models.AuditLog, 0, len(m.logs))
	for _, l := range m.logs {
		logs = append(logs, l)
	}
	sortLogs(logs)
	return logs, nil
}

var (
	_ AuditRepository = (*AuditStore)(nil)
	_ AuditRepository = (*MockAuditRepository)(nil)
)
