package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"

	"gopkg.in/yaml.v3"
)

// ErrAuditLogExists is returned when an audit log id has already been saved.
// Audit logs are append-only and never overwritten.
var ErrAuditLogExists = errors.New("audit log already exists")

// ErrAuditLogNotFound is returned by Load for unknown ids.
var ErrAuditLogNotFound = errors.New("audit log not found")

// AuditRepository persists audit logs.
type AuditRepository interface {
	Save(log *models.AuditLog) error
	Load(id string) (*models.AuditLog, error)
	List() ([]*models.AuditLog, error)
}

// AuditStore keeps one YAML file per audit log under Directory.
type AuditStore struct {
	Directory string
	logger    logging.Logger
}

// NewAuditStore creates a store rooted at dir.
func NewAuditStore(dir string, logger logging.Logger) *AuditStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuditStore{Directory: dir, logger: logger}
}

const auditFilePrefix = "audit_log_"

func (s *AuditStore) path(id string) string {
	return filepath.Join(s.Directory, auditFilePrefix+id+".yaml")
}

// Save writes log to a new file. Saving an id twice fails with
// ErrAuditLogExists.
func (s *AuditStore) Save(log *models.AuditLog) error {
	if log == nil || log.ID == "" {
		return fmt.Errorf("audit log must have an id")
	}
	if strings.ContainsAny(log.ID, `/\`) {
		return fmt.Errorf("invalid audit log id %q", log.ID)
	}
	if err := os.MkdirAll(s.Directory, models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating audit directory: %w", err)
	}

	data, err := yaml.Marshal(log)
	if err != nil {
		return fmt.Errorf("error marshaling audit log: %w", err)
	}

	path := s.path(log.ID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, models.PermissionReportFile) // #nosec G304 -- id validated above
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrAuditLogExists, log.ID)
		}
		return fmt.Errorf("error creating audit log file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("Failed to close audit log file",
				logging.F(logging.FieldFile, path),
				logging.F("error", cerr))
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("error writing audit log: %w", err)
	}

	s.logger.Info("Saved audit log",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(log.Actions)))
	return nil
}

// Load reads the audit log with the given id.
func (s *AuditStore) Load(id string) (*models.AuditLog, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAuditLogNotFound, id)
		}
		return nil, fmt.Errorf("error reading audit log: %w", err)
	}
	var log models.AuditLog
	if err := yaml.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("error parsing audit log %s: %w", id, err)
	}
	return &log, nil
}

// List returns all stored audit logs ordered by timestamp, then id. A missing
// directory yields an empty list.
func (s *AuditStore) List() ([]*models.AuditLog, error) {
	entries, err := os.ReadDir(s.Directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading audit directory: %w", err)
	}

	var logs []*models.AuditLog
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, auditFilePrefix) || filepath.Ext(name) != ".yaml" {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, auditFilePrefix), ".yaml")
		log, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	sortLogs(logs)
	return logs, nil
}

func sortLogs(logs []*models.AuditLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].Timestamp.Before(logs[j].Timestamp)
		}
		return logs[i].ID < logs[j].ID
	})
}
