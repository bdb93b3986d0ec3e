// Package store provides file-backed persistence for the data the engine
// consumes or produces around a run: vendor alias tables, duplicate previews,
// keep decisions, bulk manifests and audit logs.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"

	"gopkg.in/yaml.v3"
)

// AliasStore loads and saves vendor alias tables.
type AliasStore struct {
	AliasesFile string
	logger      logging.Logger
}

// aliasFile is the on-disk layout: an ordered rule list.
type aliasFile struct {
	Aliases []normalizer.AliasRule `yaml:"aliases"`
}

// NewAliasStore creates a store for the given alias file. A nil logger
// discards output.
func NewAliasStore(aliasesFile string, logger logging.Logger) *AliasStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AliasStore{AliasesFile: aliasesFile, logger: logger}
}

// FindConfigFile looks for a configuration file in standard locations: the
// path itself, ./config, then ~/.config/txn-recon.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(homeDir, ".config", "txn-recon", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// LoadAliases returns the configured alias table. An empty file name yields
// the built-in defaults; a missing file is an error because it was asked for
// explicitly.
//
// Two layouts are accepted: "aliases:" followed by a list of
// {pattern, replacement} rules, or a flat pattern: replacement mapping.
func (s *AliasStore) LoadAliases() (normalizer.AliasTable, error) {
	if s.AliasesFile == "" {
		return normalizer.DefaultAliases(), nil
	}

	filePath, err := FindConfigFile(s.AliasesFile)
	if err != nil {
		return normalizer.AliasTable{}, fmt.Errorf("aliases file not found: %s", s.AliasesFile)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- path comes from configuration
	if err != nil {
		return normalizer.AliasTable{}, fmt.Errorf("error reading aliases file: %w", err)
	}

	var ordered aliasFile
	if err := yaml.Unmarshal(data, &ordered); err == nil && len(ordered.Aliases) > 0 {
		table := normalizer.NewAliasTable(ordered.Aliases)
		s.logger.Debug("Loaded alias rules",
			logging.F(logging.FieldFile, filePath),
			logging.F(logging.FieldCount, table.Len()))
		return table, nil
	}

	var flat map[string]string
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return normalizer.AliasTable{}, fmt.Errorf("error parsing aliases file %s: %w", filePath, err)
	}
	table := normalizer.AliasTableFromMap(flat)
	s.logger.Debug("Loaded alias mapping",
		logging.F(logging.FieldFile, filePath),
		logging.F(logging.FieldCount, table.Len()))
	return table, nil
}

// SaveAliases writes table as an ordered rule list.
func (s *AliasStore) SaveAliases(table normalizer.AliasTable) error {
	if s.AliasesFile == "" {
		return fmt.Errorf("no aliases file configured")
	}
	return writeYAML(s.AliasesFile, aliasFile{Aliases: table.Rules()})
}

// groupsFile wraps a preview so it can be reviewed and edited by hand.
type groupsFile struct {
	Groups []models.DuplicateGroup `yaml:"groups"`
}

// SaveGroups writes a duplicate preview to path.
func SaveGroups(path string, groups []models.DuplicateGroup) error {
	return writeYAML(path, groupsFile{Groups: groups})
}

// LoadGroups reads a preview written by SaveGroups.
func LoadGroups(path string) ([]models.DuplicateGroup, error) {
	var f groupsFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	return f.Groups, nil
}

// keepFile is the on-disk keep map: group id to the transaction kept.
type keepFile struct {
	Keep map[string]string `yaml:"keep"`
}

// SaveKeepMap writes a keep map to path.
func SaveKeepMap(path string, keep map[string]string) error {
	return writeYAML(path, keepFile{Keep: keep})
}

// LoadKeepMap reads a keep map written by SaveKeepMap or by hand.
func LoadKeepMap(path string) (map[string]string, error) {
	var f keepFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	if f.Keep == nil {
		f.Keep = map[string]string{}
	}
	return f.Keep, nil
}

// ManifestEntry names the ledgers of one client in a bulk run. Relative file
// paths are resolved against the manifest directory.
type ManifestEntry struct {
	ClientID   string `yaml:"client_id"`
	ClientName string `yaml:"client_name"`
	BankFile   string `yaml:"bank_file"`
	BookFile   string `yaml:"book_file"`
}

type manifestFile struct {
	Clients []ManifestEntry `yaml:"clients"`
}

// LoadManifest reads a bulk reconciliation manifest.
func LoadManifest(path string) ([]ManifestEntry, error) {
	var f manifestFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range f.Clients {
		c := &f.Clients[i]
		if c.BankFile == "" || c.BookFile == "" {
			return nil, fmt.Errorf("manifest %s: client %q needs both bank_file and book_file", path, c.ClientID)
		}
		if c.ClientName == "" {
			c.ClientName = c.ClientID
		}
		if !filepath.IsAbs(c.BankFile) {
			c.BankFile = filepath.Join(base, c.BankFile)
		}
		if !filepath.IsAbs(c.BookFile) {
			c.BookFile = filepath.Join(base, c.BookFile)
		}
	}
	return f.Clients, nil
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-supplied path
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	return nil
}

func writeYAML(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}
