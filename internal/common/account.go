package common

import (
	"path/filepath"
	"regexp"
	"strings"
)

// LedgerSide tells which side of a reconciliation a file feeds.
type LedgerSide string

const (
	SideBank LedgerSide = "bank"
	SideBook LedgerSide = "book"
)

// ClientFile is a ledger file attributed to a client by its name.
type ClientFile struct {
	ClientID string
	Side     LedgerSide
	Path     string
}

// Client ledger filename pattern: {client}_{bank|book|books}[_{suffix}].csv
// Examples: acme_bank.csv, acme_books_2024-01.csv
var clientFilePattern = regexp.MustCompile(`(?i)^(.+?)_(bank|books?)(?:_[^.]*)?\.csv$`)

// ParseClientFile attributes a ledger file to a client and side. The second
// return value is false when the name does not follow the pattern.
func ParseClientFile(path string) (ClientFile, bool) {
	m := clientFilePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return ClientFile{}, false
	}
	client := SanitizeClientID(m[1])
	if client == "" {
		return ClientFile{}, false
	}
	side := SideBook
	if strings.EqualFold(m[2], "bank") {
		side = SideBank
	}
	return ClientFile{ClientID: client, Side: side, Path: path}, true
}

// SanitizeClientID makes a client identifier safe to use in file names.
// Letters are lowercased; anything other than letters, digits, underscores
// and hyphens becomes an underscore.
func SanitizeClientID(id string) string {
	sanitized := strings.ToLower(strings.TrimSpace(id))

	var result strings.Builder
	for _, r := range sanitized {
		if (r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') ||
			r == '_' || r == '-' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}
	sanitized = result.String()

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	return strings.Trim(sanitized, "_")
}
