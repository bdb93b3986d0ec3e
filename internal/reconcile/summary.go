package reconcile

import (
	"sort"
	"strings"

	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/similarity"
)

// ConfidenceDistribution buckets matched pairs by confidence.
type ConfidenceDistribution struct {
	Perfect int `json:"perfect" yaml:"perfect"` // >= 0.95
	High    int `json:"high" yaml:"high"`       // 0.8 - 0.95
	Medium  int `json:"medium" yaml:"medium"`   // 0.7 - 0.8
	Low     int `json:"low" yaml:"low"`         // < 0.7
}

// Summary gives counts for a reconciliation result.
type Summary struct {
	BankTotal     int                    `json:"bank_total" yaml:"bank_total"`
	Exact         int                    `json:"exact" yaml:"exact"`
	Fuzzy         int                    `json:"fuzzy" yaml:"fuzzy"`
	NeedsReview   int                    `json:"needs_review" yaml:"needs_review"`
	UnmatchedBank int                    `json:"unmatched_bank" yaml:"unmatched_bank"`
	UnmatchedBook int                    `json:"unmatched_book" yaml:"unmatched_book"`
	MatchRate     float64                `json:"match_rate" yaml:"match_rate"`
	Distribution  ConfidenceDistribution `json:"confidence_distribution" yaml:"confidence_distribution"`
}

// Summarize counts matches by type and confidence band. MatchRate is the
// share of bank transactions that found a partner.
func Summarize(result *models.ReconciliationResult) Summary {
	var s Summary
	if result == nil {
		return s
	}

	for _, m := range result.Matches {
		s.BankTotal++
		switch m.MatchType {
		case models.MatchExact:
			s.Exact++
		case models.MatchFuzzy:
			s.Fuzzy++
		default:
			continue
		}
		if needsReview(m) {
			s.NeedsReview++
		}

		switch {
		case m.Confidence >= 0.95:
			s.Distribution.Perfect++
		case m.Confidence >= 0.8:
			s.Distribution.High++
		case m.Confidence >= 0.7:
			s.Distribution.Medium++
		default:
			s.Distribution.Low++
		}
	}
	s.UnmatchedBank = len(result.UnmatchedBank)
	s.UnmatchedBook = len(result.UnmatchedBook)
	if s.BankTotal > 0 {
		s.MatchRate = float64(s.Exact+s.Fuzzy) / float64(s.BankTotal)
	}
	return s
}

// needsReview reports matches the matcher flagged for a human: fuzzy pairs
// below the review threshold and exact pairs picked among several candidates.
// Identifier-forced matches carry a note but are not flagged.
func needsReview(m models.ReconciliationMatch) bool {
	return m.Notes == NoteLowConfidence || m.Notes == NoteMultipleMatches
}

// DefaultSuggestionLimit caps SuggestMatches when no limit is given.
const DefaultSuggestionLimit = 5

// suggestionFloor is the score a candidate must exceed to be suggested.
const suggestionFloor = 0.3

// Suggestion is a candidate book transaction for manual matching.
type Suggestion struct {
	Book   models.Transaction `json:"book" yaml:"book"`
	Score  float64            `json:"score" yaml:"score"`
	Reason string             `json:"reason" yaml:"reason"`
}

// SuggestMatches ranks same-type book transactions against bank by composite
// score and returns at most limit of those scoring above 0.3, best first.
// Ties keep book order.
func (m *Matcher) SuggestMatches(bank models.Transaction, books []models.Transaction, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	suggestions := make([]Suggestion, 0)
	for _, book := range books {
		if book.Type != bank.Type {
			continue
		}
		score := m.scorer.MatchScore(bank, book)
		if score <= suggestionFloor {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Book:   book,
			Score:  score,
			Reason: m.reason(bank, book),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// reason names the dimensions that agree.
func (m *Matcher) reason(bank, book models.Transaction) string {
	var parts []string

	switch desc := m.scorer.Similarity(bank.Description, book.Description); {
	case desc > 0.8:
		parts = append(parts, "exact description")
	case desc > 0.6:
		parts = append(parts, "similar description")
	}

	switch date := similarity.DateCloseness(dateutils.DaysBetween(bank.Date, book.Date)); {
	case date > 0.9:
		parts = append(parts, "exact date")
	case date > 0.7:
		parts = append(parts, "close date")
	}

	switch amount := similarity.AmountCloseness(bank.Amount, book.Amount); {
	case amount > 0.9:
		parts = append(parts, "exact amount")
	case amount > 0.8:
		parts = append(parts, "similar amount")
	}

	if len(parts) == 0 {
		return "partial match"
	}
	return strings.Join(parts, " + ")
}
