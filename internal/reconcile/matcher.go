// Package reconcile matches transactions of a bank ledger against a books
// ledger.
//
// Matching is greedy and runs in passes over both ledgers sorted by date then
// id: strong identifiers, exact amount within a date window, then best
// composite score. Bank transactions left over are reported as unmatched
// entries; book transactions left over are returned separately.
package reconcile

import (
	"fmt"
	"sort"

	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"
	"fjacquet/txn-recon/internal/similarity"
	"fjacquet/txn-recon/internal/validation"
)

// Confidences and floors of the matching passes.
const (
	ExactConfidence          = 0.98
	MultipleCandidateBase    = 0.85
	MultipleCandidateWeight  = 0.1
	MultipleCandidateMinimum = 0.6
)

// Notes attached to matches.
const (
	NoteReference       = "Matched on bank reference"
	NoteCheckNumber     = "Matched on check number"
	NoteMultipleMatches = "Multiple amount matches - selected best description match"
	NoteLowConfidence   = "Low confidence match - please review"
	NoteUnmatched       = "No matching book transaction found"
)

// Settings controls the two-ledger matcher.
type Settings struct {
	DateWindowDays  int     `mapstructure:"date_window_days" yaml:"date_window_days"`
	FuzzyThreshold  float64 `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	ReviewThreshold float64 `mapstructure:"review_threshold" yaml:"review_threshold"`
}

// DefaultSettings returns the stock matcher settings.
func DefaultSettings() Settings {
	return Settings{
		DateWindowDays:  5,
		FuzzyThreshold:  0.6,
		ReviewThreshold: 0.8,
	}
}

// Validate rejects out of range settings.
func (s Settings) Validate() error {
	if s.DateWindowDays < 0 {
		return fmt.Errorf("date_window_days must not be negative, got: %d", s.DateWindowDays)
	}
	if s.FuzzyThreshold < 0.0 || s.FuzzyThreshold > 1.0 {
		return fmt.Errorf("fuzzy_threshold must be between 0.0 and 1.0, got: %f", s.FuzzyThreshold)
	}
	if s.ReviewThreshold < s.FuzzyThreshold || s.ReviewThreshold > 1.0 {
		return fmt.Errorf("review_threshold must be between fuzzy_threshold and 1.0, got: %f", s.ReviewThreshold)
	}
	return nil
}

// Matcher reconciles two ledgers. It holds no per-call state and is safe for
// concurrent use.
type Matcher struct {
	settings Settings
	scorer   similarity.Scorer
	logger   logging.Logger
}

// NewMatcher validates settings and returns a Matcher. A nil logger discards
// output.
func NewMatcher(settings Settings, aliases normalizer.AliasTable, logger logging.Logger) (*Matcher, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Matcher{
		settings: settings,
		scorer:   similarity.NewScorer(aliases),
		logger:   logger,
	}, nil
}

// Reconcile is a convenience for a default Matcher without aliases.
func Reconcile(bank, book []models.Transaction) (*models.ReconciliationResult, error) {
	m, err := NewMatcher(DefaultSettings(), normalizer.AliasTable{}, nil)
	if err != nil {
		return nil, err
	}
	return m.Reconcile(bank, book)
}

// run carries the claim state of one reconciliation.
type run struct {
	bank     []models.Transaction
	book     []models.Transaction
	bankDone []bool
	bookUsed []bool
}

// Reconcile matches bank against book. Each book transaction is used at most
// once. A missing match is a normal outcome, never an error; only invalid
// input fails.
func (m *Matcher) Reconcile(bank, book []models.Transaction) (*models.ReconciliationResult, error) {
	if err := validation.ValidateTransactions(bank); err != nil {
		return nil, fmt.Errorf("bank ledger: %w", err)
	}
	if err := validation.ValidateTransactions(book); err != nil {
		return nil, fmt.Errorf("book ledger: %w", err)
	}

	r := &run{
		bank:     canonicalOrder(bank),
		book:     canonicalOrder(book),
		bankDone: make([]bool, len(bank)),
		bookUsed: make([]bool, len(book)),
	}
	result := &models.ReconciliationResult{
		Matches:       make([]models.ReconciliationMatch, 0, len(bank)),
		UnmatchedBank: make([]models.Transaction, 0),
		UnmatchedBook: make([]models.Transaction, 0),
	}

	refs := m.identifierPass(r, result)
	exact := m.exactPass(r, result)
	fuzzy := m.fuzzyPass(r, result)

	for i, t := range r.bank {
		if r.bankDone[i] {
			continue
		}
		result.Matches = append(result.Matches, models.ReconciliationMatch{
			ID:              "unmatched-bank-" + t.ID,
			BankTransaction: t,
			MatchType:       models.MatchUnmatched,
			Confidence:      0,
			Notes:           NoteUnmatched,
		})
		result.UnmatchedBank = append(result.UnmatchedBank, t)
	}
	for i, t := range r.book {
		if !r.bookUsed[i] {
			result.UnmatchedBook = append(result.UnmatchedBook, t)
		}
	}

	m.logger.Debug("Reconciliation completed",
		logging.F("reference_matches", refs),
		logging.F("exact_matches", exact),
		logging.F("fuzzy_matches", fuzzy),
		logging.F("unmatched_bank", len(result.UnmatchedBank)),
		logging.F("unmatched_book", len(result.UnmatchedBook)))
	return result, nil
}

// identifierPass pairs transactions sharing a bank reference or check number.
func (m *Matcher) identifierPass(r *run, result *models.ReconciliationResult) int {
	count := 0
	for i, bt := range r.bank {
		if bt.BankReferenceID == "" && bt.CheckNumber == "" {
			continue
		}
		for j, kt := range r.book {
			if r.bookUsed[j] || kt.Type != bt.Type {
				continue
			}
			note := ""
			switch {
			case bt.BankReferenceID != "" && bt.BankReferenceID == kt.BankReferenceID:
				note = NoteReference
			case bt.CheckNumber != "" && bt.CheckNumber == kt.CheckNumber:
				note = NoteCheckNumber
			default:
				continue
			}
			m.claim(r, result, i, j, models.MatchExact, ExactConfidence, note)
			count++
			break
		}
	}
	return count
}

// exactPass pairs transactions with the same amount inside the date window.
// Several candidates are disambiguated by description similarity.
func (m *Matcher) exactPass(r *run, result *models.ReconciliationResult) int {
	count := 0
	for i, bt := range r.bank {
		if r.bankDone[i] {
			continue
		}

		var candidates []int
		for j, kt := range r.book {
			if r.bookUsed[j] || kt.Type != bt.Type {
				continue
			}
			if bt.Amount.Sub(kt.Amount).Abs().LessThan(similarity.Cent) &&
				dateutils.DaysBetween(bt.Date, kt.Date) <= m.settings.DateWindowDays {
				candidates = append(candidates, j)
			}
		}

		switch len(candidates) {
		case 0:
			continue
		case 1:
			m.claim(r, result, i, candidates[0], models.MatchExact, ExactConfidence, "")
			count++
		default:
			best, bestSim := -1, 0.0
			for _, j := range candidates {
				sim := m.scorer.Similarity(bt.Description, r.book[j].Description)
				if best < 0 || sim > bestSim {
					best, bestSim = j, sim
				}
			}
			if bestSim > MultipleCandidateMinimum {
				confidence := MultipleCandidateBase + bestSim*MultipleCandidateWeight
				m.claim(r, result, i, best, models.MatchExact, confidence, NoteMultipleMatches)
				count++
			}
		}
	}
	return count
}

// fuzzyPass pairs each remaining bank transaction with its best scoring book
// transaction when the score clears the fuzzy threshold.
func (m *Matcher) fuzzyPass(r *run, result *models.ReconciliationResult) int {
	count := 0
	for i, bt := range r.bank {
		if r.bankDone[i] {
			continue
		}

		best, bestScore := -1, 0.0
		for j, kt := range r.book {
			if r.bookUsed[j] || kt.Type != bt.Type {
				continue
			}
			if score := m.scorer.MatchScore(bt, kt); score > bestScore {
				best, bestScore = j, score
			}
		}
		if best < 0 || bestScore <= m.settings.FuzzyThreshold {
			continue
		}

		note := ""
		if bestScore < m.settings.ReviewThreshold {
			note = NoteLowConfidence
		}
		m.claim(r, result, i, best, models.MatchFuzzy, bestScore, note)
		count++
	}
	return count
}

func (m *Matcher) claim(r *run, result *models.ReconciliationResult, bankIdx, bookIdx int, matchType models.MatchType, confidence float64, note string) {
	bt := r.bank[bankIdx]
	kt := r.book[bookIdx]
	r.bankDone[bankIdx] = true
	r.bookUsed[bookIdx] = true

	diff := bt.Amount.Sub(kt.Amount).Abs()
	result.Matches = append(result.Matches, models.ReconciliationMatch{
		ID:              fmt.Sprintf("%s-%s-%s", matchType, bt.ID, kt.ID),
		BankTransaction: bt,
		BookTransaction: &kt,
		MatchType:       matchType,
		Confidence:      confidence,
		Difference:      &diff,
		Notes:           note,
	})
}

// canonicalOrder returns a copy of txns sorted by date, then id.
func canonicalOrder(txns []models.Transaction) []models.Transaction {
	sorted := make([]models.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
