// Package similarity scores how alike two descriptions, or two transactions
// from different ledgers, are.
package similarity

import (
	"unicode/utf8"

	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"

	"github.com/shopspring/decimal"
)

// Weights of the composite match score.
const (
	WeightAmount      = 0.4
	WeightDate        = 0.3
	WeightDescription = 0.3
)

// minTokenLength drops tokens of this many runes or fewer before comparing.
const minTokenLength = 2

// Cent is the amount difference below which two amounts are treated as equal.
var Cent = decimal.New(1, -2)

// Scorer computes description similarity under a given alias table.
type Scorer struct {
	Aliases normalizer.AliasTable
}

// NewScorer returns a Scorer using aliases.
func NewScorer(aliases normalizer.AliasTable) Scorer {
	return Scorer{Aliases: aliases}
}

// Similarity returns a symmetric score in [0,1] for two raw descriptions,
// without alias substitution.
func Similarity(a, b string) float64 {
	return Scorer{}.Similarity(a, b)
}

// Similarity normalizes both descriptions and returns 1 when the canonical
// forms are identical, the Jaccard index of their significant tokens otherwise.
func (s Scorer) Similarity(a, b string) float64 {
	return CanonicalSimilarity(normalizer.Normalize(a, s.Aliases), normalizer.Normalize(b, s.Aliases))
}

// CanonicalSimilarity compares two descriptions that are already normalized.
func CanonicalSimilarity(na, nb string) float64 {
	if na == nb {
		return 1.0
	}
	return jaccard(tokenSet(na), tokenSet(nb))
}

// MatchScore is the package-level form of Scorer.MatchScore without aliases.
func MatchScore(a, b models.Transaction) float64 {
	return Scorer{}.MatchScore(a, b)
}

// MatchScore combines amount, date and description closeness of two
// transactions from different ledgers into a score in [0,1].
func (s Scorer) MatchScore(a, b models.Transaction) float64 {
	return WeightAmount*AmountCloseness(a.Amount, b.Amount) +
		WeightDate*DateCloseness(dateutils.DaysBetween(a.Date, b.Date)) +
		WeightDescription*s.Similarity(a.Description, b.Description)
}

// AmountCloseness is 1 when the amounts differ by less than a cent, and
// otherwise decreases linearly with the relative difference, floored at 0.
func AmountCloseness(a, b decimal.Decimal) float64 {
	diff := a.Sub(b).Abs()
	if diff.LessThan(Cent) {
		return 1.0
	}

	scale := decimal.Max(a.Abs(), b.Abs())
	if scale.IsZero() {
		return 0
	}
	closeness, _ := decimal.NewFromInt(1).Sub(diff.Div(scale)).Float64()
	if closeness < 0 {
		return 0
	}
	return closeness
}

// DateCloseness maps a distance in days to a score: 1 up to one day, 0.8 up to
// three, 0.5 up to seven, 0 beyond.
func DateCloseness(days int) float64 {
	if days < 0 {
		days = -days
	}
	switch {
	case days <= 1:
		return 1.0
	case days <= 3:
		return 0.8
	case days <= 7:
		return 0.5
	default:
		return 0
	}
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	start := -1
	for i, r := range s + " " {
		if r == ' ' {
			if start >= 0 {
				tok := s[start:i]
				if utf8.RuneCountInString(tok) > minTokenLength {
					set[tok] = struct{}{}
				}
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
