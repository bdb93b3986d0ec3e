// Package normalizer canonicalizes free-text transaction descriptions into a
// comparable token form.
package normalizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	referenceNum  = regexp.MustCompile(`#?\d{4,}`)

	corporateSuffixes = map[string]struct{}{
		"inc":         {},
		"llc":         {},
		"ltd":         {},
		"corp":        {},
		"corporation": {},
		"company":     {},
	}
)

// AliasRule substitutes Pattern with Replacement.
type AliasRule struct {
	Pattern     string `yaml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" json:"replacement"`
}

// AliasTable is an ordered set of alias rules. Rules are applied longest
// pattern first, ties broken by pattern text, so the outcome never depends on
// how the table was assembled.
type AliasTable struct {
	rules []compiledRule
}

type compiledRule struct {
	pattern     []string
	replacement []string
	source      AliasRule
}

// NewAliasTable compiles rules into a table. Patterns and replacements go
// through the same punctuation cleanup as descriptions, so "pg&e" and
// "p g & e" become the token sequences [pge] and [p g e]. Rules whose pattern
// cleans to nothing are dropped; a later duplicate pattern overrides an earlier one.
func NewAliasTable(rules []AliasRule) AliasTable {
	byPattern := make(map[string]compiledRule, len(rules))
	for _, r := range rules {
		pattern := tokens(clean(r.Pattern))
		if len(pattern) == 0 {
			continue
		}
		key := strings.Join(pattern, " ")
		byPattern[key] = compiledRule{
			pattern:     pattern,
			replacement: tokens(clean(r.Replacement)),
			source:      r,
		}
	}

	compiled := make([]compiledRule, 0, len(byPattern))
	for _, r := range byPattern {
		compiled = append(compiled, r)
	}
	sort.Slice(compiled, func(i, j int) bool {
		pi, pj := strings.Join(compiled[i].pattern, " "), strings.Join(compiled[j].pattern, " ")
		if len(pi) != len(pj) {
			return len(pi) > len(pj)
		}
		return pi < pj
	})

	return AliasTable{rules: compiled}
}

// AliasTableFromMap builds a table from an alias -> canonical map.
func AliasTableFromMap(aliases map[string]string) AliasTable {
	rules := make([]AliasRule, 0, len(aliases))
	for pattern, replacement := range aliases {
		rules = append(rules, AliasRule{Pattern: pattern, Replacement: replacement})
	}
	return NewAliasTable(rules)
}

// Rules returns the rules in application order.
func (t AliasTable) Rules() []AliasRule {
	out := make([]AliasRule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.source
	}
	return out
}

// Len returns the number of compiled rules.
func (t AliasTable) Len() int {
	return len(t.rules)
}

// DefaultAliases returns the built-in vendor alias table.
func DefaultAliases() AliasTable {
	return NewAliasTable([]AliasRule{
		{Pattern: "p g & e", Replacement: "pge"},
		{Pattern: "pg&e", Replacement: "pge"},
		{Pattern: "amazon mktp", Replacement: "amazon"},
		{Pattern: "amazon marketplace", Replacement: "amazon"},
		{Pattern: "google ads", Replacement: "google"},
		{Pattern: "google advertising", Replacement: "google"},
		{Pattern: "pp", Replacement: "paypal"},
		{Pattern: "qb", Replacement: "quickbooks"},
		{Pattern: "msft", Replacement: "microsoft"},
		{Pattern: "aapl", Replacement: "apple"},
	})
}

// Normalize returns the canonical form of description. The result is never
// nil-like: empty or whitespace-only input yields "".
func Normalize(description string, aliases AliasTable) string {
	toks := tokens(clean(description))

	kept := toks[:0]
	for _, tok := range toks {
		if isNumericCompound(tok) {
			continue
		}
		tok = referenceNum.ReplaceAllString(tok, "")
		tok = strings.Trim(strings.ReplaceAll(tok, "#", ""), "-")
		if tok == "" {
			continue
		}
		if _, suffix := corporateSuffixes[tok]; suffix {
			continue
		}
		kept = append(kept, tok)
	}

	for _, rule := range aliases.rules {
		kept = replaceSequence(kept, rule.pattern, rule.replacement)
	}

	return strings.Join(kept, " ")
}

// clean lowercases, folds diacritics, collapses whitespace and strips every
// punctuation rune except hyphens between two letters or digits. A '*' splits
// tokens, as in processor prefixes like "PP*NETFLIX" or "SQ *CAFE".
func clean(s string) string {
	s = strings.ToLower(foldDiacritics(s))
	s = whitespaceRun.ReplaceAllString(s, " ")

	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#':
			b.WriteRune(r)
		case r == ' ' || r == '*':
			b.WriteRune(' ')
		case r == '-':
			if i > 0 && i < len(rs)-1 && isWordRune(rs[i-1]) && isWordRune(rs[i+1]) {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
		}
	}
	return b.String()
}

// isNumericCompound reports hyphen-joined digit runs such as dates
// ("2024-01-15") or split references ("#123-456").
func isNumericCompound(tok string) bool {
	if !strings.Contains(tok, "-") {
		return false
	}
	for _, part := range strings.Split(strings.TrimPrefix(tok, "#"), "-") {
		if part == "" || strings.IndexFunc(part, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func tokens(s string) []string {
	return strings.Fields(s)
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// replaceSequence replaces every non-overlapping occurrence of pattern in toks,
// scanning left to right. Replaced tokens are not rescanned by the same rule.
func replaceSequence(toks, pattern, replacement []string) []string {
	if len(pattern) == 0 || len(toks) < len(pattern) {
		return toks
	}

	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); {
		if hasPrefix(toks[i:], pattern) {
			out = append(out, replacement...)
			i += len(pattern)
			continue
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

func hasPrefix(toks, pattern []string) bool {
	if len(toks) < len(pattern) {
		return false
	}
	for i := range pattern {
		if toks[i] != pattern[i] {
			return false
		}
	}
	return true
}
