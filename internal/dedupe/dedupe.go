// Package dedupe groups likely duplicate transactions inside a single ledger.
//
// Transactions are bucketed by amount rounded to cents. Within a bucket each
// unclaimed transaction first looks for definite duplicates (same date, type
// and normalized description, consistent strong identifiers). If none is
// found it looks for possible duplicates (same type, similar description,
// within a type dependent date window). Claiming is greedy: a transaction
// joins at most one group.
package dedupe

import (
	"sort"
	"strings"

	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"
	"fjacquet/txn-recon/internal/normalizer"
	"fjacquet/txn-recon/internal/similarity"
	"fjacquet/txn-recon/internal/validation"

	"github.com/google/uuid"
)

// groupNamespace seeds the deterministic group ids.
var groupNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("txn-recon/duplicate-group"))

// Deduper produces duplicate groups. It holds no state between calls and is
// safe for concurrent use.
type Deduper struct {
	settings Settings
	logger   logging.Logger
	pool     *bucketPool
}

// NewDeduper validates settings and returns a Deduper. A nil logger discards
// output.
func NewDeduper(settings Settings, logger logging.Logger) (*Deduper, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Deduper{
		settings: settings,
		logger:   logger,
		pool:     newBucketPool(logger),
	}, nil
}

// Preview is a convenience for NewDeduper(settings, nil).Preview(txns).
func Preview(txns []models.Transaction, settings Settings) ([]models.DuplicateGroup, error) {
	d, err := NewDeduper(settings, nil)
	if err != nil {
		return nil, err
	}
	return d.Preview(txns)
}

// Settings returns the settings the Deduper was built with.
func (d *Deduper) Settings() Settings {
	return d.settings
}

// entry is a transaction with its normalized description computed once.
type entry struct {
	txn  models.Transaction
	norm string
}

// Preview partitions txns into duplicate groups. Transactions that belong to
// no group are absent from the result. Input is validated first; the first
// invalid record is returned as an error.
func (d *Deduper) Preview(txns []models.Transaction) ([]models.DuplicateGroup, error) {
	if err := validation.ValidateTransactions(txns); err != nil {
		return nil, err
	}

	buckets := d.bucketize(txns)
	d.logger.Debug("Bucketed transactions by amount",
		logging.F(logging.FieldCount, len(txns)),
		logging.F(logging.FieldBuckets, len(buckets)))

	var perBucket [][]models.DuplicateGroup
	if d.settings.ParallelThreshold > 0 && len(txns) >= d.settings.ParallelThreshold && len(buckets) > 1 {
		perBucket = d.pool.run(buckets, d.groupBucket)
	} else {
		perBucket = make([][]models.DuplicateGroup, len(buckets))
		for i, b := range buckets {
			perBucket[i] = d.groupBucket(b)
		}
	}

	groups := make([]models.DuplicateGroup, 0)
	for _, g := range perBucket {
		groups = append(groups, g...)
	}

	d.logger.Debug("Duplicate preview completed",
		logging.F(logging.FieldCount, len(groups)))
	return groups, nil
}

// bucketize splits txns by rounded amount, keeping first-appearance order for
// both buckets and their members. Singleton buckets are dropped.
func (d *Deduper) bucketize(txns []models.Transaction) [][]entry {
	index := make(map[string]int)
	var buckets [][]entry
	for _, t := range txns {
		key := t.AmountKey()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], entry{txn: t})
	}

	kept := buckets[:0]
	for _, b := range buckets {
		if len(b) < 2 {
			continue
		}
		for i := range b {
			b[i].norm = d.normalize(b[i].txn.Description)
		}
		kept = append(kept, b)
	}
	return kept
}

func (d *Deduper) groupBucket(bucket []entry) []models.DuplicateGroup {
	var groups []models.DuplicateGroup
	claimed := make([]bool, len(bucket))

	for i := range bucket {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		t1 := bucket[i]

		members := []entry{t1}
		for j := i + 1; j < len(bucket); j++ {
			if !claimed[j] && d.isDefinite(t1, bucket[j]) {
				claimed[j] = true
				members = append(members, bucket[j])
			}
		}
		if len(members) > 1 {
			groups = append(groups, d.definiteGroup(t1, members))
			continue
		}

		for j := i + 1; j < len(bucket); j++ {
			if !claimed[j] && d.isPossible(t1, bucket[j]) {
				claimed[j] = true
				members = append(members, bucket[j])
			}
		}
		if len(members) > 1 {
			groups = append(groups, d.possibleGroup(t1, members))
		}
	}
	return groups
}

func (d *Deduper) definiteGroup(first entry, members []entry) models.DuplicateGroup {
	sort.SliceStable(members, func(a, b int) bool {
		return members[a].txn.CanonicalTime().Before(members[b].txn.CanonicalTime())
	})

	group := newGroup(models.LabelDefinite, DefiniteConfidence, first, members)
	if d.settings.AutoSelectKeep {
		keep := members[0].txn.ID
		group.SuggestedKeepID = keep
		for i := range group.Members {
			group.Members[i].SuggestedRemove = group.Members[i].Txn.ID != keep
		}
	}
	return group
}

func (d *Deduper) possibleGroup(first entry, members []entry) models.DuplicateGroup {
	return newGroup(models.LabelPossible, PossibleConfidence, first, members)
}

func newGroup(label models.GroupLabel, confidence float64, first entry, members []entry) models.DuplicateGroup {
	group := models.DuplicateGroup{
		Label:      label,
		Confidence: confidence,
		Key: models.GroupKey{
			Amount:      first.txn.RoundedAmount(),
			Description: first.norm,
		},
		Members: make([]models.GroupMember, len(members)),
	}
	for i, m := range members {
		group.Members[i] = models.GroupMember{Txn: m.txn}
	}
	group.GroupID = GroupID(label, first.txn.AmountKey(), group.MemberIDs())
	return group
}

// GroupID derives a stable id from the label, amount key and member ids, so
// identical previews produce identical ids.
func GroupID(label models.GroupLabel, amountKey string, memberIDs []string) string {
	ids := append([]string(nil), memberIDs...)
	sort.Strings(ids)
	name := string(label) + "|" + amountKey + "|" + strings.Join(ids, "\x1f")
	return uuid.NewSHA1(groupNamespace, []byte(name)).String()
}

// IsDefiniteDuplicate reports whether a and b record the same event beyond
// reasonable doubt.
func (d *Deduper) IsDefiniteDuplicate(a, b models.Transaction) bool {
	return d.isDefinite(d.entryOf(a), d.entryOf(b))
}

// IsPossibleDuplicate reports whether a and b might record the same event.
// Every definite pair is also a possible pair.
func (d *Deduper) IsPossibleDuplicate(a, b models.Transaction) bool {
	return d.isPossible(d.entryOf(a), d.entryOf(b))
}

func (d *Deduper) isDefinite(a, b entry) bool {
	return a.txn.Type == b.txn.Type &&
		a.txn.AmountKey() == b.txn.AmountKey() &&
		dateutils.SameDay(a.txn.Date, b.txn.Date) &&
		a.norm == b.norm &&
		identifiersAgree(a.txn, b.txn)
}

func (d *Deduper) isPossible(a, b entry) bool {
	if a.txn.Type != b.txn.Type || a.txn.AmountKey() != b.txn.AmountKey() {
		return false
	}
	if similarity.CanonicalSimilarity(a.norm, b.norm) < d.settings.SimilarityThreshold {
		return false
	}

	days := dateutils.DaysBetween(a.txn.Date, b.txn.Date)
	if !d.settings.TreatSameAmountDifferentDate {
		return days == 0
	}
	return days <= d.settings.WindowFor(a.txn.Type)
}

// identifiersAgree fails only when both sides carry the same kind of strong
// identifier with different values.
func identifiersAgree(a, b models.Transaction) bool {
	if a.BankReferenceID != "" && b.BankReferenceID != "" && a.BankReferenceID != b.BankReferenceID {
		return false
	}
	if a.CheckNumber != "" && b.CheckNumber != "" && a.CheckNumber != b.CheckNumber {
		return false
	}
	return true
}

func (d *Deduper) entryOf(t models.Transaction) entry {
	return entry{txn: t, norm: d.normalize(t.Description)}
}

func (d *Deduper) normalize(description string) string {
	return normalizer.Normalize(description, d.settings.VendorAliases)
}
