// Package audit turns duplicate groups and keep decisions into append-only
// audit logs. Transactions are never modified; removal exists only as an
// action recorded in a log.
package audit

import (
	"fmt"
	"strconv"
	"time"

	"fjacquet/txn-recon/internal/engineerror"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/models"

	"github.com/google/uuid"
)

// Applier builds audit logs.
type Applier struct {
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes an Applier.
type Option func(*Applier)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Applier) {
		a.now = now
	}
}

// WithIDGenerator overrides the audit log id source.
func WithIDGenerator(newID func() string) Option {
	return func(a *Applier) {
		a.newID = newID
	}
}

// NewApplier returns an Applier stamping logs with the current UTC time and
// random ids. A nil logger discards output.
func NewApplier(logger logging.Logger, opts ...Option) *Applier {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &Applier{
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply emits one keep or remove action per member of every group present in
// keepMap (group id to the id of the member to keep). Groups missing from
// keepMap are skipped. A keep id that is not a member of its group is
// rejected with KeepNotMemberError and no log is produced.
func (a *Applier) Apply(groups []models.DuplicateGroup, keepMap map[string]string) (*models.AuditLog, error) {
	log := &models.AuditLog{
		ID:        a.newID(),
		Timestamp: a.now(),
		Actions:   make([]models.AuditAction, 0),
	}

	skipped := 0
	for _, g := range groups {
		keepID, ok := keepMap[g.GroupID]
		if !ok || keepID == "" {
			skipped++
			continue
		}
		if !g.HasMember(keepID) {
			return nil, &engineerror.KeepNotMemberError{GroupID: g.GroupID, KeepID: keepID}
		}

		reason := Reason(g.Label, g.Confidence)
		for _, m := range g.Members {
			log.Summary.TotalProcessed++
			if g.Label == models.LabelDefinite {
				log.Summary.DefiniteDuplicates++
			} else {
				log.Summary.PossibleDuplicates++
			}

			action := models.ActionKeep
			if m.Txn.ID != keepID {
				action = models.ActionRemove
				log.Summary.RemovedCount++
			}
			log.Actions = append(log.Actions, models.AuditAction{
				TxnID:      m.Txn.ID,
				Action:     action,
				Reason:     reason,
				Confidence: g.Confidence,
			})
		}
	}

	a.logger.Debug("Applied keep decisions",
		logging.F(logging.FieldCount, len(log.Actions)),
		logging.F("removed", log.Summary.RemovedCount),
		logging.F("skipped_groups", skipped))
	return log, nil
}

// Reason is the human-readable justification attached to each action.
func Reason(label models.GroupLabel, confidence float64) string {
	return fmt.Sprintf("%s duplicate (confidence: %s)", label, strconv.FormatFloat(confidence, 'f', -1, 64))
}

// AutoKeepMap builds a keep map from the suggestions of a preview. Groups
// without a suggested keep id are left out, so they are skipped by Apply
// until a human decides.
func AutoKeepMap(groups []models.DuplicateGroup) map[string]string {
	keep := make(map[string]string)
	for _, g := range groups {
		if g.SuggestedKeepID != "" {
			keep[g.GroupID] = g.SuggestedKeepID
		}
	}
	return keep
}

// RemovedIDs is the union of removal intents across logs. A transaction kept
// by a later log is not resurrected; discarding a log is the only undo.
func RemovedIDs(logs ...*models.AuditLog) map[string]struct{} {
	removed := make(map[string]struct{})
	for _, l := range logs {
		for id := range l.RemovedIDs() {
			removed[id] = struct{}{}
		}
	}
	return removed
}

// Clean returns txns without the transactions removed by any of logs, in
// input order.
func Clean(txns []models.Transaction, logs ...*models.AuditLog) []models.Transaction {
	removed := RemovedIDs(logs...)
	clean := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if _, ok := removed[t.ID]; !ok {
			clean = append(clean, t)
		}
	}
	return clean
}
