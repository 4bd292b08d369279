// Package classifications implements the persisted classification domain:
// storing the rule chain's verdict for every inventory entry, querying the
// results, and working the human review queue for entries the chain could
// not resolve.
package classifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/classifier"
)

// Record is a stored classification for an inventory entry. It mirrors the
// classifications table schema; the validated fields track human review.
type Record struct {
	ID           uuid.UUID  `json:"id"`
	EntryID      uuid.UUID  `json:"entry_id"`
	Rule         int        `json:"rule"`
	RuleName     string     `json:"rule_name"`
	Confidence   float64    `json:"confidence"`
	TargetOrgan  *string    `json:"target_organ"`
	TargetOrg    *string    `json:"target_org"`
	TargetRepo   *string    `json:"target_repo"`
	TargetSubdir *string    `json:"target_subdir"`
	Status       string     `json:"status"`
	ClassifiedAt time.Time  `json:"classified_at"`
	ValidatedBy  *string    `json:"validated_by"`
	ValidatedAt  *time.Time `json:"validated_at"`
}

// FromClassifier projects a rule chain verdict into a persistable record.
func FromClassifier(entryID uuid.UUID, c *classifier.Classification) Record {
	rec := Record{
		EntryID:    entryID,
		Rule:       c.Rule,
		RuleName:   c.RuleName,
		Confidence: c.Confidence,
		Status:     string(c.Status),
		TargetRepo: c.TargetRepo,
	}
	if c.TargetOrgan != "" {
		rec.TargetOrgan = &c.TargetOrgan
	}
	if c.TargetOrg != "" {
		rec.TargetOrg = &c.TargetOrg
	}
	if c.TargetSubdir != "" {
		rec.TargetSubdir = &c.TargetSubdir
	}
	return rec
}

// ValidateCommand carries the data needed to confirm a classification.
// ValidatedBy identifies the human who reviewed the verdict.
type ValidateCommand struct {
	ValidatedBy string `json:"validated_by"`
}

// UpdateCommand carries a manual reroute. The target fields overwrite the
// rule chain's verdict and the record's status flips to CLASSIFIED.
// UpdatedBy identifies the human who made the call (stored as validated_by).
type UpdateCommand struct {
	TargetOrgan  string  `json:"target_organ"`
	TargetOrg    string  `json:"target_org"`
	TargetRepo   *string `json:"target_repo"`
	TargetSubdir string  `json:"target_subdir"`
	UpdatedBy    string  `json:"updated_by"`
}
