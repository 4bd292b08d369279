package classifications

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/pkg/query"
	"github.com/4jp/alchemia/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifications", "c").
	Project("id", "ID").
	Project("entry_id", "EntryID").
	Project("rule", "Rule").
	Project("rule_name", "RuleName").
	Project("confidence", "Confidence").
	Project("target_organ", "TargetOrgan").
	Project("target_org", "TargetOrg").
	Project("target_repo", "TargetRepo").
	Project("target_subdir", "TargetSubdir").
	Project("status", "Status").
	Project("classified_at", "ClassifiedAt").
	Project("validated_by", "ValidatedBy").
	Project("validated_at", "ValidatedAt")

var defaultSort = query.SortField{
	Field:      "ClassifiedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for classification queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Rule        *int       `json:"rule,omitempty"`
	Status      *string    `json:"status,omitempty"`
	TargetOrgan *string    `json:"target_organ,omitempty"`
	TargetOrg   *string    `json:"target_org,omitempty"`
	EntryID     *uuid.UUID `json:"entry_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Rule", f.Rule).
		WhereEquals("Status", f.Status).
		WhereEquals("TargetOrgan", f.TargetOrgan).
		WhereEquals("TargetOrg", f.TargetOrg).
		WhereEquals("EntryID", f.EntryID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if r := values.Get("rule"); r != "" {
		if n, err := strconv.Atoi(r); err == nil {
			f.Rule = &n
		}
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if o := values.Get("target_organ"); o != "" {
		f.TargetOrgan = &o
	}

	if o := values.Get("target_org"); o != "" {
		f.TargetOrg = &o
	}

	if e := values.Get("entry_id"); e != "" {
		if id, err := uuid.Parse(e); err == nil {
			f.EntryID = &id
		}
	}

	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record

	err := s.Scan(
		&r.ID,
		&r.EntryID,
		&r.Rule,
		&r.RuleName,
		&r.Confidence,
		&r.TargetOrgan,
		&r.TargetOrg,
		&r.TargetRepo,
		&r.TargetSubdir,
		&r.Status,
		&r.ClassifiedAt,
		&r.ValidatedBy,
		&r.ValidatedAt,
	)

	return r, err
}
