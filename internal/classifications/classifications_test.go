package classifications_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/classifications"
	"github.com/4jp/alchemia/internal/classifier"
	"github.com/4jp/alchemia/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", classifications.ErrNotFound, http.StatusNotFound},
		{"duplicate", classifications.ErrDuplicate, http.StatusConflict},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", classifications.ErrNotFound), http.StatusNotFound},
		{"wrapped duplicate", fmt.Errorf("insert failed: %w", classifications.ErrDuplicate), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifications.MapHTTPStatus(tt.err)
			if got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFromClassifier(t *testing.T) {
	entryID := uuid.New()

	t.Run("resolved verdict", func(t *testing.T) {
		c := &classifier.Classification{
			Rule:         1,
			RuleName:     "direct_repo_match",
			Confidence:   1.0,
			TargetOrgan:  "ORGAN-I",
			TargetOrg:    "organvm-i-theoria",
			TargetRepo:   ptr("some-repo"),
			TargetSubdir: "docs/source-materials/theory/",
			Status:       classifier.StatusClassified,
		}

		rec := classifications.FromClassifier(entryID, c)

		if rec.EntryID != entryID {
			t.Errorf("entry_id = %v, want %v", rec.EntryID, entryID)
		}
		if rec.Rule != 1 || rec.RuleName != "direct_repo_match" {
			t.Errorf("rule = %d %q", rec.Rule, rec.RuleName)
		}
		if rec.Confidence != 1.0 {
			t.Errorf("confidence = %v, want 1.0", rec.Confidence)
		}
		if rec.TargetOrgan == nil || *rec.TargetOrgan != "ORGAN-I" {
			t.Errorf("target_organ = %v, want ORGAN-I", rec.TargetOrgan)
		}
		if rec.TargetOrg == nil || *rec.TargetOrg != "organvm-i-theoria" {
			t.Errorf("target_org = %v", rec.TargetOrg)
		}
		if rec.TargetRepo == nil || *rec.TargetRepo != "some-repo" {
			t.Errorf("target_repo = %v", rec.TargetRepo)
		}
		if rec.TargetSubdir == nil || *rec.TargetSubdir != "docs/source-materials/theory/" {
			t.Errorf("target_subdir = %v", rec.TargetSubdir)
		}
		if rec.Status != string(classifier.StatusClassified) {
			t.Errorf("status = %q", rec.Status)
		}
	})

	t.Run("unresolved verdict keeps nil targets", func(t *testing.T) {
		c := &classifier.Classification{
			Rule:       7,
			RuleName:   "pending_review",
			Confidence: 0.0,
			Status:     classifier.StatusPendingReview,
		}

		rec := classifications.FromClassifier(entryID, c)

		if rec.TargetOrgan != nil || rec.TargetOrg != nil || rec.TargetSubdir != nil {
			t.Errorf("targets should be nil: %+v", rec)
		}
		if rec.TargetRepo != nil {
			t.Errorf("target_repo = %v, want nil", rec.TargetRepo)
		}
		if rec.Status != string(classifier.StatusPendingReview) {
			t.Errorf("status = %q", rec.Status)
		}
	})
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		id := uuid.New()
		values := url.Values{
			"rule":         {"3"},
			"status":       {"CLASSIFIED"},
			"target_organ": {"ORGAN-II"},
			"target_org":   {"organvm-ii-poiesis"},
			"entry_id":     {id.String()},
		}

		f := classifications.FiltersFromQuery(values)

		if f.Rule == nil || *f.Rule != 3 {
			t.Errorf("Rule = %v, want 3", f.Rule)
		}
		if f.Status == nil || *f.Status != "CLASSIFIED" {
			t.Errorf("Status = %v, want CLASSIFIED", f.Status)
		}
		if f.TargetOrgan == nil || *f.TargetOrgan != "ORGAN-II" {
			t.Errorf("TargetOrgan = %v, want ORGAN-II", f.TargetOrgan)
		}
		if f.TargetOrg == nil || *f.TargetOrg != "organvm-ii-poiesis" {
			t.Errorf("TargetOrg = %v", f.TargetOrg)
		}
		if f.EntryID == nil || *f.EntryID != id {
			t.Errorf("EntryID = %v, want %s", f.EntryID, id)
		}
	})

	t.Run("empty params yield nil fields", func(t *testing.T) {
		f := classifications.FiltersFromQuery(url.Values{})

		if f.Rule != nil || f.Status != nil || f.TargetOrgan != nil || f.TargetOrg != nil || f.EntryID != nil {
			t.Errorf("want all nil, got %+v", f)
		}
	})

	t.Run("invalid rule ignored", func(t *testing.T) {
		f := classifications.FiltersFromQuery(url.Values{"rule": {"many"}})
		if f.Rule != nil {
			t.Errorf("Rule = %v, want nil for invalid int", f.Rule)
		}
	})

	t.Run("invalid entry_id ignored", func(t *testing.T) {
		f := classifications.FiltersFromQuery(url.Values{"entry_id": {"not-a-uuid"}})
		if f.EntryID != nil {
			t.Errorf("EntryID = %v, want nil for invalid UUID", f.EntryID)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	proj := query.
		NewProjectionMap("public", "classifications", "c").
		Project("rule", "Rule").
		Project("status", "Status").
		Project("target_organ", "TargetOrgan").
		Project("target_org", "TargetOrg").
		Project("entry_id", "EntryID")

	t.Run("no filters produces no WHERE clause", func(t *testing.T) {
		b := query.NewBuilder(proj)
		f := classifications.Filters{}
		f.Apply(b)
		sql, args := b.Build()

		wantSQL := "SELECT c.rule, c.status, c.target_organ, c.target_org, c.entry_id FROM public.classifications c"
		if sql != wantSQL {
			t.Errorf("sql = %q, want %q", sql, wantSQL)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want empty", args)
		}
	})

	t.Run("single filter binds one arg", func(t *testing.T) {
		b := query.NewBuilder(proj)
		f := classifications.Filters{Status: ptr("PENDING_REVIEW")}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 1 {
			t.Fatalf("args length = %d, want 1", len(args))
		}
	})

	t.Run("multiple filters combine with AND", func(t *testing.T) {
		id := uuid.New()
		b := query.NewBuilder(proj)
		f := classifications.Filters{
			Rule:      ptr(6),
			Status:    ptr("CLASSIFIED"),
			TargetOrg: ptr("organvm-i-theoria"),
			EntryID:   &id,
		}
		f.Apply(b)
		_, args := b.Build()

		if len(args) != 4 {
			t.Errorf("args length = %d, want 4", len(args))
		}
	})
}
