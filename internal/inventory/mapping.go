package inventory

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/pkg/query"
	"github.com/4jp/alchemia/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "inventory", "i").
	Project("id", "ID").
	Project("run_id", "RunID").
	Project("path", "Path").
	Project("relative_path", "RelativePath").
	Project("source_dir", "SourceDir").
	Project("parent_dir", "ParentDir").
	Project("filename", "Filename").
	Project("extension", "Extension").
	Project("mime_type", "MimeType").
	Project("size_bytes", "SizeBytes").
	Project("sha256", "SHA256").
	Project("last_modified", "LastModified").
	Project("depth", "Depth").
	Project("page_count", "PageCount").
	Project("duplicate", "Duplicate").
	Project("duplicate_group", "DuplicateGroup").
	Project("duplicate_of", "DuplicateOf").
	Project("manifest", "Manifest").
	Project("sidecar", "Sidecar")

var defaultSort = query.SortField{Field: "Path"}

// Filters contains optional filtering criteria for inventory queries.
// Nil fields are ignored. Classified filters by the presence of a
// classification row for the entry.
type Filters struct {
	RunID      *uuid.UUID `json:"run_id,omitempty"`
	Extension  *string    `json:"extension,omitempty"`
	Duplicate  *bool      `json:"duplicate,omitempty"`
	Classified *bool      `json:"classified,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("RunID", f.RunID).
		WhereEquals("Extension", f.Extension).
		WhereEquals("Duplicate", f.Duplicate)

	if f.Classified != nil {
		expr := "EXISTS (SELECT 1 FROM public.classifications c WHERE c.entry_id = i.id)"
		if !*f.Classified {
			expr = "NOT " + expr
		}
		b.WhereExpr(expr)
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if r := values.Get("run_id"); r != "" {
		if id, err := uuid.Parse(r); err == nil {
			f.RunID = &id
		}
	}

	if e := values.Get("extension"); e != "" {
		f.Extension = &e
	}

	if d := values.Get("duplicate"); d != "" {
		if v, err := strconv.ParseBool(d); err == nil {
			f.Duplicate = &v
		}
	}

	if c := values.Get("classified"); c != "" {
		if v, err := strconv.ParseBool(c); err == nil {
			f.Classified = &v
		}
	}

	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	var manifestRaw, sidecarRaw []byte

	err := s.Scan(
		&e.ID,
		&e.RunID,
		&e.Path,
		&e.RelativePath,
		&e.SourceDir,
		&e.ParentDir,
		&e.Filename,
		&e.Extension,
		&e.MimeType,
		&e.SizeBytes,
		&e.SHA256,
		&e.LastModified,
		&e.Depth,
		&e.PageCount,
		&e.Duplicate,
		&e.DuplicateGroup,
		&e.DuplicateOf,
		&manifestRaw,
		&sidecarRaw,
	)
	if err != nil {
		return e, err
	}

	if len(manifestRaw) > 0 {
		var m intake.Manifest
		if err := json.Unmarshal(manifestRaw, &m); err != nil {
			return e, fmt.Errorf("unmarshal manifest: %w", err)
		}
		e.Manifest = &m
	}

	if len(sidecarRaw) > 0 {
		e.Sidecar = json.RawMessage(sidecarRaw)
	}

	return e, nil
}
