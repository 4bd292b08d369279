// Package inventory implements the persisted file inventory domain. It
// stores the intake stage's output in Postgres and serves the read model
// for the HTTP API: paginated listing with filters, and lookup by id.
package inventory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/intake"
)

// Entry is a persisted inventory row. It mirrors the inventory table
// schema; manifest and sidecar payloads are stored as JSONB.
type Entry struct {
	ID             uuid.UUID        `json:"id"`
	RunID          uuid.UUID        `json:"run_id"`
	Path           string           `json:"path"`
	RelativePath   string           `json:"relative_path"`
	SourceDir      string           `json:"source_dir"`
	ParentDir      string           `json:"parent_dir"`
	Filename       string           `json:"filename"`
	Extension      string           `json:"extension"`
	MimeType       string           `json:"mime_type"`
	SizeBytes      int64            `json:"size_bytes"`
	SHA256         string           `json:"sha256"`
	LastModified   time.Time        `json:"last_modified"`
	Depth          int              `json:"depth"`
	PageCount      *int             `json:"page_count,omitempty"`
	Duplicate      bool             `json:"duplicate"`
	DuplicateGroup *string          `json:"duplicate_group,omitempty"`
	DuplicateOf    *string          `json:"duplicate_of,omitempty"`
	Manifest       *intake.Manifest `json:"manifest,omitempty"`
	Sidecar        json.RawMessage  `json:"sidecar,omitempty"`
}

// FromIntake projects a crawled entry into a persistable row under a run.
func FromIntake(runID uuid.UUID, e *intake.Entry) Entry {
	row := Entry{
		ID:           e.ID,
		RunID:        runID,
		Path:         e.Path,
		RelativePath: e.RelativePath,
		SourceDir:    e.SourceDir,
		ParentDir:    e.ParentDir,
		Filename:     e.Filename,
		Extension:    e.Extension,
		MimeType:     e.MimeType,
		SizeBytes:    e.SizeBytes,
		SHA256:       e.SHA256,
		LastModified: e.LastModified,
		Depth:        e.Depth,
		PageCount:    e.PageCount,
		Duplicate:    e.Duplicate,
		DuplicateOf:  e.DuplicateOf,
		Manifest:     e.Manifest,
		Sidecar:      e.Sidecar,
	}
	if e.DuplicateGroup != "" {
		group := e.DuplicateGroup
		row.DuplicateGroup = &group
	}
	return row
}
