// Package intake crawls the configured source directories and produces the
// immutable file inventory the rest of the pipeline consumes: metadata,
// content fingerprints, duplicate marking, and manifest/sidecar
// cross-references.
package intake

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/classifier"
)

// HashUnreadable is the fingerprint sentinel for files that could not be
// read. Entries carrying it never participate in duplicate grouping.
const HashUnreadable = "ERROR_UNREADABLE"

// Manifest is the cross-referenced record from the manifest index table.
type Manifest struct {
	ID           string `json:"manifest_id"`
	Category     string `json:"manifest_category"`
	Tags         string `json:"manifest_tags"`
	Type         string `json:"manifest_type"`
	Status       string `json:"manifest_status"`
	PrimaryUse   string `json:"manifest_primary_use"`
	Phase        string `json:"manifest_phase"`
	Dependencies string `json:"manifest_dependencies"`
}

// Entry is one inventoried file. Fields are fixed at intake; only the
// Classification is appended afterward.
type Entry struct {
	ID             uuid.UUID                  `json:"id"`
	Path           string                     `json:"path"`
	RelativePath   string                     `json:"relative_path"`
	SourceDir      string                     `json:"source_dir"`
	ParentDir      string                     `json:"parent_dir"`
	Filename       string                     `json:"filename"`
	Extension      string                     `json:"extension"`
	MimeType       string                     `json:"mime_type"`
	SizeBytes      int64                      `json:"size_bytes"`
	SHA256         string                     `json:"sha256"`
	LastModified   time.Time                  `json:"last_modified"`
	Depth          int                        `json:"depth"`
	PageCount      *int                       `json:"page_count,omitempty"`
	Duplicate      bool                       `json:"duplicate"`
	DuplicateGroup string                     `json:"duplicate_group,omitempty"`
	DuplicateOf    *string                    `json:"duplicate_of,omitempty"`
	Manifest       *Manifest                  `json:"manifest,omitempty"`
	Sidecar        json.RawMessage            `json:"sidecar,omitempty"`
	Classification *classifier.Classification `json:"classification,omitempty"`
}

// Record projects the entry into the view the classifier consumes.
func (e *Entry) Record() classifier.FileRecord {
	rec := classifier.FileRecord{
		Path:         e.Path,
		RelativePath: e.RelativePath,
		Filename:     e.Filename,
		Extension:    e.Extension,
	}
	if e.Manifest != nil {
		rec.ManifestCategory = e.Manifest.Category
	}
	return rec
}

// Stem returns the filename without its final extension.
func (e *Entry) Stem() string {
	return e.Filename[:len(e.Filename)-len(filepath.Ext(e.Filename))]
}
