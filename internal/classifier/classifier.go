// Package classifier implements the deterministic, priority-ordered rule
// chain that maps a file record onto a destination organ, org, and
// repository. The chain is evaluated in fixed order and the first matching
// rule wins; rule 7 is the unconditional fallback that flags the record for
// human review.
package classifier

import (
	"fmt"
	"strings"

	"github.com/4jp/alchemia/internal/registry"
	"github.com/4jp/alchemia/internal/rules"
)

// Status is the terminal state of a classification.
type Status string

const (
	// StatusClassified marks a record routed to a destination.
	StatusClassified Status = "CLASSIFIED"
	// StatusPendingReview marks a record awaiting human adjudication.
	StatusPendingReview Status = "PENDING_REVIEW"
)

// Rule confidence weights for the reference configuration. Marker rules
// carry their confidence in the rules table.
const (
	confidenceDirect   = 1.0
	confidenceVariant  = 0.95
	confidenceStaging  = 0.9
	confidenceBulkDir  = 0.75
	confidenceManifest = 0.8

	keywordBase      = 0.5
	keywordPerMatch  = 0.1
	keywordCap       = 0.85
	keywordThreshold = 2
)

// DefaultAnchor is the path segment whose following component names the
// top-level workspace directory.
const DefaultAnchor = "Workspace"

// DefaultScanLines bounds the content read for the keyword heuristic.
const DefaultScanLines = 50

// FileRecord is the minimal view of an inventory entry the chain consumes.
// ManifestCategory is empty when the entry has no cross-referenced manifest
// record.
type FileRecord struct {
	Path             string
	RelativePath     string
	Filename         string
	Extension        string
	ManifestCategory string
}

// Classification is the outcome of running the rule chain on one record.
// TargetRepo is nil when the matched rule routes to an org without pinning
// a specific repository; rule 7 leaves every target field empty.
type Classification struct {
	Rule         int     `json:"rule"`
	RuleName     string  `json:"rule_name"`
	Confidence   float64 `json:"confidence"`
	TargetOrgan  string  `json:"target_organ,omitempty"`
	TargetOrg    string  `json:"target_org,omitempty"`
	TargetRepo   *string `json:"target_repo,omitempty"`
	TargetSubdir string  `json:"target_subdir,omitempty"`
	Status       Status  `json:"status"`
}

// Classified reports whether the record was routed to a destination.
func (c Classification) Classified() bool {
	return c.Status == StatusClassified
}

// Classifier evaluates the rule chain against an injected registry and rule
// tables. It holds no mutable state and is safe for reuse across records.
type Classifier struct {
	reg       *registry.Registry
	tables    *rules.Tables
	anchor    string
	scanLines int
	readLines lineReader
}

// Option adjusts classifier construction.
type Option func(*Classifier)

// WithAnchor overrides the path anchor segment used to derive the
// top-level directory name.
func WithAnchor(anchor string) Option {
	return func(c *Classifier) { c.anchor = anchor }
}

// WithScanLines overrides the number of lines read by the content
// keyword heuristic.
func WithScanLines(n int) Option {
	return func(c *Classifier) { c.scanLines = n }
}

// New creates a Classifier over the given registry and rule tables.
func New(reg *registry.Registry, tables *rules.Tables, opts ...Option) *Classifier {
	c := &Classifier{
		reg:       reg,
		tables:    tables,
		anchor:    DefaultAnchor,
		scanLines: DefaultScanLines,
		readLines: readFirstLines,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the rule chain and returns exactly one classification.
func (c *Classifier) Classify(rec FileRecord) Classification {
	toplevel := c.toplevelDir(rec.Path)
	subdir := c.subdirFor(rec.Extension)

	// Rule 1: top-level directory exactly matches a registry repo name.
	if repo, ok := c.reg.Find(toplevel); ok {
		return Classification{
			Rule:         1,
			RuleName:     "direct_repo_match",
			Confidence:   confidenceDirect,
			TargetOrgan:  repo.Organ,
			TargetOrg:    repo.Org,
			TargetRepo:   &repo.Name,
			TargetSubdir: subdir,
			Status:       StatusClassified,
		}
	}

	// Rule 2: known name variant resolving to a registry repo.
	if canonical, ok := c.tables.Variant(toplevel); ok {
		if repo, ok := c.reg.Find(canonical); ok {
			return Classification{
				Rule:         2,
				RuleName:     "name_variant_match",
				Confidence:   confidenceVariant,
				TargetOrgan:  repo.Organ,
				TargetOrg:    repo.Org,
				TargetRepo:   &repo.Name,
				TargetSubdir: subdir,
				Status:       StatusClassified,
			}
		}
	}

	// Rule 3: staging directory routed to an org, repo left for manual
	// assignment.
	if org, ok := c.tables.StagingOrg(toplevel); ok {
		return Classification{
			Rule:         3,
			RuleName:     "staging_dir_match",
			Confidence:   confidenceStaging,
			TargetOrgan:  c.tables.OrganForOrg(org),
			TargetOrg:    org,
			TargetSubdir: subdir,
			Status:       StatusClassified,
		}
	}

	// Rule 3b: bulk directory-to-organ routing, reported as rule 3.
	if bulk, ok := c.tables.BulkDir(toplevel); ok {
		return Classification{
			Rule:         3,
			RuleName:     "dir_to_organ",
			Confidence:   confidenceBulkDir,
			TargetOrgan:  bulk.Organ,
			TargetOrg:    bulk.Org,
			TargetSubdir: subdir,
			Status:       StatusClassified,
		}
	}

	// Rule 4: specialized intake markers, first token found wins.
	if cls, ok := c.matchMarker(rec, subdir); ok {
		return cls
	}

	// Rule 5: manifest category containment lookup.
	if organ, ok := c.tables.ManifestOrgan(rec.ManifestCategory); ok {
		var org string
		if info, ok := c.tables.OrganInfo(organ); ok {
			org = info.Org
		}
		return Classification{
			Rule:         5,
			RuleName:     "manifest_category",
			Confidence:   confidenceManifest,
			TargetOrgan:  organ,
			TargetOrg:    org,
			TargetSubdir: subdir,
			Status:       StatusClassified,
		}
	}

	// Rule 6: content keyword heuristic for text-like files.
	if cls, ok := c.matchKeywords(rec, subdir); ok {
		return cls
	}

	// Rule 7: unresolved, queued for human review.
	return Classification{
		Rule:       7,
		RuleName:   "unresolved",
		Confidence: 0.0,
		Status:     StatusPendingReview,
	}
}

func (c *Classifier) matchMarker(rec FileRecord, subdir string) (Classification, bool) {
	for _, m := range c.tables.Markers {
		pathToken := m.PathToken
		if pathToken == "" {
			pathToken = m.Token
		}
		if !strings.Contains(rec.RelativePath, m.Token) && !strings.Contains(rec.Path, pathToken) {
			continue
		}

		target := subdir
		if m.Category != "" {
			target = renderSubdir(m.Category)
		}

		cls := Classification{
			Rule:         4,
			RuleName:     m.RuleName,
			Confidence:   m.Confidence,
			TargetOrgan:  m.Organ,
			TargetOrg:    m.Org,
			TargetSubdir: target,
			Status:       StatusClassified,
		}
		if m.Repo != "" {
			repo := m.Repo
			cls.TargetRepo = &repo
		}
		return cls, true
	}
	return Classification{}, false
}

// matchKeywords scans the first lines of the file, counting distinct
// lexicon keywords per organ. The organ with the strictly highest count
// wins; declared table order breaks ties. Unreadable content degrades to
// empty content and the rule falls through.
func (c *Classifier) matchKeywords(rec FileRecord, subdir string) (Classification, bool) {
	if !c.tables.IsText(rec.Extension) {
		return Classification{}, false
	}

	content := c.readLines(rec.Path, c.scanLines)
	if content == "" {
		return Classification{}, false
	}

	var best rules.Organ
	bestScore := 0
	for _, organ := range c.tables.Organs {
		score := 0
		for _, kw := range organ.Keywords {
			if strings.Contains(content, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = organ
		}
	}

	if bestScore < keywordThreshold {
		return Classification{}, false
	}

	confidence := keywordBase + float64(bestScore)*keywordPerMatch
	if confidence > keywordCap {
		confidence = keywordCap
	}

	return Classification{
		Rule:         6,
		RuleName:     "content_keyword",
		Confidence:   confidence,
		TargetOrgan:  best.Name,
		TargetOrg:    best.Org,
		TargetSubdir: subdir,
		Status:       StatusClassified,
	}, true
}

// toplevelDir returns the path component immediately following the anchor
// segment, or "" when the anchor is absent or terminal.
func (c *Classifier) toplevelDir(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == c.anchor && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func (c *Classifier) subdirFor(ext string) string {
	return renderSubdir(c.tables.Category(ext))
}

func renderSubdir(category string) string {
	return fmt.Sprintf("docs/source-materials/%s/", category)
}
