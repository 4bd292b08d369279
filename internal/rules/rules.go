// Package rules holds the static lookup tables that drive the classification
// rule chain: name variants, staging directories, bulk directory routing,
// intake markers, manifest categories, organ keyword lexicons, and the
// extension-to-subdirectory mapping. The tables are declarative data loaded
// from TOML, never code, so they can be extended without touching the chain.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed rules.toml
var embedded []byte

// BulkDir routes a non-registry directory to an organ/org pair.
// Reason is audit metadata only.
type BulkDir struct {
	Dir    string `toml:"dir"`
	Organ  string `toml:"organ"`
	Org    string `toml:"org"`
	Reason string `toml:"reason"`
}

// Marker routes files whose path contains a known intake token.
// Repo is empty when the marker routes to an organ without pinning a
// repository. Category, when set, overrides the extension-derived
// subdirectory category.
type Marker struct {
	Token      string  `toml:"token"`
	PathToken  string  `toml:"path_token"`
	RuleName   string  `toml:"rule_name"`
	Confidence float64 `toml:"confidence"`
	Organ      string  `toml:"organ"`
	Org        string  `toml:"org"`
	Repo       string  `toml:"repo"`
	Category   string  `toml:"category"`
}

// ManifestCategory maps a manifest category prefix to an organ.
// Matching is by containment against the lowercased manifest category.
type ManifestCategory struct {
	Prefix string `toml:"prefix"`
	Organ  string `toml:"organ"`
}

// Organ is a keyword lexicon for the content heuristic. Declared order in
// the table is the deterministic tie-break order.
type Organ struct {
	Name     string   `toml:"name"`
	Org      string   `toml:"org"`
	Keywords []string `toml:"keywords"`
}

// Tables bundles every lookup table the classifier consumes.
type Tables struct {
	DefaultCategory    string             `toml:"default_category"`
	TextExtensions     []string           `toml:"text_extensions"`
	NameVariants       map[string]string  `toml:"name_variants"`
	StagingOrgs        map[string]string  `toml:"staging_orgs"`
	OrgOrgans          map[string]string  `toml:"org_organs"`
	BulkDirs           []BulkDir          `toml:"bulk_dirs"`
	Markers            []Marker           `toml:"markers"`
	ManifestCategories []ManifestCategory `toml:"manifest_categories"`
	Organs             []Organ            `toml:"organs"`
	ExtensionCategory  map[string]string  `toml:"extension_categories"`

	bulkIndex  map[string]BulkDir
	organIndex map[string]Organ
	textExt    map[string]struct{}
}

// Default returns the tables parsed from the embedded reference
// configuration. The embedded document is validated at build time by tests,
// so a parse failure here indicates a corrupted binary.
func Default() (*Tables, error) {
	return parse(embedded)
}

// Load reads tables from an external TOML document, allowing the reference
// configuration to be overridden without rebuilding.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Tables, error) {
	var t Tables
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	t.index()
	return &t, nil
}

func (t *Tables) validate() error {
	if t.DefaultCategory == "" {
		return fmt.Errorf("default_category required")
	}
	if len(t.Organs) == 0 {
		return fmt.Errorf("at least one organ lexicon required")
	}
	for _, o := range t.Organs {
		if o.Name == "" || o.Org == "" {
			return fmt.Errorf("organ entries require name and org")
		}
	}
	for _, m := range t.Markers {
		if m.Token == "" || m.RuleName == "" {
			return fmt.Errorf("marker entries require token and rule_name")
		}
		if m.Confidence <= 0 || m.Confidence > 1 {
			return fmt.Errorf("marker %s: confidence out of range", m.Token)
		}
	}
	for _, b := range t.BulkDirs {
		if b.Dir == "" || b.Organ == "" || b.Org == "" {
			return fmt.Errorf("bulk_dirs entries require dir, organ, and org")
		}
	}
	return nil
}

func (t *Tables) index() {
	t.bulkIndex = make(map[string]BulkDir, len(t.BulkDirs))
	for _, b := range t.BulkDirs {
		t.bulkIndex[b.Dir] = b
	}

	t.organIndex = make(map[string]Organ, len(t.Organs))
	for _, o := range t.Organs {
		t.organIndex[o.Name] = o
	}

	t.textExt = make(map[string]struct{}, len(t.TextExtensions))
	for _, ext := range t.TextExtensions {
		t.textExt[ext] = struct{}{}
	}
}

// Variant returns the canonical registry repo name for a known directory
// name variant.
func (t *Tables) Variant(dir string) (string, bool) {
	name, ok := t.NameVariants[dir]
	return name, ok
}

// StagingOrg returns the destination org for a staging directory.
func (t *Tables) StagingOrg(dir string) (string, bool) {
	org, ok := t.StagingOrgs[dir]
	return org, ok
}

// OrganForOrg returns the display organ label for an org name, or "" when
// the org has no mapping.
func (t *Tables) OrganForOrg(org string) string {
	return t.OrgOrgans[org]
}

// BulkDir returns the bulk routing entry for a directory name.
func (t *Tables) BulkDir(dir string) (BulkDir, bool) {
	b, ok := t.bulkIndex[dir]
	return b, ok
}

// ManifestOrgan returns the organ for a manifest category using containment
// matching in declared table order.
func (t *Tables) ManifestOrgan(category string) (string, bool) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "", false
	}
	for _, mc := range t.ManifestCategories {
		if strings.Contains(category, mc.Prefix) {
			return mc.Organ, true
		}
	}
	return "", false
}

// OrganInfo returns the lexicon entry for an organ name.
func (t *Tables) OrganInfo(name string) (Organ, bool) {
	o, ok := t.organIndex[name]
	return o, ok
}

// Category returns the subdirectory category for a file extension, falling
// back to the default category.
func (t *Tables) Category(ext string) string {
	if cat, ok := t.ExtensionCategory[ext]; ok {
		return cat
	}
	return t.DefaultCategory
}

// IsText reports whether the extension participates in the content
// keyword heuristic.
func (t *Tables) IsText(ext string) bool {
	_, ok := t.textExt[ext]
	return ok
}
