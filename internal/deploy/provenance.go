package deploy

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/4jp/alchemia/internal/intake"
)

const provenanceSchemaVersion = "1.0"

// Material is one provenance line item for a destination repository.
type Material struct {
	Filename     string    `yaml:"filename" json:"filename"`
	SourcePath   string    `yaml:"source_path" json:"source_path"`
	SHA256       string    `yaml:"sha256" json:"sha256"`
	SizeBytes    int64     `yaml:"size_bytes" json:"size_bytes"`
	LastModified time.Time `yaml:"last_modified" json:"last_modified"`
	Rule         string    `yaml:"classification_rule" json:"classification_rule"`
	Confidence   float64   `yaml:"confidence" json:"confidence"`
	TargetSubdir string    `yaml:"target_subdir" json:"target_subdir"`
}

type provenanceDoc struct {
	SchemaVersion  string     `yaml:"schema_version"`
	Repo           string     `yaml:"repo"`
	Org            string     `yaml:"org"`
	Generated      time.Time  `yaml:"generated"`
	TotalMaterials int        `yaml:"total_materials"`
	Materials      []Material `yaml:"materials"`
}

// RepoProvenance renders the PROVENANCE.yaml document for one repository,
// listing every entry classified into it. Returns nil when no entry
// targets the repository.
func RepoProvenance(entries []intake.Entry, org, repo string, now time.Time) ([]byte, error) {
	var materials []Material
	for i := range entries {
		e := &entries[i]
		c := e.Classification
		if c == nil || c.TargetOrg != org {
			continue
		}
		if c.TargetRepo == nil || *c.TargetRepo != repo {
			continue
		}

		materials = append(materials, Material{
			Filename:     e.Filename,
			SourcePath:   e.Path,
			SHA256:       e.SHA256,
			SizeBytes:    e.SizeBytes,
			LastModified: e.LastModified,
			Rule:         c.RuleName,
			Confidence:   c.Confidence,
			TargetSubdir: c.TargetSubdir,
		})
	}

	if len(materials) == 0 {
		return nil, nil
	}

	doc := provenanceDoc{
		SchemaVersion:  provenanceSchemaVersion,
		Repo:           repo,
		Org:            org,
		Generated:      now.UTC(),
		TotalMaterials: len(materials),
		Materials:      materials,
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal provenance: %w", err)
	}
	return data, nil
}

// SourceTarget records where one source file was routed.
type SourceTarget struct {
	Target     string  `json:"target"`
	Organ      string  `json:"organ"`
	Rule       string  `json:"rule"`
	Confidence float64 `json:"confidence"`
}

// SourceRef is one source file listed under a target repository.
type SourceRef struct {
	SourcePath string `json:"source_path"`
	Filename   string `json:"filename"`
	SHA256     string `json:"sha256"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ProvenanceRegistry is the master traceability document mapping sources
// to targets and targets back to their sources.
type ProvenanceRegistry struct {
	SchemaVersion    string                  `json:"schema_version"`
	Generated        time.Time               `json:"generated"`
	TotalClassified  int                     `json:"total_classified"`
	TotalTargetRepos int                     `json:"total_target_repos"`
	SourceToRepo     map[string]SourceTarget `json:"source_to_repo"`
	RepoToSources    map[string][]SourceRef  `json:"repo_to_sources"`
}

// BuildProvenanceRegistry builds the master registry over every classified
// entry, including those routed to an org without a pinned repository.
func BuildProvenanceRegistry(entries []intake.Entry, now time.Time) *ProvenanceRegistry {
	reg := &ProvenanceRegistry{
		SchemaVersion: provenanceSchemaVersion,
		Generated:     now.UTC(),
		SourceToRepo:  make(map[string]SourceTarget),
		RepoToSources: make(map[string][]SourceRef),
	}

	for i := range entries {
		e := &entries[i]
		c := e.Classification
		if c == nil || !c.Classified() {
			continue
		}

		repo := UnspecifiedRepo
		if c.TargetRepo != nil {
			repo = *c.TargetRepo
		}
		target := fmt.Sprintf("%s/%s", c.TargetOrg, repo)

		reg.SourceToRepo[e.Path] = SourceTarget{
			Target:     target,
			Organ:      c.TargetOrgan,
			Rule:       c.RuleName,
			Confidence: c.Confidence,
		}
		reg.RepoToSources[target] = append(reg.RepoToSources[target], SourceRef{
			SourcePath: e.Path,
			Filename:   e.Filename,
			SHA256:     e.SHA256,
			SizeBytes:  e.SizeBytes,
		})
	}

	for _, refs := range reg.RepoToSources {
		sort.Slice(refs, func(i, j int) bool {
			return refs[i].SourcePath < refs[j].SourcePath
		})
	}

	reg.TotalClassified = len(reg.SourceToRepo)
	reg.TotalTargetRepos = len(reg.RepoToSources)
	return reg
}

// Marshal renders the registry as indented JSON.
func (r *ProvenanceRegistry) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal provenance registry: %w", err)
	}
	return data, nil
}
