// Package registry loads the authoritative organ/org/repository registry
// document and provides the lookup indexes the classifier depends on.
// The registry is loaded once per run and treated as immutable; a document
// that cannot be read or parsed is fatal to the run.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// StatusArchived is the lifecycle status sentinel for archived repositories.
const StatusArchived = "ARCHIVED"

// Repo describes a destination repository in the registry.
type Repo struct {
	Name                 string `json:"name"`
	Org                  string `json:"org"`
	Organ                string `json:"organ"`
	Status               string `json:"status"`
	ImplementationStatus string `json:"implementation_status"`
	Description          string `json:"description"`
}

// Registry is the loaded registry document with derived lookup indexes.
type Registry struct {
	Repos []Repo

	byName   map[string]Repo
	byOrg    map[string][]Repo
	archived map[string]struct{}
}

type document struct {
	Organs map[string]struct {
		Repositories []struct {
			Name                 string `json:"name"`
			Org                  string `json:"org"`
			Status               string `json:"status"`
			ImplementationStatus string `json:"implementation_status"`
			Description          string `json:"description"`
		} `json:"repositories"`
	} `json:"organs"`
}

// Load reads and parses the registry document at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data)
}

// Parse builds a Registry from raw document bytes. Repositories missing
// status, implementation_status, or description default those fields to "".
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if doc.Organs == nil {
		return nil, fmt.Errorf("parse registry: missing organs")
	}

	r := &Registry{
		byName:   make(map[string]Repo),
		byOrg:    make(map[string][]Repo),
		archived: make(map[string]struct{}),
	}

	organs := make([]string, 0, len(doc.Organs))
	for organ := range doc.Organs {
		organs = append(organs, organ)
	}
	sort.Strings(organs)

	for _, organ := range organs {
		for _, repo := range doc.Organs[organ].Repositories {
			info := Repo{
				Name:                 repo.Name,
				Org:                  repo.Org,
				Organ:                organ,
				Status:               repo.Status,
				ImplementationStatus: repo.ImplementationStatus,
				Description:          repo.Description,
			}
			r.Repos = append(r.Repos, info)
			r.byName[info.Name] = info
			r.byOrg[info.Org] = append(r.byOrg[info.Org], info)

			if info.Status == StatusArchived {
				r.archived[info.Name] = struct{}{}
			}
		}
	}

	return r, nil
}

// Find returns the repository registered under the given canonical name.
func (r *Registry) Find(name string) (Repo, bool) {
	repo, ok := r.byName[name]
	return repo, ok
}

// Org returns all repositories owned by the given org.
func (r *Registry) Org(org string) []Repo {
	return r.byOrg[org]
}

// Orgs returns the set of org names present in the registry.
func (r *Registry) Orgs() []string {
	orgs := make([]string, 0, len(r.byOrg))
	for org := range r.byOrg {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	return orgs
}

// IsArchived reports whether the named repository is archived.
func (r *Registry) IsArchived(name string) bool {
	_, ok := r.archived[name]
	return ok
}

// ArchivedCount returns the number of archived repositories.
func (r *Registry) ArchivedCount() int {
	return len(r.archived)
}

// Len returns the number of registered repositories.
func (r *Registry) Len() int {
	return len(r.Repos)
}
