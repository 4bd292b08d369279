package registry

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDocument = `{
	"organs": {
		"ORGAN-I": {
			"repositories": [
				{
					"name": "recursive-engine--generative-entity",
					"org": "organvm-i-theoria",
					"status": "ACTIVE",
					"implementation_status": "IMPLEMENTED",
					"description": "Core generative engine"
				},
				{
					"name": "metasystem-master",
					"org": "organvm-i-theoria",
					"status": "ACTIVE"
				}
			]
		},
		"ORGAN-II": {
			"repositories": [
				{
					"name": "dormant-experiment",
					"org": "organvm-ii-poiesis",
					"status": "ARCHIVED"
				}
			]
		}
	}
}`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if r.Len() != 3 {
		t.Errorf("len: got %d, want 3", r.Len())
	}

	repo, ok := r.Find("recursive-engine--generative-entity")
	if !ok {
		t.Fatal("expected repo")
	}
	if repo.Organ != "ORGAN-I" {
		t.Errorf("organ: got %q, want ORGAN-I", repo.Organ)
	}
	if repo.Description != "Core generative engine" {
		t.Errorf("description: got %q", repo.Description)
	}

	// Missing optional fields default to "".
	repo, ok = r.Find("metasystem-master")
	if !ok {
		t.Fatal("expected repo")
	}
	if repo.ImplementationStatus != "" || repo.Description != "" {
		t.Errorf("optional fields should default empty: %+v", repo)
	}
}

func TestFindUnknown(t *testing.T) {
	r, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := r.Find("nonexistent"); ok {
		t.Error("unexpected match")
	}
}

func TestOrgIndex(t *testing.T) {
	r, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	repos := r.Org("organvm-i-theoria")
	if len(repos) != 2 {
		t.Errorf("org repos: got %d, want 2", len(repos))
	}
	if len(r.Orgs()) != 2 {
		t.Errorf("orgs: got %d, want 2", len(r.Orgs()))
	}
}

func TestParseOrdering(t *testing.T) {
	// Repos and Orgs follow organ name order regardless of document map
	// iteration, so listings stay stable across runs.
	for run := 0; run < 10; run++ {
		r, err := Parse([]byte(sampleDocument))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		names := make([]string, len(r.Repos))
		for i, repo := range r.Repos {
			names[i] = repo.Name
		}
		want := []string{
			"recursive-engine--generative-entity",
			"metasystem-master",
			"dormant-experiment",
		}
		for i := range want {
			if names[i] != want[i] {
				t.Fatalf("repos order: got %v, want %v", names, want)
			}
		}

		orgs := r.Orgs()
		if orgs[0] != "organvm-i-theoria" || orgs[1] != "organvm-ii-poiesis" {
			t.Fatalf("orgs order: got %v", orgs)
		}
	}
}

func TestArchived(t *testing.T) {
	r, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !r.IsArchived("dormant-experiment") {
		t.Error("expected archived")
	}
	if r.IsArchived("metasystem-master") {
		t.Error("unexpected archived")
	}
	if r.ArchivedCount() != 1 {
		t.Errorf("archived count: got %d, want 1", r.ArchivedCount())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"organs": `},
		{"missing organs", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("len: got %d, want 3", r.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
