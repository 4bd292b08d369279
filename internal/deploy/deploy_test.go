package deploy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/4jp/alchemia/internal/classifier"
	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/internal/registry"
	"github.com/4jp/alchemia/pkg/lifecycle"
	"github.com/4jp/alchemia/pkg/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

func classified(ext string, size int64, repo *string) intake.Entry {
	return intake.Entry{
		Filename:  "file" + ext,
		Extension: ext,
		SizeBytes: size,
		Classification: &classifier.Classification{
			Rule:         1,
			RuleName:     "direct_repo_match",
			Confidence:   1.0,
			TargetOrgan:  "ORGAN-I",
			TargetOrg:    "organvm-i-theoria",
			TargetRepo:   repo,
			TargetSubdir: "docs/source-materials/theory/",
			Status:       classifier.StatusClassified,
		},
	}
}

func TestClassifyAction(t *testing.T) {
	repo := ptr("some-repo")

	tests := []struct {
		name   string
		entry  intake.Entry
		action Action
	}{
		{"markdown deploys directly", classified(".md", 10, repo), ActionDeploy},
		{"docx plans conversion", classified(".docx", 10, repo), ActionConvert},
		{"small pdf deploys", classified(".pdf", MaxBinarySize-1, repo), ActionDeploy},
		{"large pdf becomes reference", classified(".pdf", MaxBinarySize, repo), ActionReference},
		{"small image deploys", classified(".png", MaxImageSize-1, repo), ActionDeploy},
		{"large image becomes reference", classified(".png", MaxImageSize, repo), ActionReference},
		{"reference-only extension", classified(".zip", 10, repo), ActionReference},
		{"small unknown deploys", classified(".xyz", MaxUnknownSize-1, repo), ActionDeploy},
		{"large unknown becomes reference", classified(".xyz", MaxUnknownSize, repo), ActionReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyAction(&tt.entry); got != tt.action {
				t.Errorf("got %q, want %q", got, tt.action)
			}
		})
	}
}

func TestClassifyActionSkips(t *testing.T) {
	dup := classified(".md", 10, ptr("some-repo"))
	dup.Duplicate = true
	if got := ClassifyAction(&dup); got != ActionSkip {
		t.Errorf("duplicate: got %q, want skip", got)
	}

	pending := classified(".md", 10, nil)
	pending.Classification.Status = classifier.StatusPendingReview
	if got := ClassifyAction(&pending); got != ActionSkip {
		t.Errorf("pending review: got %q, want skip", got)
	}

	unclassified := intake.Entry{Extension: ".md"}
	if got := ClassifyAction(&unclassified); got != ActionSkip {
		t.Errorf("no classification: got %q, want skip", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"clean name untouched", "notes.md", "notes.md"},
		{"unsafe characters scrubbed", `what?is|this:file.md`, "what-is-this-file.md"},
		{"dashes collapsed", "a--b----c.md", "a-b-c.md"},
		{"leading and trailing trimmed", "--draft.md-", "draft.md"},
		{"interior dash before extension kept", "my|draft?.md", "my-draft-.md"},
		{"empty becomes unnamed", `"?"`, "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildPlanGrouping(t *testing.T) {
	repo := ptr("some-repo")
	entries := []intake.Entry{
		classified(".md", 10, repo),
		classified(".docx", 10, repo),
		classified(".zip", 10, repo),
		classified(".md", 10, nil),
	}

	pending := classified(".md", 10, repo)
	pending.Classification.Status = classifier.StatusPendingReview
	pending.Classification.TargetOrg = ""
	entries = append(entries, pending)

	plan := BuildPlan(entries)

	if len(plan.Destinations) != 2 {
		t.Fatalf("destinations: got %d, want 2", len(plan.Destinations))
	}

	dest, ok := plan.Find("organvm-i-theoria/some-repo")
	if !ok {
		t.Fatal("expected pinned destination")
	}
	if len(dest.Deploy) != 1 || len(dest.Convert) != 1 || len(dest.Reference) != 1 {
		t.Errorf("buckets: deploy=%d convert=%d reference=%d",
			len(dest.Deploy), len(dest.Convert), len(dest.Reference))
	}
	if !dest.Deployable() {
		t.Error("pinned destination with deploys should be deployable")
	}

	unpinned, ok := plan.Find("organvm-i-theoria/unspecified")
	if !ok {
		t.Fatal("expected unspecified destination")
	}
	if unpinned.Deployable() {
		t.Error("destination without repo should not be deployable")
	}

	deploy, convert, reference, _ := plan.Counts()
	if deploy != 2 || convert != 1 || reference != 1 {
		t.Errorf("counts: deploy=%d convert=%d reference=%d", deploy, convert, reference)
	}
}

func TestDeployPath(t *testing.T) {
	e := classified(".md", 10, ptr("some-repo"))
	e.Filename = "my|draft?.md"
	e.Classification.TargetSubdir = "docs/source-materials/specs/"

	if got := DeployPath(&e); got != "docs/source-materials/specs/my-draft-.md" {
		t.Errorf("got %q", got)
	}
}

// fakeStore records uploads and fails keys on demand.
type fakeStore struct {
	uploads  map[string][]byte
	failKeys map[string]struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		uploads:  make(map[string][]byte),
		failKeys: make(map[string]struct{}),
	}
}

func (f *fakeStore) Start(*lifecycle.Coordinator) error { return nil }

func (f *fakeStore) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	if _, fail := f.failKeys[key]; fail {
		return errors.New("upload rejected")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStore) Download(context.Context, string) (*storage.DownloadResult, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeStore) Find(context.Context, string) (*storage.BlobInfo, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeStore) List(context.Context, string, string, int32) (*storage.ListResult, error) {
	return &storage.ListResult{}, nil
}

func (f *fakeStore) Delete(context.Context, string) error { return nil }

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.uploads[key]
	return ok, nil
}

const deployRegistry = `{
	"organs": {
		"ORGAN-I": {
			"repositories": [
				{"name": "some-repo", "org": "organvm-i-theoria", "status": "ACTIVE"},
				{"name": "old-repo", "org": "organvm-i-theoria", "status": "ARCHIVED"}
			]
		}
	}
}`

func deployEntries(t *testing.T, repo string) []intake.Entry {
	t.Helper()
	dir := t.TempDir()

	var entries []intake.Entry
	for _, name := range []string{"a.md", "b.md"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("content of "+name), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		e := classified(".md", 10, ptr(repo))
		e.Filename = name
		e.Path = path
		e.MimeType = "text/markdown"
		entries = append(entries, e)
	}
	return entries
}

func TestDeployerExecute(t *testing.T) {
	reg, err := registry.Parse([]byte(deployRegistry))
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}

	store := newFakeStore()
	entries := deployEntries(t, "some-repo")
	plan := BuildPlan(entries)

	d := NewDeployer(store, reg, false, discardLogger())
	result, err := d.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Deployed != 2 || result.Failed != 0 {
		t.Fatalf("result: deployed=%d failed=%d", result.Deployed, result.Failed)
	}

	key := "organvm-i-theoria/some-repo/docs/source-materials/theory/a.md"
	if !bytes.Equal(store.uploads[key], []byte("content of a.md")) {
		t.Errorf("uploaded bytes for %s: %q", key, store.uploads[key])
	}
}

func TestDeployerContinuesAfterFailure(t *testing.T) {
	reg, err := registry.Parse([]byte(deployRegistry))
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}

	store := newFakeStore()
	store.failKeys["organvm-i-theoria/some-repo/docs/source-materials/theory/a.md"] = struct{}{}

	entries := deployEntries(t, "some-repo")
	plan := BuildPlan(entries)

	d := NewDeployer(store, reg, false, discardLogger())
	result, err := d.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Failed != 1 || result.Deployed != 1 {
		t.Fatalf("result: deployed=%d failed=%d", result.Deployed, result.Failed)
	}
	if len(result.Repos) != 1 || len(result.Repos[0].Errors) != 1 {
		t.Errorf("repo errors: %+v", result.Repos)
	}
}

func TestDeployerSkipsArchivedAndUnpinned(t *testing.T) {
	reg, err := registry.Parse([]byte(deployRegistry))
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}

	store := newFakeStore()
	entries := deployEntries(t, "old-repo")
	entries = append(entries, classified(".md", 10, nil))
	plan := BuildPlan(entries)

	d := NewDeployer(store, reg, false, discardLogger())
	result, err := d.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Deployed != 0 {
		t.Errorf("deployed: got %d, want 0", result.Deployed)
	}
	if len(store.uploads) != 0 {
		t.Errorf("uploads: got %d, want 0", len(store.uploads))
	}

	statuses := make(map[string]string)
	for _, rr := range result.Repos {
		statuses[rr.Repo] = rr.Status
	}
	if statuses["old-repo"] != StatusSkippedArchived {
		t.Errorf("archived status: got %q", statuses["old-repo"])
	}
	if statuses[UnspecifiedRepo] != StatusSkippedNoRepo {
		t.Errorf("unpinned status: got %q", statuses[UnspecifiedRepo])
	}
}

func TestDeployerDryRun(t *testing.T) {
	reg, err := registry.Parse([]byte(deployRegistry))
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}

	store := newFakeStore()
	plan := BuildPlan(deployEntries(t, "some-repo"))

	d := NewDeployer(store, reg, true, discardLogger())
	result, err := d.Execute(context.Background(), plan)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(store.uploads) != 0 {
		t.Errorf("dry run should not upload, got %d", len(store.uploads))
	}
	if result.Repos[0].Status != StatusDryRun {
		t.Errorf("status: got %q", result.Repos[0].Status)
	}
}

func TestRepoProvenance(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	entries := deployEntries(t, "some-repo")
	entries[0].SHA256 = "abc123"

	data, err := RepoProvenance(entries, "organvm-i-theoria", "some-repo", now)
	if err != nil {
		t.Fatalf("provenance: %v", err)
	}

	var doc struct {
		SchemaVersion  string `yaml:"schema_version"`
		Repo           string `yaml:"repo"`
		TotalMaterials int    `yaml:"total_materials"`
		Materials      []struct {
			Filename string `yaml:"filename"`
			SHA256   string `yaml:"sha256"`
		} `yaml:"materials"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if doc.Repo != "some-repo" || doc.TotalMaterials != 2 {
		t.Errorf("doc: %+v", doc)
	}
	if doc.Materials[0].SHA256 != "abc123" {
		t.Errorf("sha: got %q", doc.Materials[0].SHA256)
	}

	// No materials for an unknown repo.
	data, err = RepoProvenance(entries, "organvm-i-theoria", "other-repo", now)
	if err != nil {
		t.Fatalf("provenance: %v", err)
	}
	if data != nil {
		t.Error("expected nil document")
	}
}

func TestBuildProvenanceRegistry(t *testing.T) {
	now := time.Now()
	entries := deployEntries(t, "some-repo")
	entries = append(entries, classified(".md", 10, nil))

	pending := classified(".md", 10, nil)
	pending.Classification.Status = classifier.StatusPendingReview
	entries = append(entries, pending)

	reg := BuildProvenanceRegistry(entries, now)

	if reg.TotalClassified != 3 {
		t.Errorf("total classified: got %d, want 3", reg.TotalClassified)
	}
	if reg.TotalTargetRepos != 2 {
		t.Errorf("target repos: got %d, want 2", reg.TotalTargetRepos)
	}

	refs := reg.RepoToSources["organvm-i-theoria/some-repo"]
	if len(refs) != 2 {
		t.Fatalf("refs: got %d, want 2", len(refs))
	}

	if _, err := reg.Marshal(); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}
