package intake

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func crawlTree(t *testing.T, root string, opts ...CrawlerOption) []Entry {
	t.Helper()
	c := NewCrawler([]string{root}, discardLogger(), opts...)
	entries, err := c.Crawl(context.Background())
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	return entries
}

func filenames(entries []Entry) map[string]bool {
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Filename] = true
	}
	return names
}

func TestCrawlSkipsJunk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "hello")
	writeFile(t, filepath.Join(root, "sub", "deep.txt"), "deep")
	writeFile(t, filepath.Join(root, ".git", "config"), "git")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "js")
	writeFile(t, filepath.Join(root, ".hidden", "secret.md"), "hidden")
	writeFile(t, filepath.Join(root, ".DS_Store"), "junk")
	writeFile(t, filepath.Join(root, "sdk", "tool.bin"), "tool")

	entries := crawlTree(t, root, WithSkipToplevel([]string{"sdk"}))
	names := filenames(entries)

	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2 (%v)", len(entries), names)
	}
	if !names["notes.md"] || !names["deep.txt"] {
		t.Errorf("missing expected entries: %v", names)
	}
}

func TestCrawlMetadata(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "Report.MD"), "content here")

	entries := crawlTree(t, root)
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}

	e := entries[0]
	if e.Extension != ".md" {
		t.Errorf("extension: got %q, want .md", e.Extension)
	}
	if e.RelativePath != filepath.Join("sub", "Report.MD") {
		t.Errorf("relative path: got %q", e.RelativePath)
	}
	if e.ParentDir != "sub" {
		t.Errorf("parent dir: got %q, want sub", e.ParentDir)
	}
	if e.Depth != 1 {
		t.Errorf("depth: got %d, want 1", e.Depth)
	}
	if e.SizeBytes != int64(len("content here")) {
		t.Errorf("size: got %d", e.SizeBytes)
	}
	if e.SHA256 == "" || e.SHA256 == HashUnreadable {
		t.Errorf("sha256: got %q", e.SHA256)
	}
	if e.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("id not assigned")
	}
}

func TestCrawlMissingSourceDir(t *testing.T) {
	c := NewCrawler([]string{filepath.Join(t.TempDir(), "absent")}, discardLogger())
	entries, err := c.Crawl(context.Background())
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries: got %d, want 0", len(entries))
	}
}

func TestMarkDuplicates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "copy.md"), "same bytes")
	writeFile(t, filepath.Join(root, "a", "b", "original.md"), "same bytes")
	writeFile(t, filepath.Join(root, "unique.md"), "different bytes")

	entries := crawlTree(t, root)
	marked := MarkDuplicates(entries, discardLogger())

	if marked != 1 {
		t.Fatalf("marked: got %d, want 1", marked)
	}

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Filename] = e
	}

	primary := byName["original.md"]
	if primary.Duplicate {
		t.Error("deepest copy should be primary")
	}
	if len(primary.DuplicateGroup) != duplicateGroupLen {
		t.Errorf("group: got %q", primary.DuplicateGroup)
	}

	dup := byName["copy.md"]
	if !dup.Duplicate {
		t.Error("shallow copy should be duplicate")
	}
	if dup.DuplicateOf == nil || *dup.DuplicateOf != primary.Path {
		t.Errorf("duplicate_of: got %v", dup.DuplicateOf)
	}
	if dup.DuplicateGroup != primary.DuplicateGroup {
		t.Error("group mismatch")
	}

	if byName["unique.md"].Duplicate || byName["unique.md"].DuplicateGroup != "" {
		t.Error("singleton should be unmarked")
	}
}

func TestLoadManifestAndEnrich(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "MANIFEST_INDEX_TABLE.csv")
	writeFile(t, manifestPath,
		"ID,Category,Title,Size_KB,Type,Status,Primary_Tags,Key_Dependencies,Primary_Use,Phase\n"+
			"42,Technical Specifications,spec-draft.md,10,doc,ACTIVE,specs,none,design,1\n"+
			"43,Creative & Artistic,performance-notes,5,doc,ACTIVE,art,none,archive,2\n")

	records, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}

	entries := []Entry{
		{Filename: "Spec-Draft.md"},
		{Filename: "performance-notes.txt"},
		{Filename: "unrelated.md"},
	}

	matched := EnrichManifest(entries, records, discardLogger())
	if matched != 2 {
		t.Fatalf("matched: got %d, want 2", matched)
	}

	// Exact filename match, case-insensitive.
	if entries[0].Manifest == nil || entries[0].Manifest.ID != "42" {
		t.Errorf("filename match failed: %+v", entries[0].Manifest)
	}
	// Stem match when the manifest title has no extension.
	if entries[1].Manifest == nil || entries[1].Manifest.Category != "Creative & Artistic" {
		t.Errorf("stem match failed: %+v", entries[1].Manifest)
	}
	if entries[2].Manifest != nil {
		t.Error("unrelated entry should not match")
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected error")
	}
}

func TestLoadManifestMalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MANIFEST_INDEX_TABLE.csv")
	writeFile(t, path,
		"ID,Category,Title\n"+
			"1,Technical Specifications,spec-draft.md\n"+
			"2,Creative & Artistic,\"unterminated\n")

	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for malformed row")
	}
}

func TestEnrichSidecars(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "paper.md"), "body")
	writeFile(t, filepath.Join(root, "paper.md.meta.json"), `{"source": "scan"}`)
	writeFile(t, filepath.Join(root, "broken.md"), "body")
	writeFile(t, filepath.Join(root, "broken.md.meta.json"), `{not json`)
	writeFile(t, filepath.Join(root, "plain.md"), "body")

	entries := crawlTree(t, root)
	enriched := EnrichSidecars(entries, discardLogger())

	if enriched != 1 {
		t.Fatalf("enriched: got %d, want 1", enriched)
	}

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Filename] = e
	}

	if string(byName["paper.md"].Sidecar) != `{"source": "scan"}` {
		t.Errorf("sidecar: got %s", byName["paper.md"].Sidecar)
	}
	if byName["broken.md"].Sidecar != nil {
		t.Error("malformed sidecar should be ignored")
	}
	if byName["plain.md"].Sidecar != nil {
		t.Error("entry without sidecar should be nil")
	}
}

func TestEntryRecord(t *testing.T) {
	e := Entry{
		Path:         "/w/Workspace/repo/a.md",
		RelativePath: "repo/a.md",
		Filename:     "a.md",
		Extension:    ".md",
		Manifest:     &Manifest{Category: "Technical Specifications"},
	}

	rec := e.Record()
	if rec.ManifestCategory != "Technical Specifications" {
		t.Errorf("manifest category: got %q", rec.ManifestCategory)
	}

	e.Manifest = nil
	if e.Record().ManifestCategory != "" {
		t.Error("nil manifest should yield empty category")
	}
}
