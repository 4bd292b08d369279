package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"
)

// defaultSkipDirs are pruned during the walk regardless of depth.
var defaultSkipDirs = map[string]struct{}{
	".git":             {},
	"node_modules":     {},
	"__pycache__":      {},
	".mypy_cache":      {},
	".ruff_cache":      {},
	".pytest_cache":    {},
	".tox":             {},
	".venv":            {},
	"venv":             {},
	".egg-info":        {},
	"dist":             {},
	"build":            {},
	".DS_Store":        {},
	".Trash":           {},
	".Spotlight-V100":  {},
	".fseventsd":       {},
}

// defaultSkipFiles are junk files excluded from the inventory.
var defaultSkipFiles = map[string]struct{}{
	".DS_Store":   {},
	"Thumbs.db":   {},
	"desktop.ini": {},
	".gitkeep":    {},
}

const defaultHashWorkers = 4

// Crawler walks source directories and materializes the file inventory.
type Crawler struct {
	sourceDirs   []string
	skipToplevel map[string]struct{}
	hashWorkers  int
	countPages   bool
	logger       *slog.Logger
}

// CrawlerOption adjusts crawler construction.
type CrawlerOption func(*Crawler)

// WithSkipToplevel names top-level directories excluded from the crawl
// entirely.
func WithSkipToplevel(dirs []string) CrawlerOption {
	return func(c *Crawler) {
		for _, d := range dirs {
			c.skipToplevel[d] = struct{}{}
		}
	}
}

// WithHashWorkers bounds the fingerprinting concurrency.
func WithHashWorkers(n int) CrawlerOption {
	return func(c *Crawler) {
		if n > 0 {
			c.hashWorkers = n
		}
	}
}

// WithPageCounts enables PDF page counting during intake.
func WithPageCounts(enabled bool) CrawlerOption {
	return func(c *Crawler) { c.countPages = enabled }
}

// NewCrawler creates a Crawler over the given source directories.
func NewCrawler(sourceDirs []string, logger *slog.Logger, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		sourceDirs:   sourceDirs,
		skipToplevel: make(map[string]struct{}),
		hashWorkers:  defaultHashWorkers,
		logger:       logger.With("system", "intake"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl walks every source directory and returns the fingerprinted
// inventory. Unreadable directories and files are logged and skipped;
// missing source directories are logged and skipped. The result is fully
// materialized before it is returned.
func (c *Crawler) Crawl(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]struct{})

	for _, dir := range c.sourceDirs {
		root, err := filepath.Abs(dir)
		if err != nil {
			c.logger.Warn("skipping source dir", "dir", dir, "error", err)
			continue
		}

		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			c.logger.Warn("source dir missing or not a directory", "dir", root)
			continue
		}

		collected, err := c.walk(ctx, root, seen)
		if err != nil {
			return nil, err
		}
		entries = append(entries, collected...)
	}

	if err := c.fingerprint(ctx, entries); err != nil {
		return nil, err
	}

	c.logger.Info("crawl complete",
		"sources", len(c.sourceDirs),
		"files", len(entries))
	return entries, nil
}

func (c *Crawler) walk(ctx context.Context, root string, seen map[string]struct{}) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.Warn("cannot read path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := defaultSkipDirs[name]; skip {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if filepath.Dir(path) == root {
				if _, skip := c.skipToplevel[name]; skip {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if _, skip := defaultSkipFiles[name]; skip {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			resolved = path
		}
		if _, dup := seen[resolved]; dup {
			return nil
		}
		seen[resolved] = struct{}{}

		info, err := d.Info()
		if err != nil {
			c.logger.Warn("cannot stat file", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = name
		}

		ext := strings.ToLower(filepath.Ext(name))
		mimeType := mime.TypeByExtension(ext)
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		entries = append(entries, Entry{
			ID:           uuid.New(),
			Path:         path,
			RelativePath: rel,
			SourceDir:    root,
			ParentDir:    filepath.Base(filepath.Dir(path)),
			Filename:     name,
			Extension:    ext,
			MimeType:     mimeType,
			SizeBytes:    info.Size(),
			LastModified: info.ModTime().UTC(),
			Depth:        strings.Count(rel, string(filepath.Separator)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// fingerprint hashes every entry under a bounded worker group. Each worker
// writes only to its own entry, so the inventory slice needs no locking.
func (c *Crawler) fingerprint(ctx context.Context, entries []Entry) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.hashWorkers)

	for i := range entries {
		entry := &entries[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			entry.SHA256 = hashFile(entry.Path)
			if entry.SHA256 == HashUnreadable {
				c.logger.Warn("unreadable file", "path", entry.Path)
			}

			if c.countPages && entry.Extension == ".pdf" {
				if n, err := api.PageCountFile(entry.Path); err == nil {
					entry.PageCount = &n
				} else {
					c.logger.Warn("page count failed", "path", entry.Path, "error", err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// hashFile computes the chunked SHA-256 fingerprint of a file, returning
// the unreadable sentinel on any failure.
func hashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return HashUnreadable
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return HashUnreadable
	}
	return hex.EncodeToString(h.Sum(nil))
}
