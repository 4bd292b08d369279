package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvPipelineSourceDirs   = "ALCHEMIA_PIPELINE_SOURCE_DIRS"
	EnvPipelineAnchor       = "ALCHEMIA_PIPELINE_ANCHOR"
	EnvPipelineRegistryPath = "ALCHEMIA_PIPELINE_REGISTRY_PATH"
	EnvPipelineManifestPath = "ALCHEMIA_PIPELINE_MANIFEST_PATH"
	EnvPipelineRulesPath    = "ALCHEMIA_PIPELINE_RULES_PATH"
	EnvPipelineSkipToplevel = "ALCHEMIA_PIPELINE_SKIP_TOPLEVEL"
	EnvPipelineHashWorkers  = "ALCHEMIA_PIPELINE_HASH_WORKERS"
	EnvPipelinePageCounts   = "ALCHEMIA_PIPELINE_PAGE_COUNTS"
	EnvPipelineScanLines    = "ALCHEMIA_PIPELINE_SCAN_LINES"
)

// PipelineConfig holds intake and classification parameters: where to crawl,
// which registry and rule tables to load, and crawl tuning knobs.
type PipelineConfig struct {
	SourceDirs   []string `toml:"source_dirs"`
	Anchor       string   `toml:"anchor"`
	RegistryPath string   `toml:"registry_path"`
	ManifestPath string   `toml:"manifest_path"`
	RulesPath    string   `toml:"rules_path"`
	SkipToplevel []string `toml:"skip_toplevel"`
	HashWorkers  int      `toml:"hash_workers"`
	PageCounts   bool     `toml:"page_counts"`
	ScanLines    int      `toml:"scan_lines"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. PageCounts always applies.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.SourceDirs != nil {
		c.SourceDirs = overlay.SourceDirs
	}
	if overlay.Anchor != "" {
		c.Anchor = overlay.Anchor
	}
	if overlay.RegistryPath != "" {
		c.RegistryPath = overlay.RegistryPath
	}
	if overlay.ManifestPath != "" {
		c.ManifestPath = overlay.ManifestPath
	}
	if overlay.RulesPath != "" {
		c.RulesPath = overlay.RulesPath
	}
	if overlay.SkipToplevel != nil {
		c.SkipToplevel = overlay.SkipToplevel
	}
	if overlay.HashWorkers != 0 {
		c.HashWorkers = overlay.HashWorkers
	}
	if overlay.ScanLines != 0 {
		c.ScanLines = overlay.ScanLines
	}
	c.PageCounts = overlay.PageCounts
}

func (c *PipelineConfig) loadDefaults() {
	if c.Anchor == "" {
		c.Anchor = "Workspace"
	}
	if c.RegistryPath == "" {
		c.RegistryPath = "registry.json"
	}
	if c.HashWorkers == 0 {
		c.HashWorkers = 4
	}
	if c.ScanLines == 0 {
		c.ScanLines = 50
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineSourceDirs); v != "" {
		c.SourceDirs = splitList(v)
	}
	if v := os.Getenv(EnvPipelineAnchor); v != "" {
		c.Anchor = v
	}
	if v := os.Getenv(EnvPipelineRegistryPath); v != "" {
		c.RegistryPath = v
	}
	if v := os.Getenv(EnvPipelineManifestPath); v != "" {
		c.ManifestPath = v
	}
	if v := os.Getenv(EnvPipelineRulesPath); v != "" {
		c.RulesPath = v
	}
	if v := os.Getenv(EnvPipelineSkipToplevel); v != "" {
		c.SkipToplevel = splitList(v)
	}
	if v := os.Getenv(EnvPipelineHashWorkers); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.HashWorkers = workers
		}
	}
	if v := os.Getenv(EnvPipelinePageCounts); v != "" {
		if pages, err := strconv.ParseBool(v); err == nil {
			c.PageCounts = pages
		}
	}
	if v := os.Getenv(EnvPipelineScanLines); v != "" {
		if lines, err := strconv.Atoi(v); err == nil {
			c.ScanLines = lines
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.RegistryPath == "" {
		return fmt.Errorf("registry_path required")
	}
	if c.HashWorkers < 1 {
		return fmt.Errorf("invalid hash_workers: %d", c.HashWorkers)
	}
	if c.ScanLines < 1 {
		return fmt.Errorf("invalid scan_lines: %d", c.ScanLines)
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
