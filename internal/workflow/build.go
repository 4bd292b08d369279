package workflow

import (
	"fmt"
	"log/slog"

	"github.com/4jp/alchemia/internal/classifier"
	"github.com/4jp/alchemia/internal/config"
	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/internal/registry"
	"github.com/4jp/alchemia/internal/rules"
	"github.com/4jp/alchemia/pkg/storage"
)

// Build assembles a Runtime from pipeline configuration: the repository
// registry and rule tables are loaded from disk, then the crawler and
// classifier are constructed around them.
func Build(cfg *config.PipelineConfig, store storage.System, logger *slog.Logger) (*Runtime, error) {
	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	var tables *rules.Tables
	if cfg.RulesPath != "" {
		tables, err = rules.Load(cfg.RulesPath)
	} else {
		tables, err = rules.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load rule tables: %w", err)
	}

	crawler := intake.NewCrawler(
		cfg.SourceDirs,
		logger,
		intake.WithSkipToplevel(cfg.SkipToplevel),
		intake.WithHashWorkers(cfg.HashWorkers),
		intake.WithPageCounts(cfg.PageCounts),
	)

	cls := classifier.New(
		reg,
		tables,
		classifier.WithAnchor(cfg.Anchor),
		classifier.WithScanLines(cfg.ScanLines),
	)

	return &Runtime{
		Registry:     reg,
		Tables:       tables,
		Crawler:      crawler,
		Classifier:   cls,
		Storage:      store,
		Logger:       logger,
		ManifestPath: cfg.ManifestPath,
	}, nil
}
