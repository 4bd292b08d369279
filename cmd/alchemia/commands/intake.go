package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/4jp/alchemia/internal/config"
	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/internal/workflow"
)

const defaultInventory = "alchemia-inventory.json"

var (
	intakeSources  []string
	intakeManifest string
	intakeSkip     []string
	intakePages    bool
	intakeOut      string
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Crawl, fingerprint, and deduplicate the source directories",
	Long: `Crawl every configured source directory, fingerprint each file with
SHA-256, mark duplicates, and cross-reference the manifest index and
sidecar metadata. The resulting inventory is written as a JSON document
for the absorb and alchemize stages.

Examples:
  # Crawl the configured sources
  alchemia intake

  # Crawl explicit sources with a manifest index
  alchemia intake --source /data/inbox --source /data/archive --manifest index.csv`,
	RunE: runIntake,
}

func init() {
	intakeCmd.Flags().StringArrayVar(&intakeSources, "source", nil, "Source directory to crawl (repeatable)")
	intakeCmd.Flags().StringVar(&intakeManifest, "manifest", "", "Manifest index CSV to cross-reference")
	intakeCmd.Flags().StringArrayVar(&intakeSkip, "skip", nil, "Top-level directory to exclude (repeatable)")
	intakeCmd.Flags().BoolVar(&intakePages, "pages", false, "Count PDF pages during intake")
	intakeCmd.Flags().StringVarP(&intakeOut, "out", "o", defaultInventory, "Inventory document to write")

	rootCmd.AddCommand(intakeCmd)
}

func runIntake(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fail("config load failed: %v", err)
	}

	if len(intakeSources) > 0 {
		cfg.Pipeline.SourceDirs = intakeSources
	}
	if intakeManifest != "" {
		cfg.Pipeline.ManifestPath = intakeManifest
	}
	if len(intakeSkip) > 0 {
		cfg.Pipeline.SkipToplevel = intakeSkip
	}
	if intakePages {
		cfg.Pipeline.PageCounts = true
	}

	if len(cfg.Pipeline.SourceDirs) == 0 {
		return fail("no source directories: pass --source or set pipeline.source_dirs")
	}

	logger := cliLogger()
	crawler := intake.NewCrawler(
		cfg.Pipeline.SourceDirs,
		logger,
		intake.WithSkipToplevel(cfg.Pipeline.SkipToplevel),
		intake.WithHashWorkers(cfg.Pipeline.HashWorkers),
		intake.WithPageCounts(cfg.Pipeline.PageCounts),
	)

	rt := &workflow.Runtime{
		Crawler:      crawler,
		Logger:       logger,
		ManifestPath: cfg.Pipeline.ManifestPath,
	}

	entries, stats, err := workflow.Intake(cmd.Context(), rt)
	if err != nil {
		return fail("intake failed: %v", err)
	}

	if err := workflow.SaveInventory(intakeOut, entries); err != nil {
		return fail("save inventory: %v", err)
	}

	heading("Intake\n")
	info("  files:            %d\n", stats.Files)
	info("  duplicates:       %d\n", stats.Duplicates)
	if cfg.Pipeline.ManifestPath != "" {
		info("  manifest matched: %d\n", stats.ManifestMatched)
	}
	info("  sidecars:         %d\n", stats.SidecarEnriched)
	info("  elapsed:          %s\n", stats.Duration.Round(time.Millisecond))
	success("inventory written to %s\n", intakeOut)

	return nil
}
