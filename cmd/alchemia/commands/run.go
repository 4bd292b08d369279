package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/4jp/alchemia/internal/config"
	"github.com/4jp/alchemia/internal/workflow"
	"github.com/4jp/alchemia/pkg/lifecycle"
	"github.com/4jp/alchemia/pkg/storage"
)

var (
	runSources []string
	runOut     string
	runDryRun  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: intake, absorb, and alchemize",
	Long: `Run every pipeline stage in sequence against the configured sources
and push the resulting plan to the content store. The final inventory is
written out so individual stages can be inspected afterwards.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runSources, "source", nil, "Source directory to crawl (repeatable)")
	runCmd.Flags().StringVarP(&runOut, "out", "o", defaultInventory, "Inventory document to write")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Plan without uploading")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fail("config load failed: %v", err)
	}

	if len(runSources) > 0 {
		cfg.Pipeline.SourceDirs = runSources
	}
	if len(cfg.Pipeline.SourceDirs) == 0 {
		return fail("no source directories: pass --source or set pipeline.source_dirs")
	}

	logger := cliLogger()

	var store storage.System
	if !runDryRun {
		store, err = storage.New(&cfg.Storage, logger)
		if err != nil {
			return fail("storage init: %v", err)
		}

		lc := lifecycle.New()
		if err := store.Start(lc); err != nil {
			return fail("storage start: %v", err)
		}
		lc.WaitForStartup()
	}

	rt, err := workflow.Build(&cfg.Pipeline, store, logger)
	if err != nil {
		return fail("%v", err)
	}
	rt.DryRun = runDryRun

	entries, stats, err := workflow.Run(cmd.Context(), rt)
	if err != nil {
		return fail("pipeline failed: %v", err)
	}

	if err := workflow.SaveInventory(runOut, entries); err != nil {
		return fail("save inventory: %v", err)
	}

	heading("Pipeline\n")
	info("  files:      %d\n", stats.Intake.Files)
	info("  duplicates: %d\n", stats.Intake.Duplicates)
	info("  classified: %d\n", stats.Classify.Classified)
	if stats.Classify.Pending > 0 {
		warning("pending review: %d\n", stats.Classify.Pending)
	}
	if stats.Deploy != nil {
		info("  deployed:   %d\n", stats.Deploy.Deployed)
		if stats.Deploy.Failed > 0 {
			warning("%d uploads failed\n", stats.Deploy.Failed)
		}
	}
	info("  elapsed:    %s\n", stats.Completed.Sub(stats.Started).Round(time.Millisecond))
	success("inventory written to %s\n", runOut)

	return nil
}
