package commands

import (
	"github.com/spf13/cobra"

	"github.com/4jp/alchemia/internal/config"
	"github.com/4jp/alchemia/internal/deploy"
	"github.com/4jp/alchemia/internal/registry"
	"github.com/4jp/alchemia/internal/workflow"
	"github.com/4jp/alchemia/pkg/lifecycle"
	"github.com/4jp/alchemia/pkg/storage"
)

var (
	alchemizeIn       string
	alchemizeRegistry string
	alchemizeDryRun   bool
)

var alchemizeCmd = &cobra.Command{
	Use:   "alchemize",
	Short: "Plan and push classified files to the content store",
	Long: `Group the classified inventory into per-repository destinations,
classify each file's deploy action, and push the plan to blob storage
along with provenance records. With --dry-run the plan is printed but
nothing is uploaded.

Examples:
  # Preview the deployment plan
  alchemia alchemize --dry-run

  # Push the plan to the configured store
  alchemia alchemize`,
	RunE: runAlchemize,
}

func init() {
	alchemizeCmd.Flags().StringVarP(&alchemizeIn, "in", "i", defaultInventory, "Inventory document to read")
	alchemizeCmd.Flags().StringVar(&alchemizeRegistry, "registry", "", "Repository registry JSON")
	alchemizeCmd.Flags().BoolVar(&alchemizeDryRun, "dry-run", false, "Plan without uploading")

	rootCmd.AddCommand(alchemizeCmd)
}

func runAlchemize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fail("config load failed: %v", err)
	}

	if alchemizeRegistry != "" {
		cfg.Pipeline.RegistryPath = alchemizeRegistry
	}

	entries, err := workflow.LoadInventory(alchemizeIn)
	if err != nil {
		return fail("load inventory: %v", err)
	}

	logger := cliLogger()
	reg, err := registry.Load(cfg.Pipeline.RegistryPath)
	if err != nil {
		return fail("load registry: %v", err)
	}

	var store storage.System
	if !alchemizeDryRun {
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

	rt := &workflow.Runtime{
		Registry: reg,
		Storage:  store,
		Logger:   logger,
		DryRun:   alchemizeDryRun,
	}

	plan, result, err := workflow.Deploy(cmd.Context(), rt, entries)
	if err != nil {
		return fail("alchemize failed: %v", err)
	}

	deployCount, convert, reference, skip := plan.Counts()

	heading("Alchemize\n")
	info("  destinations: %d\n", len(plan.Destinations))
	info("  deploy:       %d\n", deployCount)
	info("  convert:      %d\n", convert)
	info("  reference:    %d\n", reference)
	info("  skip:         %d\n", skip)

	for _, repo := range result.Repos {
		switch repo.Status {
		case deploy.StatusCompleted, deploy.StatusDryRun:
			info("  %s: %d/%d deployed (%s)\n", repo.Org+"/"+repo.Repo, repo.Deployed, repo.Total, repo.Status)
		default:
			warning("%s/%s: %s\n", repo.Org, repo.Repo, repo.Status)
		}
		for _, e := range repo.Errors {
			warning("  %s\n", e)
		}
	}

	if result.Failed > 0 {
		warning("%d uploads failed\n", result.Failed)
	}
	if alchemizeDryRun {
		success("dry run complete, nothing uploaded\n")
	} else {
		success("%d files deployed\n", result.Deployed)
	}

	return nil
}
