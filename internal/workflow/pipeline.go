package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/4jp/alchemia/internal/classifier"
	"github.com/4jp/alchemia/internal/deploy"
	"github.com/4jp/alchemia/internal/intake"
)

// IntakeStats summarizes the intake stage.
type IntakeStats struct {
	Files           int           `json:"files"`
	Duplicates      int           `json:"duplicates"`
	ManifestMatched int           `json:"manifest_matched"`
	SidecarEnriched int           `json:"sidecar_enriched"`
	Duration        time.Duration `json:"duration"`
}

// RunStats aggregates the outcomes of a full pipeline run.
type RunStats struct {
	Started   time.Time         `json:"started"`
	Completed time.Time         `json:"completed"`
	Intake    IntakeStats       `json:"intake"`
	Classify  *classifier.Stats `json:"classify,omitempty"`
	Deploy    *deploy.Result    `json:"deploy,omitempty"`
}

// Intake crawls the sources, marks duplicates, and cross-references
// manifest and sidecar metadata. The returned inventory is complete before
// the method returns.
func Intake(ctx context.Context, rt *Runtime) ([]intake.Entry, IntakeStats, error) {
	started := time.Now()

	entries, err := rt.Crawler.Crawl(ctx)
	if err != nil {
		return nil, IntakeStats{}, fmt.Errorf("intake: %w", err)
	}

	stats := IntakeStats{Files: len(entries)}
	stats.Duplicates = intake.MarkDuplicates(entries, rt.Logger)

	if rt.ManifestPath != "" {
		records, err := intake.LoadManifest(rt.ManifestPath)
		if err != nil {
			rt.Logger.Warn("manifest unavailable", "path", rt.ManifestPath, "error", err)
		} else {
			stats.ManifestMatched = intake.EnrichManifest(entries, records, rt.Logger)
		}
	}

	stats.SidecarEnriched = intake.EnrichSidecars(entries, rt.Logger)
	stats.Duration = time.Since(started)
	return entries, stats, nil
}

// Classify runs the rule chain over every entry in order, appending the
// classification in place, and returns the per-rule tallies.
func Classify(rt *Runtime, entries []intake.Entry) *classifier.Stats {
	stats := classifier.NewStats()

	for i := range entries {
		cls := rt.Classifier.Classify(entries[i].Record())
		entries[i].Classification = &cls
		stats.Record(cls)
	}

	rt.Logger.Info("classification complete",
		"total", stats.Total,
		"classified", stats.Classified,
		"pending_review", stats.Pending)
	return stats
}

// Deploy builds the deployment plan, executes it against the content store,
// and pushes a provenance document into every repository that received
// materials. Dry runs plan and log without pushing.
func Deploy(ctx context.Context, rt *Runtime, entries []intake.Entry) (*deploy.Plan, *deploy.Result, error) {
	plan := deploy.BuildPlan(entries)

	deployer := deploy.NewDeployer(rt.Storage, rt.Registry, rt.DryRun, rt.Logger)
	result, err := deployer.Execute(ctx, plan)
	if err != nil {
		return plan, nil, fmt.Errorf("deploy: %w", err)
	}

	if !rt.DryRun {
		if err := pushProvenance(ctx, rt, entries, plan); err != nil {
			return plan, result, err
		}
	}

	return plan, result, nil
}

func pushProvenance(ctx context.Context, rt *Runtime, entries []intake.Entry, plan *deploy.Plan) error {
	now := time.Now()

	for _, dest := range plan.Destinations {
		if !dest.Deployable() || rt.Registry.IsArchived(*dest.Repo) {
			continue
		}

		doc, err := deploy.RepoProvenance(entries, dest.Org, *dest.Repo, now)
		if err != nil {
			return err
		}
		if doc == nil {
			continue
		}

		key := fmt.Sprintf("%s/%s/PROVENANCE.yaml", dest.Org, *dest.Repo)
		if err := deploy.UploadDocument(ctx, rt.Storage, key, doc, "application/yaml"); err != nil {
			rt.Logger.Warn("provenance upload failed", "key", key, "error", err)
		}
	}

	reg := deploy.BuildProvenanceRegistry(entries, now)
	data, err := reg.Marshal()
	if err != nil {
		return err
	}
	if err := deploy.UploadDocument(ctx, rt.Storage, "provenance-registry.json", data, "application/json"); err != nil {
		rt.Logger.Warn("provenance registry upload failed", "error", err)
	}
	return nil
}

// Run executes the full pipeline: intake, classify, deploy.
func Run(ctx context.Context, rt *Runtime) ([]intake.Entry, *RunStats, error) {
	stats := &RunStats{Started: time.Now()}

	entries, intakeStats, err := Intake(ctx, rt)
	if err != nil {
		return nil, nil, err
	}
	stats.Intake = intakeStats

	stats.Classify = Classify(rt, entries)

	_, result, err := Deploy(ctx, rt, entries)
	if err != nil {
		return entries, stats, err
	}
	stats.Deploy = result
	stats.Completed = time.Now()

	rt.Logger.Info("pipeline run complete",
		"files", stats.Intake.Files,
		"classified", stats.Classify.Classified,
		"deployed", result.Deployed,
		"failed", result.Failed)
	return entries, stats, nil
}
