package deploy

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/internal/registry"
	"github.com/4jp/alchemia/pkg/storage"
)

// RepoResult is the outcome of deploying one destination.
type RepoResult struct {
	Org      string   `json:"org"`
	Repo     string   `json:"repo"`
	Status   string   `json:"status"`
	Total    int      `json:"total"`
	Deployed int      `json:"deployed"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Destination statuses.
const (
	StatusCompleted       = "completed"
	StatusDryRun          = "dry_run"
	StatusSkippedArchived = "skipped_archived"
	StatusSkippedNoRepo   = "skipped_no_repo"
)

// Result aggregates deployment outcomes across every destination.
type Result struct {
	Repos    []RepoResult `json:"repos"`
	Deployed int          `json:"deployed"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
}

func (r *Result) add(repo RepoResult) {
	r.Repos = append(r.Repos, repo)
	r.Deployed += repo.Deployed
	r.Skipped += repo.Skipped
	r.Failed += repo.Failed
}

// Deployer pushes planned materials to the content store, one file at a
// time, in plan order. There are no retries; a failed upload is recorded
// and the loop moves on.
type Deployer struct {
	store  storage.System
	reg    *registry.Registry
	dryRun bool
	logger *slog.Logger
}

// NewDeployer creates a Deployer over the given content store and registry.
func NewDeployer(store storage.System, reg *registry.Registry, dryRun bool, logger *slog.Logger) *Deployer {
	return &Deployer{
		store:  store,
		reg:    reg,
		dryRun: dryRun,
		logger: logger.With("system", "deploy"),
	}
}

// Execute deploys every deployable destination in the plan. Destinations
// without a pinned repository and archived repositories are skipped whole.
// Convert and reference entries are counted as skipped; they surface in
// provenance but are never pushed.
func (d *Deployer) Execute(ctx context.Context, plan *Plan) (*Result, error) {
	result := &Result{}

	for _, dest := range plan.Destinations {
		if dest.Repo == nil {
			result.add(RepoResult{
				Org:     dest.Org,
				Repo:    UnspecifiedRepo,
				Status:  StatusSkippedNoRepo,
				Total:   len(dest.Deploy),
				Skipped: len(dest.Deploy),
			})
			continue
		}

		repo := *dest.Repo
		if d.reg.IsArchived(repo) {
			d.logger.Info("skipping archived repo", "org", dest.Org, "repo", repo)
			result.add(RepoResult{
				Org:     dest.Org,
				Repo:    repo,
				Status:  StatusSkippedArchived,
				Total:   len(dest.Deploy),
				Skipped: len(dest.Deploy),
			})
			continue
		}

		rr, err := d.deployRepo(ctx, dest)
		if err != nil {
			return nil, err
		}
		result.add(rr)
	}

	return result, nil
}

func (d *Deployer) deployRepo(ctx context.Context, dest *Destination) (RepoResult, error) {
	repo := *dest.Repo
	rr := RepoResult{
		Org:    dest.Org,
		Repo:   repo,
		Total:  len(dest.Deploy),
		Status: StatusCompleted,
	}

	if d.dryRun {
		rr.Status = StatusDryRun
		for _, e := range dest.Deploy {
			d.logger.Info("dry run",
				"key", d.storageKey(dest, e),
				"size", e.SizeBytes)
		}
		return rr, nil
	}

	for _, e := range dest.Deploy {
		if err := ctx.Err(); err != nil {
			return rr, err
		}

		key := d.storageKey(dest, e)
		if err := d.upload(ctx, key, e); err != nil {
			rr.Failed++
			rr.Errors = append(rr.Errors, fmt.Sprintf("%s: %v", key, err))
			d.logger.Warn("upload failed", "key", key, "error", err)
			continue
		}

		rr.Deployed++
		d.logger.Info("deployed", "key", key, "size", e.SizeBytes)
	}

	return rr, nil
}

func (d *Deployer) upload(ctx context.Context, key string, e *intake.Entry) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	return d.store.Upload(ctx, key, f, e.MimeType)
}

func (d *Deployer) storageKey(dest *Destination, e *intake.Entry) string {
	return fmt.Sprintf("%s/%s/%s", dest.Org, *dest.Repo, DeployPath(e))
}

// UploadDocument pushes an in-memory document to the content store.
func UploadDocument(ctx context.Context, store storage.System, key string, data []byte, contentType string) error {
	return store.Upload(ctx, key, bytes.NewReader(data), contentType)
}
