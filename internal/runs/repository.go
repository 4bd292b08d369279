package runs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/classifications"
	"github.com/4jp/alchemia/internal/inventory"
	"github.com/4jp/alchemia/internal/workflow"
	"github.com/4jp/alchemia/pkg/pagination"
	"github.com/4jp/alchemia/pkg/query"
	"github.com/4jp/alchemia/pkg/repository"
)

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	entries    inventory.System
	records    classifications.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run repository implementing the System interface. Triggered
// runs execute the pipeline through the workflow runtime and persist their
// results to the inventory and classification domains.
func New(
	db *sql.DB,
	rt *workflow.Runtime,
	entries inventory.System,
	records classifications.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		entries:    entries,
		records:    records,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

// Trigger starts a pipeline run, executes the stages to completion, and
// persists the inventory and classification results under the run id. A
// stage failure marks the run failed with the error recorded; the run row
// itself survives.
func (r *repo) Trigger(ctx context.Context, cmd TriggerCommand) (*Run, error) {
	run, err := r.create(ctx, cmd.DryRun)
	if err != nil {
		return nil, err
	}

	rt := *r.rt
	rt.DryRun = cmd.DryRun

	entries, stats, err := workflow.Run(ctx, &rt)
	if err != nil {
		return r.fail(ctx, run.ID, err)
	}

	if !cmd.DryRun {
		if _, err := r.entries.InsertBatch(ctx, run.ID, entries); err != nil {
			return r.fail(ctx, run.ID, err)
		}

		records := make([]classifications.Record, 0, len(entries))
		for i := range entries {
			if entries[i].Classification == nil {
				continue
			}
			records = append(records, classifications.FromClassifier(entries[i].ID, entries[i].Classification))
		}
		if _, err := r.records.InsertBatch(ctx, records); err != nil {
			return r.fail(ctx, run.ID, err)
		}
	}

	return r.complete(ctx, run.ID, stats)
}

func (r *repo) create(ctx context.Context, dryRun bool) (*Run, error) {
	createQ := `
		INSERT INTO runs(status, dry_run)
		VALUES ($1, $2)
		RETURNING id, status, dry_run, started_at, completed_at,
				  total_files, duplicates, classified, pending_review,
				  deployed, deploy_failed, error`

	run, err := repository.QueryOne(ctx, r.db, createQ, []any{StatusRunning, dryRun}, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run started", "id", run.ID, "dry_run", dryRun)
	return &run, nil
}

func (r *repo) complete(ctx context.Context, id uuid.UUID, stats *workflow.RunStats) (*Run, error) {
	deployed, failed := 0, 0
	if stats.Deploy != nil {
		deployed = stats.Deploy.Deployed
		failed = stats.Deploy.Failed
	}

	completeQ := `
		UPDATE runs
		SET status = $1, completed_at = NOW(), total_files = $2,
			duplicates = $3, classified = $4, pending_review = $5,
			deployed = $6, deploy_failed = $7
		WHERE id = $8
		RETURNING id, status, dry_run, started_at, completed_at,
				  total_files, duplicates, classified, pending_review,
				  deployed, deploy_failed, error`

	args := []any{
		StatusCompleted, stats.Intake.Files, stats.Intake.Duplicates,
		stats.Classify.Classified, stats.Classify.Pending,
		deployed, failed, id,
	}

	run, err := repository.QueryOne(ctx, r.db, completeQ, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("run completed",
		"id", run.ID,
		"files", run.TotalFiles,
		"classified", run.Classified,
		"deployed", run.Deployed,
	)
	return &run, nil
}

func (r *repo) fail(ctx context.Context, id uuid.UUID, cause error) (*Run, error) {
	failQ := `
		UPDATE runs
		SET status = $1, completed_at = NOW(), error = $2
		WHERE id = $3
		RETURNING id, status, dry_run, started_at, completed_at,
				  total_files, duplicates, classified, pending_review,
				  deployed, deploy_failed, error`

	run, err := repository.QueryOne(ctx, r.db, failQ, []any{StatusFailed, cause.Error(), id}, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Error("run failed", "id", id, "error", cause)
	return &run, nil
}
