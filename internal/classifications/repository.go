package classifications

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/classifier"
	"github.com/4jp/alchemia/pkg/pagination"
	"github.com/4jp/alchemia/pkg/query"
	"github.com/4jp/alchemia/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "RuleName", "TargetOrg", "TargetRepo")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count classifications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) FindByEntry(ctx context.Context, entryID uuid.UUID) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("EntryID", entryID)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

const upsertRecord = `
	INSERT INTO classifications(
		entry_id, rule, rule_name, confidence, target_organ,
		target_org, target_repo, target_subdir, status
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (entry_id) DO UPDATE SET
		rule = EXCLUDED.rule,
		rule_name = EXCLUDED.rule_name,
		confidence = EXCLUDED.confidence,
		target_organ = EXCLUDED.target_organ,
		target_org = EXCLUDED.target_org,
		target_repo = EXCLUDED.target_repo,
		target_subdir = EXCLUDED.target_subdir,
		status = EXCLUDED.status,
		classified_at = NOW(),
		validated_by = NULL,
		validated_at = NULL`

// InsertBatch persists a batch of classification records in a single
// transaction, replacing any prior verdict for the same entry. Returns the
// number of rows written.
func (r *repo) InsertBatch(ctx context.Context, records []Record) (int, error) {
	count, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx, upsertRecord)
		if err != nil {
			return 0, fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for i := range records {
			rec := &records[i]
			_, err := stmt.ExecContext(ctx,
				rec.EntryID, rec.Rule, rec.RuleName, rec.Confidence,
				rec.TargetOrgan, rec.TargetOrg, rec.TargetRepo,
				rec.TargetSubdir, rec.Status,
			)
			if err != nil {
				return 0, fmt.Errorf("upsert classification for entry %s: %w", rec.EntryID, err)
			}
		}

		return len(records), nil
	})

	if err != nil {
		return 0, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classifications persisted", "records", count)
	return count, nil
}

func (r *repo) Validate(ctx context.Context, id uuid.UUID, cmd ValidateCommand) (*Record, error) {
	validateQ := `
		UPDATE classifications
		SET validated_by = $1, validated_at = NOW()
		WHERE id = $2
		RETURNING id, entry_id, rule, rule_name, confidence, target_organ,
				  target_org, target_repo, target_subdir, status,
				  classified_at, validated_by, validated_at`

	rec, err := repository.QueryOne(ctx, r.db, validateQ, []any{cmd.ValidatedBy, id}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification validated",
		"id", rec.ID,
		"validated_by", cmd.ValidatedBy,
	)
	return &rec, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Record, error) {
	updateQ := `
		UPDATE classifications
		SET target_organ = $1, target_org = $2, target_repo = $3,
			target_subdir = $4, status = $5,
			validated_by = $6, validated_at = NOW()
		WHERE id = $7
		RETURNING id, entry_id, rule, rule_name, confidence, target_organ,
				  target_org, target_repo, target_subdir, status,
				  classified_at, validated_by, validated_at`

	args := []any{
		cmd.TargetOrgan, cmd.TargetOrg, cmd.TargetRepo,
		cmd.TargetSubdir, string(classifier.StatusClassified),
		cmd.UpdatedBy, id,
	}

	rec, err := repository.QueryOne(ctx, r.db, updateQ, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification rerouted",
		"id", rec.ID,
		"updated_by", cmd.UpdatedBy,
	)
	return &rec, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"DELETE FROM classifications WHERE id = $1",
		id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification deleted", "id", id)
	return nil
}
