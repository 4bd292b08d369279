package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/pkg/pagination"
	"github.com/4jp/alchemia/pkg/query"
	"github.com/4jp/alchemia/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an inventory repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "inventory"),
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
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Path", "Filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count inventory: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

const insertEntry = `
	INSERT INTO inventory(
		id, run_id, path, relative_path, source_dir, parent_dir,
		filename, extension, mime_type, size_bytes, sha256,
		last_modified, depth, page_count, duplicate, duplicate_group,
		duplicate_of, manifest, sidecar
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19)`

// InsertBatch persists a crawled inventory under the given run inside a
// single transaction. Returns the number of rows written.
func (r *repo) InsertBatch(ctx context.Context, runID uuid.UUID, entries []intake.Entry) (int, error) {
	count, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		stmt, err := tx.PrepareContext(ctx, insertEntry)
		if err != nil {
			return 0, fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range entries {
			row := FromIntake(runID, &entries[i])

			var manifestJSON any
			if row.Manifest != nil {
				data, err := json.Marshal(row.Manifest)
				if err != nil {
					return 0, fmt.Errorf("marshal manifest: %w", err)
				}
				manifestJSON = data
			}

			var sidecarJSON any
			if row.Sidecar != nil {
				sidecarJSON = []byte(row.Sidecar)
			}

			_, err := stmt.ExecContext(ctx,
				row.ID, row.RunID, row.Path, row.RelativePath,
				row.SourceDir, row.ParentDir, row.Filename, row.Extension,
				row.MimeType, row.SizeBytes, row.SHA256, row.LastModified,
				row.Depth, row.PageCount, row.Duplicate, row.DuplicateGroup,
				row.DuplicateOf, manifestJSON, sidecarJSON,
			)
			if err != nil {
				return 0, fmt.Errorf("insert entry %s: %w", row.Path, err)
			}
		}

		return len(entries), nil
	})

	if err != nil {
		return 0, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("inventory persisted", "run_id", runID, "entries", count)
	return count, nil
}

// DeleteRun removes every inventory row belonging to a run. Returns the
// number of rows removed.
func (r *repo) DeleteRun(ctx context.Context, runID uuid.UUID) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM inventory WHERE run_id = $1", runID)
	if err != nil {
		return 0, fmt.Errorf("delete run inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Info("run inventory deleted", "run_id", runID, "entries", rows)
	return int(rows), nil
}
