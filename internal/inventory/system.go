package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/pkg/pagination"
)

// System defines the public contract for inventory domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)

	Find(ctx context.Context, id uuid.UUID) (*Entry, error)
	InsertBatch(ctx context.Context, runID uuid.UUID, entries []intake.Entry) (int, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) (int, error)
}
