package classifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/pkg/pagination"
)

// System defines the public contract for classification domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	FindByEntry(ctx context.Context, entryID uuid.UUID) (*Record, error)
	InsertBatch(ctx context.Context, records []Record) (int, error)
	Validate(ctx context.Context, id uuid.UUID, cmd ValidateCommand) (*Record, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
