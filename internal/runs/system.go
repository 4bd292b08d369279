package runs

import (
	"context"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/pkg/pagination"
)

// System defines the public contract for run domain operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Run], error)
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	Trigger(ctx context.Context, cmd TriggerCommand) (*Run, error)
}
