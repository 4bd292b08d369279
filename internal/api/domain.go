package api

import (
	"github.com/4jp/alchemia/internal/classifications"
	"github.com/4jp/alchemia/internal/inventory"
	"github.com/4jp/alchemia/internal/registry"
	"github.com/4jp/alchemia/internal/runs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Inventory       inventory.System
	Classifications classifications.System
	Runs            runs.System
	Registry        *registry.Handler
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	inventorySystem := inventory.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	classificationsSystem := classifications.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	runsSystem := runs.New(
		runtime.Database.Connection(),
		runtime.Workflow,
		inventorySystem,
		classificationsSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Inventory:       inventorySystem,
		Classifications: classificationsSystem,
		Runs:            runsSystem,
		Registry:        registry.NewHandler(runtime.Workflow.Registry, runtime.Logger),
	}
}
