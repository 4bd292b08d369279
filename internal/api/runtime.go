package api

import (
	"github.com/4jp/alchemia/internal/config"
	"github.com/4jp/alchemia/internal/infrastructure"
	"github.com/4jp/alchemia/internal/workflow"
	"github.com/4jp/alchemia/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// assembled pipeline runtime that triggered runs execute against.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Workflow   *workflow.Runtime
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	wf, err := workflow.Build(&cfg.Pipeline, infra.Storage, logger)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination: cfg.API.Pagination,
		Workflow:   wf,
	}, nil
}
