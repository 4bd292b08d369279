package api

import (
	"net/http"

	"github.com/4jp/alchemia/internal/config"
	"github.com/4jp/alchemia/pkg/routes"
	"github.com/4jp/alchemia/pkg/storage"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	store := newStorageHandler(
		runtime.Storage,
		runtime.Logger,
		storage.MaxListCap,
		cfg.API.MaxUploadSizeBytes(),
	)

	routes.Register(
		mux,
		domain.Runs.Handler().Routes(),
		domain.Inventory.Handler().Routes(),
		domain.Classifications.Handler().Routes(),
		domain.Registry.Routes(),
		store.routes(),
	)
}
