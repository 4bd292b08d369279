package registry

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/4jp/alchemia/pkg/handlers"
	"github.com/4jp/alchemia/pkg/routes"
)

// ErrRepoNotFound indicates the named repository is not registered.
var ErrRepoNotFound = errors.New("repository not registered")

// Handler serves the loaded registry document read-only. The registry is
// immutable for the life of the process, so there are no write endpoints.
type Handler struct {
	reg    *Registry
	logger *slog.Logger
}

// NewHandler creates a Handler over the loaded registry.
func NewHandler(reg *Registry, logger *slog.Logger) *Handler {
	return &Handler{
		reg:    reg,
		logger: logger.With("handler", "registry"),
	}
}

// Routes returns the route group definition for registry endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/registry",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/orgs", Handler: h.Orgs},
			{Method: "GET", Pattern: "/{name}", Handler: h.Find},
		},
	}
}

// List returns every registered repository.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	repos := make([]Repo, len(h.reg.Repos))
	copy(repos, h.reg.Repos)
	sort.Slice(repos, func(i, j int) bool {
		return repos[i].Name < repos[j].Name
	})

	handlers.RespondJSON(w, http.StatusOK, repos)
}

// Find returns the repository registered under the name path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.reg.Find(r.PathValue("name"))
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrRepoNotFound)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, repo)
}

// OrgSummary aggregates per-org repository counts.
type OrgSummary struct {
	Org      string `json:"org"`
	Repos    int    `json:"repos"`
	Archived int    `json:"archived"`
}

// Orgs returns a per-org summary of the registry.
func (h *Handler) Orgs(w http.ResponseWriter, r *http.Request) {
	orgs := h.reg.Orgs()
	sort.Strings(orgs)

	summaries := make([]OrgSummary, 0, len(orgs))
	for _, org := range orgs {
		s := OrgSummary{Org: org}
		for _, repo := range h.reg.Org(org) {
			s.Repos++
			if repo.Status == StatusArchived {
				s.Archived++
			}
		}
		summaries = append(summaries, s)
	}

	handlers.RespondJSON(w, http.StatusOK, summaries)
}
