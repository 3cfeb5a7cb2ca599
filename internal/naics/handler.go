package naics

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
)

// Handler serves the NAICS classification taxonomy. The data is a public
// reference set, so no actor guard is applied.
type Handler struct{}

// NewHandler builds a Handler instance.
func NewHandler() *Handler {
	return &Handler{}
}

// MountRoutes registers NAICS taxonomy routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sectors", h.sectors)
	r.Get("/sectors/{code}/categories", h.categories)
	r.Get("/categories/{code}/types", h.types)
	r.Get("/codes/{code}", h.code)
}

func (h *Handler) sectors(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"sectors": Sectors()})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, ok := Lookup(code); !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": CategoriesBySector(code)})
}

func (h *Handler) types(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, ok := Lookup(code); !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"types": TypesByCategory(code)})
}

func (h *Handler) code(w http.ResponseWriter, r *http.Request) {
	entry, ok := Lookup(chi.URLParam(r, "code"))
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}
