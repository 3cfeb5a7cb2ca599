package applications

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// IdempotencyKeyHeader carries the client token that de-duplicates submits.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// Handler manages application endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers application routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.WithActor)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/bulk-delete", h.bulkDelete)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/submit", h.submit)
		r.Post("/{id}/review", h.startReview)
		r.Post("/{id}/decision", h.decide)
		r.Post("/{id}/installation", h.startInstallation)
		r.Post("/{id}/complete", h.complete)
		r.Post("/{id}/assignments", h.assign)
		r.Delete("/{id}/assignments/{userID}", h.unassign)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	q := r.URL.Query()
	filter := ListFilter{
		Phase:    Phase(q.Get("phase")),
		Sector:   q.Get("sector"),
		Search:   q.Get("search"),
		SortBy:   q.Get("sort"),
		SortDesc: q.Get("dir") == "desc",
		Page:     shared.ParsePageRequest(q),
	}

	apps, total, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		h.respondError(w, "list applications", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"applications": apps,
		"pagination":   shared.NewPagination(filter.Page.Page, filter.Page.PerPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get application", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "create application", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, app)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.UpdateDraft(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "update application", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.Submit(r.Context(), actor, chi.URLParam(r, "id"), r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		h.respondError(w, "submit application", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) startReview(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.StartReview(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "start review", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.Decide(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "decide application", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) startInstallation(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.StartInstallation(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "start installation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.Complete(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "complete application", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "delete application", err)
		return
	}
	httpx.NoContent(w)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := authz.ActorFromContext(r.Context())
	deleted, err := h.service.BulkDelete(r.Context(), actor, req.IDs)
	if err != nil {
		h.respondError(w, "bulk delete applications", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.AssignContractor(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "assign contractor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) unassign(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	app, err := h.service.UnassignContractor(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondError(w, "unassign contractor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, app)
}

func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request) (DraftRequest, bool) {
	var req DraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return DraftRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return DraftRequest{}, false
	}
	return req, true
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	case errors.Is(err, ErrNotDraft), errors.Is(err, ErrWrongPhase),
		errors.Is(err, ErrAlreadyDecided), errors.Is(err, ErrTemplateRetired):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		return
	}
	if h.logger != nil && !errors.Is(err, httpx.ErrForbidden) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
