package activities

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

// Handler manages activity template endpoints.
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

// MountRoutes registers activity template routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.WithActor)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	templates, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.respondError(w, "list templates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	template, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get template", err)
		return
	}
	httpx.JSON(w, http.StatusOK, template)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor := authz.ActorFromContext(r.Context())
	template, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "create template", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, template)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	actor := authz.ActorFromContext(r.Context())
	template, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "update template", err)
		return
	}
	httpx.JSON(w, http.StatusOK, template)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "delete template", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (UpsertRequest, bool) {
	var req UpsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return UpsertRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return UpsertRequest{}, false
	}
	return req, true
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	if h.logger != nil && !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
