package contractors

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

// Handler manages contractor endpoints.
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

// MountRoutes registers contractor routes. Registration is public; the
// rest require a session.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.WithActor)
		r.Get("/", h.listOrgs)
		r.Get("/{id}", h.getOrg)
		r.Put("/{id}", h.updateOrg)
		r.Get("/{id}/members", h.listMembers)
		r.Post("/{id}/members", h.addMember)
		r.Patch("/{id}/members/{memberID}", h.updateMember)
		r.Delete("/{id}/members/{memberID}", h.removeMember)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	org, owner, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondError(w, "register contractor", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"organization": org, "owner": owner})
}

func (h *Handler) listOrgs(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	q := r.URL.Query()
	filter := OrgFilter{Sector: q.Get("sector"), Search: q.Get("search"), Page: shared.ParsePageRequest(q)}

	orgs, total, err := h.service.ListOrgs(r.Context(), actor, filter)
	if err != nil {
		h.respondError(w, "list contractors", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"contractors": orgs,
		"pagination":  shared.NewPagination(filter.Page.Page, filter.Page.PerPage, total),
	})
}

func (h *Handler) getOrg(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	org, err := h.service.GetOrg(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get contractor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

func (h *Handler) updateOrg(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrgRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := authz.ActorFromContext(r.Context())
	org, err := h.service.UpdateOrg(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "update contractor", err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	members, err := h.service.ListMembers(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "list members", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := authz.ActorFromContext(r.Context())
	member, err := h.service.AddMember(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "add member", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, member)
}

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor := authz.ActorFromContext(r.Context())
	member, err := h.service.UpdateMemberRole(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "memberID"), req)
	if err != nil {
		h.respondError(w, "update member", err)
		return
	}
	httpx.JSON(w, http.StatusOK, member)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	if err := h.service.RemoveMember(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "memberID")); err != nil {
		h.respondError(w, "remove member", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := httpx.DecodeJSON(r, req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	case errors.Is(err, ErrOwnerImmutable):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		return
	}
	if h.logger != nil && !errors.Is(err, httpx.ErrForbidden) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
