package users

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

// Handler manages account endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// Invite acceptance happens before the invitee has an account.
	r.Post("/invites/accept", h.acceptInvite)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.WithActor)
		r.Get("/me", h.me)
		r.Get("/", h.listTeam)
		r.Post("/invites", h.inviteMember)
		r.Patch("/{id}", h.updateMember)
		r.Post("/{id}/deactivate", h.deactivate)
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	user, err := h.service.Me(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, "load own account", err)
		return
	}
	resp := struct {
		User
		RoleLabel string `json:"role_label,omitempty"`
	}{User: user}
	if info, ok := authz.Info(user.Role); ok {
		resp.RoleLabel = info.Label
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) listTeam(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	q := r.URL.Query()
	filter := ListFilter{
		Search: q.Get("search"),
		Page:   shared.ParsePageRequest(q),
	}
	if actor != nil && actor.Role == authz.RoleSystemAdmin {
		filter.CompanyID = q.Get("company_id")
	}

	users, total, err := h.service.ListTeam(r.Context(), actor, filter)
	if err != nil {
		h.respondError(w, "list team", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":      users,
		"pagination": shared.NewPagination(filter.Page.Page, filter.Page.PerPage, total),
	})
}

func (h *Handler) inviteMember(w http.ResponseWriter, r *http.Request) {
	var req InviteMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := authz.ActorFromContext(r.Context())
	invite, err := h.service.InviteMember(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "invite member", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":         invite.ID,
		"email":      invite.Email,
		"expires_at": invite.ExpiresAt,
	})
}

func (h *Handler) acceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.AcceptInvite(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInviteExpired), errors.Is(err, ErrInviteUsed):
			httpx.Problem(w, http.StatusGone, "Invite Unavailable", err.Error())
		case errors.Is(err, shared.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invite not found")
		default:
			h.respondError(w, "accept invite", err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := authz.ActorFromContext(r.Context())
	user, err := h.service.UpdateMember(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, "update member", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	if err := h.service.Deactivate(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "deactivate user", err)
		return
	}
	httpx.NoContent(w)
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
