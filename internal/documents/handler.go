package documents

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// Handler manages document endpoints. Uploads ride on the application
// routes; downloads and deletes address the document directly.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountApplicationRoutes registers the per-application document routes.
func (h *Handler) MountApplicationRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.WithActor)
		r.Get("/{id}/documents", h.list)
		r.Post("/{id}/documents", h.upload)
	})
}

// MountRoutes registers the direct document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.WithActor)
		r.Get("/{docID}", h.download)
		r.Delete("/{docID}", h.delete)
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing file field")
		return
	}
	defer file.Close()

	category := r.FormValue("category")
	if category == "" {
		category = CategoryOther
	}
	actor := authz.ActorFromContext(r.Context())
	doc, err := h.service.Upload(r.Context(), actor, chi.URLParam(r, "id"), UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Category:    category,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.respondError(w, "upload document", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	docs, err := h.service.List(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "list documents", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	doc, rc, err := h.service.Open(r.Context(), actor, chi.URLParam(r, "docID"))
	if err != nil {
		h.respondError(w, "download document", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.SizeBytes))
	if _, err := io.Copy(w, rc); err != nil {
		h.logError("stream document", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "docID")); err != nil {
		h.respondError(w, "delete document", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	case errors.Is(err, ErrFileTooLarge):
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "File Too Large", err.Error())
		return
	}
	if h.logger != nil && !errors.Is(err, httpx.ErrForbidden) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) logError(msg string, err error) {
	if h.logger != nil {
		h.logger.Error(msg, slog.Any("error", err))
	}
}
