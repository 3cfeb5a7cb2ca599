// Package report renders PDF documents through a Gotenberg service.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurora-grants/aurora-grants/internal/applications"
	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/documents"
	"github.com/aurora-grants/aurora-grants/internal/naics"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
	"github.com/aurora-grants/aurora-grants/web"
)

// ApplicationGate resolves an application the actor may view. Satisfied by
// the applications service.
type ApplicationGate interface {
	Get(ctx context.Context, actor *authz.Actor, id string) (applications.Application, error)
}

// DocumentLister supplies the application's documents for the summary.
// Satisfied by the documents service.
type DocumentLister interface {
	List(ctx context.Context, actor *authz.Actor, applicationID string) ([]documents.Document, error)
}

// Renderer turns an application into the summary PDF.
type Renderer struct {
	client    *Client
	templates *template.Template
}

// NewRenderer parses the embedded PDF templates.
func NewRenderer(client *Client) (*Renderer, error) {
	tpl, err := template.ParseFS(web.Templates, "templates/pdf/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse pdf templates: %w", err)
	}
	return &Renderer{client: client, templates: tpl}, nil
}

type summaryView struct {
	Title              string
	Phase              string
	Facility           string
	ProjectCost        float64
	EstimatedIncentive float64
	ApprovedIncentive  float64
	HasApproved        bool
	SubmittedAt        string
	DecisionNote       string
	DocumentCount      int
	GeneratedAt        string
}

// Render produces the summary PDF for one application.
func (r *Renderer) Render(ctx context.Context, app applications.Application, documentCount int) ([]byte, error) {
	view := summaryView{
		Title:              app.Title,
		Phase:              string(app.Phase),
		Facility:           naics.DescribeSelection(app.FacilitySector, app.FacilityCategory, app.FacilityType),
		ProjectCost:        app.ProjectCost,
		EstimatedIncentive: app.EstimatedIncentive,
		DecisionNote:       app.DecisionNote,
		DocumentCount:      documentCount,
		GeneratedAt:        time.Now().UTC().Format("2 Jan 2006 15:04 MST"),
	}
	if app.ApprovedIncentive != nil {
		view.HasApproved = true
		view.ApprovedIncentive = *app.ApprovedIncentive
	}
	if app.SubmittedAt != nil {
		view.SubmittedAt = app.SubmittedAt.UTC().Format("2 Jan 2006 15:04 MST")
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "application_summary.html", view); err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, buf.String())
}

// Handler serves report endpoints.
type Handler struct {
	logger   *slog.Logger
	renderer *Renderer
	apps     ApplicationGate
	docs     DocumentLister
	guard    authz.Middleware
}

// NewHandler creates a report handler.
func NewHandler(logger *slog.Logger, renderer *Renderer, apps ApplicationGate, docs DocumentLister, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, renderer: renderer, apps: apps, docs: docs, guard: guard}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.WithActor)
		r.Get("/applications/{id}/summary.pdf", h.applicationSummary)
	})
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) applicationSummary(w http.ResponseWriter, r *http.Request) {
	actor := authz.ActorFromContext(r.Context())
	app, err := h.apps.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	documentCount := 0
	if h.docs != nil {
		if docs, err := h.docs.List(r.Context(), actor, app.ID); err == nil {
			documentCount = len(docs)
		}
	}
	pdf, err := h.renderer.Render(r.Context(), app, documentCount)
	if err != nil {
		h.logger.Error("render application summary", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "application-summary.pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
