package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aurora-grants/aurora-grants/internal/activities"
	"github.com/aurora-grants/aurora-grants/internal/applications"
	"github.com/aurora-grants/aurora-grants/internal/auth"
	"github.com/aurora-grants/aurora-grants/internal/companies"
	"github.com/aurora-grants/aurora-grants/internal/contractors"
	"github.com/aurora-grants/aurora-grants/internal/documents"
	"github.com/aurora-grants/aurora-grants/internal/naics"
	"github.com/aurora-grants/aurora-grants/internal/observability"
	"github.com/aurora-grants/aurora-grants/internal/shared"
	"github.com/aurora-grants/aurora-grants/internal/stats"
	"github.com/aurora-grants/aurora-grants/internal/users"
	"github.com/aurora-grants/aurora-grants/jobs"
	"github.com/aurora-grants/aurora-grants/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	CompaniesHandler    *companies.Handler
	ApplicationsHandler *applications.Handler
	DocumentsHandler    *documents.Handler
	ContractorsHandler  *contractors.Handler
	ActivitiesHandler   *activities.Handler
	NAICSHandler        *naics.Handler
	StatsHandler        *stats.Handler
	ReportHandler       *report.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/companies", params.CompaniesHandler.MountRoutes)
	r.Route("/applications", func(r chi.Router) {
		params.ApplicationsHandler.MountRoutes(r)
		params.DocumentsHandler.MountApplicationRoutes(r)
	})
	r.Route("/documents", params.DocumentsHandler.MountRoutes)
	r.Route("/contractors", params.ContractorsHandler.MountRoutes)
	r.Route("/activities", params.ActivitiesHandler.MountRoutes)
	r.Route("/naics", params.NAICSHandler.MountRoutes)
	r.Route("/stats", params.StatsHandler.MountRoutes)
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
