package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aurora-grants/aurora-grants/internal/activities"
	"github.com/aurora-grants/aurora-grants/internal/app"
	"github.com/aurora-grants/aurora-grants/internal/applications"
	"github.com/aurora-grants/aurora-grants/internal/auth"
	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/companies"
	"github.com/aurora-grants/aurora-grants/internal/contractors"
	"github.com/aurora-grants/aurora-grants/internal/documents"
	"github.com/aurora-grants/aurora-grants/internal/naics"
	"github.com/aurora-grants/aurora-grants/internal/observability"
	"github.com/aurora-grants/aurora-grants/internal/platform/cache"
	"github.com/aurora-grants/aurora-grants/internal/platform/db"
	"github.com/aurora-grants/aurora-grants/internal/shared"
	"github.com/aurora-grants/aurora-grants/internal/stats"
	"github.com/aurora-grants/aurora-grants/internal/users"
	"github.com/aurora-grants/aurora-grants/jobs"
	"github.com/aurora-grants/aurora-grants/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "aurora_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	resolver := authz.NewResolver(authz.DefaultGrants())

	emailTemplates, err := jobs.NewEmailTemplates()
	if err != nil {
		logger.Error("parse email templates", slog.Any("error", err))
		os.Exit(1)
	}
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	mailer := jobs.NewMailer(jobClient, emailTemplates, cfg.PortalURL)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, resolver, mailer, auditLogger, logger)
	guard := authz.Middleware{Resolver: resolver, Source: usersService, Logger: logger}
	usersHandler := users.NewHandler(logger, usersService, guard)

	companiesRepo := companies.NewRepository(dbpool)
	companiesService := companies.NewService(companiesRepo, resolver)
	companiesHandler := companies.NewHandler(logger, companiesService, guard)

	activitiesRepo := activities.NewRepository(dbpool)
	activitiesService := activities.NewService(activitiesRepo, resolver)
	activitiesHandler := activities.NewHandler(logger, activitiesService, guard)

	contractorsRepo := contractors.NewRepository(dbpool)
	contractorsService := contractors.NewService(contractorsRepo, resolver, auditLogger, logger)
	contractorsHandler := contractors.NewHandler(logger, contractorsService, guard)

	applicationsRepo := applications.NewPGRepository(dbpool)
	applicationsService := applications.NewService(applicationsRepo, resolver, activitiesRepo, contractorsService, mailer, idempotencyStore, auditLogger, logger)
	applicationsHandler := applications.NewHandler(logger, applicationsService, guard)

	blobStore, err := documents.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Error("init upload store", slog.Any("error", err))
		os.Exit(1)
	}
	documentsRepo := documents.NewRepository(dbpool)
	documentsService := documents.NewService(documentsRepo, blobStore, applicationsService, resolver, auditLogger, logger)
	documentsHandler := documents.NewHandler(logger, documentsService, guard)

	statsRepo := stats.NewRepository(dbpool)
	statsService := stats.NewService(statsRepo, redisClient, resolver, logger)
	statsHandler := stats.NewHandler(logger, statsService, guard)

	reportClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	reportRenderer, err := report.NewRenderer(reportClient)
	if err != nil {
		logger.Error("init report renderer", slog.Any("error", err))
		os.Exit(1)
	}
	reportHandler := report.NewHandler(logger, reportRenderer, applicationsService, documentsService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		CompaniesHandler:    companiesHandler,
		ApplicationsHandler: applicationsHandler,
		DocumentsHandler:    documentsHandler,
		ContractorsHandler:  contractorsHandler,
		ActivitiesHandler:   activitiesHandler,
		NAICSHandler:        naics.NewHandler(),
		StatsHandler:        statsHandler,
		ReportHandler:       reportHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
