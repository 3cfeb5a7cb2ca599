package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/aurora-grants/aurora-grants/internal/activities"
	"github.com/aurora-grants/aurora-grants/internal/app"
	"github.com/aurora-grants/aurora-grants/internal/applications"
	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/companies"
	"github.com/aurora-grants/aurora-grants/internal/contractors"
	jobmetrics "github.com/aurora-grants/aurora-grants/internal/jobs"
	"github.com/aurora-grants/aurora-grants/internal/platform/cache"
	"github.com/aurora-grants/aurora-grants/internal/platform/db"
	"github.com/aurora-grants/aurora-grants/internal/shared"
	"github.com/aurora-grants/aurora-grants/internal/stats"
	"github.com/aurora-grants/aurora-grants/internal/users"
	"github.com/aurora-grants/aurora-grants/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
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

	usersRepo := users.NewRepository(pool)
	companiesService := companies.NewService(companies.NewRepository(pool), resolver)
	activitiesRepo := activities.NewRepository(pool)
	contractorsService := contractors.NewService(contractors.NewRepository(pool), resolver, auditLogger, logger)
	applicationsRepo := applications.NewPGRepository(pool)
	applicationsService := applications.NewService(applicationsRepo, resolver, activitiesRepo, contractorsService, mailer, idempotencyStore, auditLogger, logger)
	statsService := stats.NewService(stats.NewRepository(pool), redisClient, resolver, logger)

	var sender jobs.EmailSender = jobs.LogSender{Logger: logger}
	if cfg.IsProduction() {
		sender = jobs.SMTPSender{Addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort), From: cfg.SMTPFrom}
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: &jobs.Handlers{
			Sender:       sender,
			Companies:    companiesService,
			Applications: applicationsService,
			Stats:        statsService,
			Invites:      usersRepo,
			Templates:    emailTemplates,
			Metrics:      jobmetrics.NewMetrics(nil),
			Logger:       logger,
		},
		Cron: jobs.DefaultCron(),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
