// Package jobs defines the background task types, their Asynq handlers and
// the worker that runs them: transactional email, the stale-draft sweep and
// the stats cache warmup.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aurora-grants/aurora-grants/internal/applications"
	jobmetrics "github.com/aurora-grants/aurora-grants/internal/jobs"
	"github.com/aurora-grants/aurora-grants/internal/stats"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail sends one transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypePhaseNotice emails a company about an application phase change.
	TaskTypePhaseNotice = "applications:phase_notice"
	// TaskTypeStaleDraftSweep deletes drafts untouched for the retention window.
	TaskTypeStaleDraftSweep = "applications:sweep_drafts"
	// TaskTypeStatsWarmup refreshes the cached dashboard summary.
	TaskTypeStatsWarmup = "stats:warmup"
	// TaskTypeInviteCleanup drops expired unaccepted invites.
	TaskTypeInviteCleanup = "users:invite_cleanup"
)

// staleDraftAge is how long an untouched draft survives before the sweep
// removes it.
const staleDraftAge = 90 * 24 * time.Hour

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Kind    string `json:"kind"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// PhaseNoticePayload identifies the application whose phase changed.
type PhaseNoticePayload struct {
	ApplicationID string `json:"application_id"`
	CompanyID     string `json:"company_id"`
	Title         string `json:"title"`
	Phase         string `json:"phase"`
}

// NewPhaseNoticeTask constructs an Asynq task.
func NewPhaseNoticeTask(payload PhaseNoticePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePhaseNotice, data), nil
}

// EmailSender delivers a rendered email. The SMTP transport or the log
// sender in development satisfy it.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes emails to the log instead of delivering them. Used in
// development and under test.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the email instead of delivering it.
func (s LogSender) Send(ctx context.Context, to, subject, body string) error {
	if s.Logger != nil {
		s.Logger.Info("send email", slog.String("to", to), slog.String("subject", subject))
	}
	return nil
}

// CompanyDirectory resolves a company's contact address for notices.
type CompanyDirectory interface {
	ContactEmail(ctx context.Context, companyID string) (string, error)
}

// InviteJanitor removes expired unaccepted invites. Satisfied by the users
// repository.
type InviteJanitor interface {
	DeleteExpiredInvites(ctx context.Context, before time.Time) (int64, error)
}

// Handlers bundles the dependencies the task handlers need.
type Handlers struct {
	Sender       EmailSender
	Companies    CompanyDirectory
	Applications *applications.Service
	Stats        *stats.Service
	Invites      InviteJanitor
	Templates    *EmailTemplates
	Metrics      *jobmetrics.Metrics
	Logger       *slog.Logger
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (h *Handlers) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("mail:send")
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	if err := h.Sender.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		return tracker.End(err)
	}
	h.Metrics.AddEmail(payload.Kind)
	return tracker.End(nil)
}

// HandlePhaseNotice renders and dispatches the phase-change email for one
// application.
func (h *Handlers) HandlePhaseNotice(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("applications:phase_notice")
	var payload PhaseNoticePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	to, err := h.Companies.ContactEmail(ctx, payload.CompanyID)
	if err != nil {
		return tracker.End(err)
	}
	subject, body, err := h.Templates.PhaseNotice(payload.Title, payload.Phase)
	if err != nil {
		return tracker.End(err)
	}
	if err := h.Sender.Send(ctx, to, subject, body); err != nil {
		return tracker.End(err)
	}
	h.Metrics.AddEmail("phase_notice")
	return tracker.End(nil)
}

// HandleStaleDraftSweep deletes drafts past the retention window.
func (h *Handlers) HandleStaleDraftSweep(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("applications:sweep_drafts")
	deleted, err := h.Applications.ExpireStaleDrafts(ctx, time.Now().Add(-staleDraftAge))
	if err != nil {
		return tracker.End(err)
	}
	if deleted > 0 && h.Logger != nil {
		h.Logger.Info("stale draft sweep", slog.Int64("deleted", deleted))
	}
	return tracker.End(nil)
}

// HandleStatsWarmup refreshes the cached dashboard summary.
func (h *Handlers) HandleStatsWarmup(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("stats:warmup")
	return tracker.End(h.Stats.Warm(ctx))
}

// HandleInviteCleanup drops expired unaccepted invites.
func (h *Handlers) HandleInviteCleanup(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track("users:invite_cleanup")
	deleted, err := h.Invites.DeleteExpiredInvites(ctx, time.Now())
	if err != nil {
		return tracker.End(err)
	}
	if deleted > 0 && h.Logger != nil {
		h.Logger.Info("invite cleanup", slog.Int64("deleted", deleted))
	}
	return tracker.End(nil)
}
