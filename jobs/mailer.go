package jobs

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aurora-grants/aurora-grants/internal/applications"
)

// Mailer turns domain notifications into queued tasks. It satisfies
// users.Mailer and applications.Notifier.
type Mailer struct {
	client    *Client
	templates *EmailTemplates
	portalURL string
}

// NewMailer constructs a Mailer enqueueing through the given client.
func NewMailer(client *Client, templates *EmailTemplates, portalURL string) *Mailer {
	return &Mailer{client: client, templates: templates, portalURL: portalURL}
}

// SendInvite enqueues the team invitation email.
func (m *Mailer) SendInvite(ctx context.Context, email, token string) error {
	acceptURL := fmt.Sprintf("%s/invites/accept?token=%s", m.portalURL, url.QueryEscape(token))
	subject, body, err := m.templates.Invite(acceptURL)
	if err != nil {
		return err
	}
	_, err = m.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      email,
		Subject: subject,
		Body:    body,
		Kind:    "invite",
	})
	return err
}

// NotifyPhaseChange enqueues the phase-change notice for the application's
// company.
func (m *Mailer) NotifyPhaseChange(ctx context.Context, app applications.Application) error {
	task, err := NewPhaseNoticeTask(PhaseNoticePayload{
		ApplicationID: app.ID,
		CompanyID:     app.CompanyID,
		Title:         app.Title,
		Phase:         string(app.Phase),
	})
	if err != nil {
		return err
	}
	return m.client.Enqueue(ctx, task)
}
