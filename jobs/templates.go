package jobs

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/aurora-grants/aurora-grants/web"
)

// EmailTemplates renders the portal's transactional emails from the
// embedded template set.
type EmailTemplates struct {
	templates *template.Template
}

// NewEmailTemplates parses the embedded email templates.
func NewEmailTemplates() (*EmailTemplates, error) {
	tpl, err := template.ParseFS(web.Templates, "templates/email/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &EmailTemplates{templates: tpl}, nil
}

// Invite renders the team invitation email.
func (t *EmailTemplates) Invite(acceptURL string) (subject, body string, err error) {
	var buf bytes.Buffer
	err = t.templates.ExecuteTemplate(&buf, "invite.html", map[string]any{"AcceptURL": acceptURL})
	if err != nil {
		return "", "", err
	}
	return "You have been invited to the incentive portal", buf.String(), nil
}

// PhaseNotice renders the application phase-change email.
func (t *EmailTemplates) PhaseNotice(title, phase string) (subject, body string, err error) {
	var buf bytes.Buffer
	err = t.templates.ExecuteTemplate(&buf, "phase_notice.html", map[string]any{"Title": title, "Phase": phase})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Application %q is now %s", title, phase), buf.String(), nil
}
