// Package web embeds the email and PDF templates shipped with the portal.
package web

import "embed"

// Templates embeds the email and PDF report templates.
//
//go:embed templates/email/*.html templates/pdf/*.html
var Templates embed.FS
