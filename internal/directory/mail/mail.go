// Package mail delivers transactional email for the directory:
// verification links, password reset links, and new-account notices.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

// Template identifies a transactional email template.
type Template string

const (
	TemplateVerifyEmail    Template = "verify_email"
	TemplateResetPassword  Template = "reset_password"
	TemplateAccountCreated Template = "account_created"
)

// Data carries the values interpolated into a template.
type Data struct {
	Name string
	Link string
	// ExpiresIn is a human-readable validity window, e.g. "1 hour".
	ExpiresIn string
}

// Mailer sends a transactional email to a single recipient.
type Mailer interface {
	Send(ctx context.Context, tpl Template, to string, data Data) error
}

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[Template]string{
	TemplateVerifyEmail:    "Verify your email address",
	TemplateResetPassword:  "Reset your password",
	TemplateAccountCreated: "Your account has been created",
}

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func render(tpl Template, data Data) (subject, body string, err error) {
	subject, ok := subjects[tpl]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", tpl)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(tpl)+".html", data); err != nil {
		return "", "", fmt.Errorf("render mail template %q: %w", tpl, err)
	}
	return subject, buf.String(), nil
}
