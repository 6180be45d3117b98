// Package mailer sends account emails. Messages are written in Markdown and
// rendered to HTML before delivery.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"text/template"

	"github.com/resend/resend-go/v2"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/gymbucket/gymbucket/internal/models"
)

// Message is a rendered email.
type Message struct {
	To       string
	Subject  string
	HTML     string
	Markdown string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	log    *slog.Logger
}

func NewResendSender(apiKey, from string, log *slog.Logger) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from, log: log}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Markdown,
	})
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	s.log.Info("email sent", "message_id", sent.Id, "to", msg.To, "subject", msg.Subject)
	return nil
}

// NoopSender logs messages instead of sending them. Used when no email
// provider is configured.
type NoopSender struct {
	log *slog.Logger
}

func NewNoopSender(log *slog.Logger) *NoopSender { return &NoopSender{log: log} }

func (s *NoopSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email not sent (no provider configured)", "to", msg.To, "subject", msg.Subject, "body", msg.Markdown)
	return nil
}

var md = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown converts Markdown to HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

var templates = template.Must(template.New("").Parse(`
{{define "verify"}}# Welcome to GymBucket, {{.Name}}

Confirm your email address to finish setting up your trainer account:

[Verify email]({{.Link}})

If you did not create an account, ignore this message.
{{end}}
{{define "reset"}}# Password reset

Hi {{.Name}},

someone asked to reset the password of your GymBucket account.
The link is valid for one hour:

[Choose a new password]({{.Link}})

If this wasn't you, no action is needed.
{{end}}`))

// Mailer composes account emails and hands them to a Sender.
type Mailer struct {
	sender  Sender
	baseURL string
}

// New returns a Mailer whose links point at baseURL, the public address of
// the web app.
func New(sender Sender, baseURL string) *Mailer {
	return &Mailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// SendVerification mails the email verification link.
func (m *Mailer) SendVerification(ctx context.Context, u models.User, token string) error {
	return m.send(ctx, u, "verify", "Confirm your GymBucket email", "/verify-email", token)
}

// SendPasswordReset mails the password reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, u models.User, token string) error {
	return m.send(ctx, u, "reset", "Reset your GymBucket password", "/reset-password", token)
}

func (m *Mailer) send(ctx context.Context, u models.User, tmpl, subject, path, token string) error {
	msg, err := m.compose(u, tmpl, subject, path, token)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

func (m *Mailer) compose(u models.User, tmpl, subject, path, token string) (Message, error) {
	link := m.baseURL + path + "?token=" + url.QueryEscape(token)
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, map[string]string{"Name": u.FirstName, "Link": link}); err != nil {
		return Message{}, fmt.Errorf("executing %s template: %w", tmpl, err)
	}
	html, err := RenderMarkdown(buf.String())
	if err != nil {
		return Message{}, err
	}
	return Message{To: u.Email, Subject: subject, HTML: html, Markdown: buf.String()}, nil
}
