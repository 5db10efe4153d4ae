// Package sendgridinfra delivers transactional email through the SendGrid v3 API.
package sendgridinfra

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/KenzoYff/evently-ux-platform-94/internal/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var htmlLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2 style="color: #4f46e5;">{{.Subject}}</h2>
  {{range .Paragraphs}}<p>{{.}}</p>
  {{end}}
  <p style="font-size: 12px; color: #6b7280;">{{.From}}</p>
</body>
</html>`))

// Mailer sends email through SendGrid.
type Mailer struct {
	client  *sendgrid.Client
	from    *mail.Email
	sandbox bool
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		client:  sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:    mail.NewEmail(cfg.MailFromName, cfg.SMTPFrom),
		sandbox: cfg.SendgridSandbox,
	}
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg, err := m.build(to, subject, body)
	if err != nil {
		return err
	}
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (m *Mailer) build(to, subject, body string) (*mail.SGMailV3, error) {
	html, err := renderHTML(m.from.Name, subject, body)
	if err != nil {
		return nil, err
	}
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), body, html)
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	return msg, nil
}

func renderHTML(from, subject, body string) (string, error) {
	var paragraphs []string
	for _, p := range strings.Split(body, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	var buf bytes.Buffer
	err := htmlLayout.Execute(&buf, struct {
		Subject    string
		Paragraphs []string
		From       string
	}{subject, paragraphs, from})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
