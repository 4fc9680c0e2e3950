package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/rollingriches/leadsync/internal/infra/queue"
)

const alertTemplate = `Sync alert: {{.Kind}}

{{if .Email}}Lead:        {{.Email}} ({{.LeadID}})
Retry count: {{.RetryCount}}
{{end}}{{if .RunID}}Run:         {{.RunID}}
{{end}}Error:       {{.Error}}
Occurred at: {{.OccurredAt}}

This lead will not be retried automatically. Check the forwarding backlog
report for details.
`

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

// SendAlert emails one operator alert. Satisfies queue.AlertSender.
func (s *EmailSender) SendAlert(p queue.AlertPayload) error {
	data := AlertEmailData{
		Kind:       p.Kind,
		Email:      p.Email,
		LeadID:     p.LeadID,
		RetryCount: p.RetryCount,
		RunID:      p.RunID,
		Error:      p.Error,
		OccurredAt: p.OccurredAt.Format(time.RFC3339),
	}

	t, err := template.New("alert").Parse(alertTemplate)
	if err != nil {
		return fmt.Errorf("parse alert template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("render alert template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("[leadsync] %s", p.Kind))
	m.SetBody("text/plain", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	return nil
}
