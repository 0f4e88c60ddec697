package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// EmailNotifier forwards applications to an inbox over SMTP.
type EmailNotifier struct {
	host string
	port int
	user string
	pass string
	from string
	to   string
}

// EmailConfig holds SMTP settings for the email channel.
type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		host: cfg.Host,
		port: cfg.Port,
		user: cfg.User,
		pass: cfg.Pass,
		from: cfg.From,
		to:   cfg.To,
	}
}

// SendApplication emails the application as plain text.
func (e *EmailNotifier) SendApplication(_ context.Context, app model.Application) error {
	subject := "Нова заявка: " + app.Name

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		e.from, e.to, subject, formatApplication(app),
	)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	var smtpAuth smtp.Auth
	if e.user != "" {
		smtpAuth = smtp.PlainAuth("", e.user, e.pass, e.host)
	}

	if err := smtp.SendMail(addr, smtpAuth, e.from, []string{e.to}, []byte(msg)); err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	return nil
}
