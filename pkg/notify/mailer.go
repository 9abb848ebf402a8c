// Package notify sends operator notifications for unrecoverable faults.
package notify

import (
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// MailConfig holds SMTP settings. Host or To left empty disables sending.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer emails the operator. It is only used on the fatal path, right
// before the process exits non-zero.
type Mailer struct {
	cfg MailConfig
	log *logrus.Logger
}

// NewMailer creates a mailer.
func NewMailer(cfg MailConfig, log *logrus.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// Notify sends one email. When SMTP is not configured it logs a warning
// and returns nil so the fatal path still reaches the exit.
func (m *Mailer) Notify(subject, body string) error {
	if m.cfg.Host == "" || m.cfg.To == "" {
		m.log.Warnf("Operator notification skipped, SMTP not configured: %s", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send operator notification: %w", err)
	}
	return nil
}
