package delivery

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/case-sla-service/internal/config"
)

// GomailEmailSender delivers escalation alerts over SMTP.
type GomailEmailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewGomailEmailSender builds the SMTP sender.
func NewGomailEmailSender(cfg config.SMTPConfig) *GomailEmailSender {
	return &GomailEmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendEscalationAlert composes and dispatches the escalation email to one
// administrator.
func (s *GomailEmailSender) SendEscalationAlert(ctx context.Context, recipient string, alert EscalationAlert) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", fmt.Sprintf("[SLA escalation] Case %s has had no activity for %.0f hours", alert.CaseKey, alert.HoursSinceActivity))
	m.SetBody("text/plain", fmt.Sprintf(
		"Case %s requires attention.\n\nEmployee: %s\nClient: %s\nCategory: %s\nHours since last activity: %.1f\n\nPlease review and take ownership.",
		alert.CaseKey, alert.EmployeeName, alert.ClientName, alert.Category, alert.HoursSinceActivity))

	// DialAndSend has no context support; bound it so one stuck SMTP
	// conversation cannot stall the whole fan-out.
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send escalation email to %s: %w", recipient, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
