// Package mail implements outbound transactional mail over SMTP.
package mail

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	mail "gopkg.in/mail.v2"

	"courtside/config"
	"courtside/internal/domain/service"
)

// gomailSender sends mail through a configured SMTP relay.
type gomailSender struct {
	dialer *mail.Dialer
	from   string
	// resetBaseURL is the public page the reset link points at; the raw token
	// is appended as a query parameter.
	resetBaseURL string
}

// NewGomailSender is the constructor for gomailSender.
func NewGomailSender(cfg *config.Config) (service.MailSender, error) {
	if cfg.Mail == nil {
		return nil, errors.New("mail config must be provided")
	}

	dialer := mail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)

	return &gomailSender{
		dialer:       dialer,
		from:         cfg.Mail.FromAddress,
		resetBaseURL: cfg.Mail.ResetBaseURL,
	}, nil
}

// SendPasswordReset mails the single-use reset link to the recipient.
func (s *gomailSender) SendPasswordReset(ctx context.Context, toEmail, resetToken string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "context cancelled before send")
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Reset your password")

	link := fmt.Sprintf("%s?token=%s", s.resetBaseURL, resetToken)
	msg.SetBody("text/plain", fmt.Sprintf(
		"A password reset was requested for this address.\n\n"+
			"Open the link below within one hour to choose a new password:\n\n%s\n\n"+
			"If you did not request this, you can ignore this email.", link))

	if err := s.dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "failed to send password reset mail")
	}

	return nil
}
