package service

import "context"

// MailSender delivers transactional mail. Send failures are surfaced to the
// caller but never retried by this subsystem.
type MailSender interface {
	// SendPasswordReset mails a reset link containing the raw reset token.
	SendPasswordReset(ctx context.Context, toEmail, resetToken string) error
}
