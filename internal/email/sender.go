// Package email delivers transactional mail for the funnel.
package email

import (
	"context"

	"quotescan_backend/platform/config"
	"quotescan_backend/platform/logger"
)

// Sender delivers funnel emails.
type Sender interface {
	// SendVerificationCode delivers a one-time verification code.
	SendVerificationCode(ctx context.Context, toEmail, code string) error
	// SendReportReady tells the lead their quote report finished grading.
	SendReportReady(ctx context.Context, toEmail, reportURL string) error
}

// NoopSender drops every email. Used when SMTP is not configured so the
// rest of the funnel keeps working in development.
type NoopSender struct{}

func (NoopSender) SendVerificationCode(context.Context, string, string) error { return nil }
func (NoopSender) SendReportReady(context.Context, string, string) error      { return nil }

// NewSender picks an implementation from config.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		log.Warn("email disabled: verification codes and report notices will not be delivered")
		return NoopSender{}
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
