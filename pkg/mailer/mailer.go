// Package mailer defines the outbound notification boundary. Actual delivery
// (SMTP, provider API) lives behind the Mailer interface; this repository
// ships a zap-backed implementation that records what would have been sent,
// which is sufficient for development and for tests.
package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mfms/mess-api/pkg/config"
)

// Mailer delivers transactional messages to users.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, name, token string) error
	SendPasswordResetEmail(ctx context.Context, to, name, token string) error
}

// LogMailer writes outbound mail to the application log instead of a wire.
type LogMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(cfg config.MailConfig, logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{cfg: cfg, logger: logger}
}

// SendVerificationEmail logs the verification link for the recipient.
func (m *LogMailer) SendVerificationEmail(_ context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.cfg.ClientURL, token)
	m.logger.Info("verification email",
		zap.String("to", to),
		zap.String("name", name),
		zap.String("from", m.cfg.FromAddress),
		zap.String("link", link),
	)
	return nil
}

// SendPasswordResetEmail logs the reset link for the recipient.
func (m *LogMailer) SendPasswordResetEmail(_ context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.cfg.ClientURL, token)
	m.logger.Info("password reset email",
		zap.String("to", to),
		zap.String("name", name),
		zap.String("from", m.cfg.FromAddress),
		zap.String("link", link),
	)
	return nil
}
