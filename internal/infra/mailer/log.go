package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/domain"
)

// LogMailer writes emails to the log instead of sending them. It is used
// when no provider key is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, email *domain.Email) error {
	m.logger.Info("email not sent: provider disabled",
		zap.String("to", email.ToEmail),
		zap.String("subject", email.Subject),
		zap.Int("attachments", len(email.Attachments)),
	)
	return nil
}
