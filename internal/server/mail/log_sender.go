package mail

import (
	"context"

	"github.com/dmitrijs2005/signupd/internal/logging"
)

// LogSender writes messages to the log instead of delivering them. It is
// meant for local development, where the code is read from the server log.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mail_log")}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Info(ctx, "mail not delivered, log transport", "to", to, "subject", subject, "body", body)
	return nil
}
