package mail

import (
	"context"
	"log/slog"
)

// LogSender writes codes to the log instead of mailing them. It is used when
// no SMTP host is configured.
type LogSender struct {
	links Links
	log   *slog.Logger
}

func NewLogSender(frontendURL string, log *slog.Logger) *LogSender {
	return &LogSender{links: NewLinks(frontendURL), log: log}
}

func (s *LogSender) SendConfirmationCode(ctx context.Context, toEmail, code string) error {
	s.log.InfoContext(ctx, "confirmation email", "to", toEmail, "link", s.links.Confirmation(code))
	return nil
}

func (s *LogSender) SendRecoveryCode(ctx context.Context, toEmail, code string) error {
	s.log.InfoContext(ctx, "recovery email", "to", toEmail, "link", s.links.Recovery(code))
	return nil
}
