package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AnthoniusHendriyanto/blogger-auth/config"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers codes over SMTP. It opens one connection per message.
type SMTPSender struct {
	cfg   config.SMTPConfig
	links Links
	log   *slog.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, frontendURL string, log *slog.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &SMTPSender{
		cfg:   cfg,
		links: NewLinks(frontendURL),
		log:   log,
	}, nil
}

func (s *SMTPSender) SendConfirmationCode(ctx context.Context, toEmail, code string) error {
	body, err := render(confirmationTmpl, s.links.Confirmation(code))
	if err != nil {
		return fmt.Errorf("rendering confirmation email: %w", err)
	}
	return s.send(ctx, toEmail, confirmationSubject, body)
}

func (s *SMTPSender) SendRecoveryCode(ctx context.Context, toEmail, code string) error {
	body, err := render(recoveryTmpl, s.links.Recovery(code))
	if err != nil {
		return fmt.Errorf("rendering recovery email: %w", err)
	}
	return s.send(ctx, toEmail, recoverySubject, body)
}

func (s *SMTPSender) buildMessage(to, subject, body string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)
	return msg, nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS elsewhere.
		if s.cfg.Port == 465 {
			opts = append(opts, gomail.WithSSL())
		}
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	s.log.DebugContext(ctx, "email sent", "to", to, "subject", subject)
	return nil
}
