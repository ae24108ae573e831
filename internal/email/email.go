// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"advenrent_backend/platform/config"
	"advenrent_backend/platform/logger"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	TextBody string
}

// Sender delivers messages. Implementations must be safe for concurrent
// use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender implements Sender with go-mail.
type SMTPSender struct {
	client *mail.Client
	from   string
	log    *logger.Logger
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender creates a sender from application config.
func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.GetSMTPUsername() != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.GetSMTPUsername()),
			mail.WithPassword(cfg.GetSMTPPassword()),
		)
	}

	client, err := mail.NewClient(cfg.GetSMTPHost(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}

	from := cfg.GetEmailFromAddress()
	if name := cfg.GetEmailFromName(); name != "" {
		from = fmt.Sprintf("%s <%s>", name, cfg.GetEmailFromAddress())
	}

	return &SMTPSender{client: client, from: from, log: log}, nil
}

// Send delivers one message.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	s.log.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NoopSender discards all mail. Used when SMTP is not configured.
type NoopSender struct {
	log *logger.Logger
}

var _ Sender = (*NoopSender)(nil)

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) Send(_ context.Context, msg Message) error {
	s.log.Debug("email sending disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}
