package delivery

import (
	"context"
	"fmt"

	"github.com/use-agent/seoaudit/config"
	"github.com/wneessen/go-mail"
)

// SMTP sends reports as multipart HTML email.
type SMTP struct {
	cfg        config.MailConfig
	senderName string
}

// NewSMTP creates the email channel. senderName is shown as the From name.
func NewSMTP(cfg config.MailConfig, senderName string) *SMTP {
	return &SMTP{cfg: cfg, senderName: senderName}
}

func (s *SMTP) Name() string { return "smtp" }

// Deliver sends msg to msg.Recipient.
func (s *SMTP) Deliver(ctx context.Context, msg *Message) error {
	m, err := s.buildMsg(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp: create client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (s *SMTP) buildMsg(msg *Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(s.senderName, s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: invalid sender: %w", err)
	}
	if err := m.To(msg.Recipient); err != nil {
		return nil, fmt.Errorf("smtp: invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(mail.TypeTextPlain, msg.Text)
	}
	return m, nil
}
