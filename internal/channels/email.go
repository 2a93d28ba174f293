package channels

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address, also used as the display identity.
	From string
}

// SMTPSender sends reminder email over plain SMTP with optional AUTH.
type SMTPSender struct {
	config *SMTPConfig
}

// NewSMTPSender creates an email sender.
func NewSMTPSender(cfg *SMTPConfig) (*SMTPSender, error) {
	if cfg == nil || cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and sender address are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{config: cfg}, nil
}

// Send delivers one message. An empty subject is allowed; SMS gateways
// ignore it anyway.
func (s *SMTPSender) Send(ctx context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: taskd <%s>\r\n", s.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}
