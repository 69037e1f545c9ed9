// Package mailer delivers outbound email.
package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is one outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Config holds SMTP settings.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	FromAddress string
	FromName    string
}

// SMTP sends mail through an SMTP relay.
type SMTP struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewSMTP creates an SMTP mailer.
func NewSMTP(cfg Config) *SMTP {
	return &SMTP{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

// Send delivers msg. The SMTP exchange itself is not cancellable.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// Log writes messages to the logger instead of sending them. Used when SMTP is not configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging mailer.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Send logs msg without its body.
func (l *Log) Send(_ context.Context, msg Message) error {
	l.logger.Info("email not sent, SMTP disabled", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
