// Package mail sends transactional email (currently just password
// resets). The SMTP sender reads its settings from env config; the log
// sender stands in during development so reset links still surface.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	gomail "net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/warningbypass/warningweb/internal/config"
)

// Sender is the interface the auth service uses to send email.
type Sender interface {
	SendMail(ctx context.Context, to []string, subject, body string) error
	IsConfigured(ctx context.Context) bool
}

// NewSender returns an SMTP sender when mail is configured, otherwise a
// log sender.
func NewSender(cfg config.MailConfig) Sender {
	if cfg.Enabled() {
		return &SMTPSender{cfg: cfg}
	}
	return &LogSender{}
}

// SMTPSender sends mail over SMTP with STARTTLS, implicit SSL, or no
// encryption depending on config.
type SMTPSender struct {
	cfg config.MailConfig
}

// IsConfigured reports whether SMTP settings are present.
func (s *SMTPSender) IsConfigured(_ context.Context) bool {
	return s.cfg.Enabled()
}

// SendMail sends a plain-text email to the given recipients.
func (s *SMTPSender) SendMail(_ context.Context, to []string, subject, body string) error {
	from := gomail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}

	// Build RFC 2822 message.
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	switch s.cfg.Encryption {
	case "ssl":
		return s.sendSSL(addr, from.Address, to, msg.String())
	case "none":
		return s.sendPlain(addr, from.Address, to, msg.String())
	default: // "starttls"
		return s.sendStartTLS(addr, from.Address, to, msg.String())
	}
}

// sendStartTLS sends email using STARTTLS (port 587 typical).
func (s *SMTPSender) sendStartTLS(addr, from string, to []string, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	if s.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, from, to, msg)
}

// sendSSL sends email using implicit SSL/TLS (port 465 typical).
func (s *SMTPSender) sendSSL(addr, from string, to []string, msg string) error {
	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("connecting to %s (SSL): %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if s.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, from, to, msg)
}

// sendPlain sends email without encryption.
func (s *SMTPSender) sendPlain(addr, from string, to []string, msg string) error {
	var auth gosmtp.Auth
	if s.cfg.Username != "" {
		auth = gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := gosmtp.SendMail(addr, auth, from, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// sendMessage handles MAIL FROM, RCPT TO, DATA for an existing SMTP client.
func (s *SMTPSender) sendMessage(client *gosmtp.Client, from string, to []string, msg string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", recipient, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}

// LogSender logs outgoing mail instead of sending it. Used in development
// so password-reset links are visible in the server log.
type LogSender struct{}

// IsConfigured always reports false so callers know mail is not really
// going anywhere.
func (*LogSender) IsConfigured(_ context.Context) bool {
	return false
}

// SendMail logs the message at INFO.
func (*LogSender) SendMail(ctx context.Context, to []string, subject, body string) error {
	slog.InfoContext(ctx, "mail not configured, logging instead",
		slog.String("to", strings.Join(to, ", ")),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
