package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/HackRU/CTFd/internal/config"
)

// Compile-time interface check.
var _ Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers mail over plain SMTP with optional auth.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPMailer creates a mailer from config. Callers must check
// cfg.CanSendMail() first; flows that reach an unconfigured mailer render
// a static error instead of sending.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		from: cfg.MailFrom,
	}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		log.Printf("[Mail] Failed to send %q to %s: %v", subject, to, err)
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) VerifyEmailAddress(ctx context.Context, to, confirmURL string) error {
	body := "Please click the following link to confirm your email address:\r\n\r\n" + confirmURL
	return m.send(to, "Confirm your account", body)
}

func (m *SMTPMailer) SuccessfulRegistrationNotification(ctx context.Context, to string) error {
	body := "Your email address has been confirmed. You can now log in and play."
	return m.send(to, "Your account has been confirmed", body)
}

func (m *SMTPMailer) ForgotPassword(ctx context.Context, to, resetURL string) error {
	body := "Did you initiate a password reset? " +
		"Click the following link to reset your password:\r\n\r\n" + resetURL
	return m.send(to, "Password reset", body)
}

func (m *SMTPMailer) PasswordChangeAlert(ctx context.Context, to string) error {
	body := "Your password has been changed. " +
		"If you did not request a password change you should reset your password immediately."
	return m.send(to, "Your password has been changed", body)
}
