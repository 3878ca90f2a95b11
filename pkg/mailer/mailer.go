package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/campuslink/campuslink-api/pkg/config"
)

// Mailer delivers transactional email. Implementations must be safe for
// concurrent use; all sends are best-effort from the caller's perspective.
type Mailer interface {
	SendVerificationEmail(toEmail, toName, token string) error
	SendWelcomeEmail(toEmail, toName string) error
	SendEventStatusEmail(toEmail, toName, eventTitle, status, reason string) error
}

// SMTPMailer implements Mailer over plain SMTP.
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewSMTPMailer constructs an SMTP-backed mailer.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendVerificationEmail sends the email-verification link for a new account.
func (m *SMTPMailer) SendVerificationEmail(toEmail, toName, token string) error {
	verifyURL := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", m.cfg.BaseURL, token)
	if m.devMode() {
		m.logger.Warn("smtp credentials not configured, verification email not sent",
			zap.String("to", toEmail),
			zap.String("verification_url", verifyURL))
		return nil
	}
	subject := "Verify your CampusLink email address"
	body := fmt.Sprintf("Hello %s,\r\n\r\nVerify your email address to activate your account:\r\n%s\r\n\r\nThe link expires in 24 hours.\r\n", toName, verifyURL)
	return m.send(toEmail, subject, body)
}

// SendWelcomeEmail greets a newly verified user.
func (m *SMTPMailer) SendWelcomeEmail(toEmail, toName string) error {
	if m.devMode() {
		m.logger.Warn("smtp credentials not configured, welcome email not sent", zap.String("to", toEmail))
		return nil
	}
	subject := "Welcome to CampusLink"
	body := fmt.Sprintf("Hello %s,\r\n\r\nYour account is ready. Sign in at %s to get started.\r\n", toName, m.cfg.BaseURL)
	return m.send(toEmail, subject, body)
}

// SendEventStatusEmail notifies an event creator about an approval decision.
func (m *SMTPMailer) SendEventStatusEmail(toEmail, toName, eventTitle, status, reason string) error {
	if m.devMode() {
		m.logger.Warn("smtp credentials not configured, event status email not sent",
			zap.String("to", toEmail),
			zap.String("event", eventTitle),
			zap.String("status", status))
		return nil
	}
	subject := fmt.Sprintf("Your event %q was %s", eventTitle, strings.ToLower(status))
	var body string
	if reason != "" {
		body = fmt.Sprintf("Hello %s,\r\n\r\nYour event %q was %s.\r\nReason: %s\r\n", toName, eventTitle, strings.ToLower(status), reason)
	} else {
		body = fmt.Sprintf("Hello %s,\r\n\r\nYour event %q was %s.\r\n", toName, eventTitle, strings.ToLower(status))
	}
	return m.send(toEmail, subject, body)
}

func (m *SMTPMailer) devMode() bool {
	return m.cfg.Username == "" || m.cfg.Password == ""
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	from := fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail)
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
