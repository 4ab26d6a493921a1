package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/keygate/backend-go/internal/config"
)

// Sender dispatches transactional email. Delivery failures never affect
// authentication correctness; callers fire-and-forget.
type Sender interface {
	SendVerificationEmail(to, token, name string) error
}

type smtpSender struct {
	addr            string
	auth            smtp.Auth
	from            string
	verificationURL string
	logger          *slog.Logger
}

// NewSMTPSender creates an SMTP-backed mail sender
func NewSMTPSender(cfg *config.Config, logger *slog.Logger) Sender {
	var auth smtp.Auth
	if cfg.SMTPUser != "" && cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}

	return &smtpSender{
		addr:            fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:            auth,
		from:            cfg.MailFrom,
		verificationURL: cfg.VerificationURL,
		logger:          logger,
	}
}

func (s *smtpSender) SendVerificationEmail(to, token, name string) error {
	link := fmt.Sprintf("%s?token=%s", s.verificationURL, token)

	var body strings.Builder
	body.WriteString(fmt.Sprintf("From: %s\r\n", s.from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", to))
	body.WriteString("Subject: Verify your email address\r\n")
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	body.WriteString("\r\n")
	body.WriteString(fmt.Sprintf("<h1>Hello %s,</h1>", name))
	body.WriteString("<p>Please verify your email address by clicking the link below:</p>")
	body.WriteString(fmt.Sprintf(`<a href="%s">Verify Email</a>`, link))
	body.WriteString("<p>This link will expire in 24 hours.</p>")
	body.WriteString("<p>If you did not create an account, please ignore this email.</p>")

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(body.String())); err != nil {
		s.logger.Error("❌ [Mail] Failed to send verification email", "to", to, "error", err)
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	s.logger.Info("📧 [Mail] Verification email sent", "to", to)
	return nil
}
