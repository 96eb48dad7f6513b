// Package notify mails the single-use account links (email confirmation and password reset).
package notify

import (
	"context"
	"fmt"
	"strings"

	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/internal/pkg/log"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	platformemail "github.com/qolzam/mailer/internal/platform/email"
)

// Link paths on the web domain; the plaintext token is appended.
const (
	ConfirmPath = "/users/email-confirm/"
	ResetPath   = "/users/password-reset-confirm/"
)

// Mailer sends account links through an email.Sender.
type Mailer struct {
	sender platformemail.Sender // optional; if nil, links are only logged
	app    platformconfig.AppConfig
	email  platformconfig.EmailConfig
}

func NewMailer(sender platformemail.Sender, app platformconfig.AppConfig, email platformconfig.EmailConfig) *Mailer {
	return &Mailer{sender: sender, app: app, email: email}
}

// Link returns the absolute URL for path and token.
func (m *Mailer) Link(path, token string) string {
	return strings.TrimRight(m.app.WebDomain, "/") + path + token
}

// SendConfirm mails the registration confirmation link.
func (m *Mailer) SendConfirm(ctx context.Context, to, token string) error {
	return m.send(ctx, to, "Confirm your registration",
		"Confirm your registration at %s", m.Link(ConfirmPath, token))
}

// SendReset mails the password reset link.
func (m *Mailer) SendReset(ctx context.Context, to, token string) error {
	return m.send(ctx, to, "Password reset",
		"Follow the link to reset your password: %s", m.Link(ResetPath, token))
}

func (m *Mailer) send(ctx context.Context, to, subject, bodyFormat, link string) error {
	if m.sender == nil {
		log.WarnWithContext(ctx, "[Notify] no email sender configured, %q for %s not sent", subject, to)
		return nil
	}
	err := m.sender.Send(ctx, platformemail.Message{
		From:     m.email.SMTPEmail,
		FromName: m.email.FromName,
		To:       []string{to},
		Subject:  subject,
		Body:     fmt.Sprintf(bodyFormat, link),
	})
	if err != nil {
		return fmt.Errorf("%w: send %q: %v", authErrors.ErrSystemError, subject, err)
	}
	return nil
}
