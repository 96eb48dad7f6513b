package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"

	"github.com/jhillyerd/enmime"
)

// sendFunc matches smtp.SendMail so tests can intercept delivery.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender is the production implementation of the Sender interface.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	send     sendFunc
}

// NewSMTPSender creates a new SMTP sender. Host and port are required.
func NewSMTPSender(host, port, username, password string) (*SMTPSender, error) {
	if host == "" || port == "" {
		return nil, fmt.Errorf("SMTP host and port are required")
	}
	return &SMTPSender{host: host, port: port, username: username, password: password, send: smtp.SendMail}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := Render(msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	return classify(s.send(addr, auth, msg.From, msg.To, raw))
}

// Render builds the MIME encoded message.
func Render(msg Message) ([]byte, error) {
	builder := enmime.Builder().
		From(msg.FromName, msg.From).
		Subject(msg.Subject).
		Text([]byte(msg.Body))
	for _, to := range msg.To {
		builder = builder.To("", to)
	}
	if msg.HTML != "" {
		builder = builder.HTML([]byte(msg.HTML))
	}

	part, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build message: %w", err)
	}
	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return buf.Bytes(), nil
}

// classify maps permanent mailbox errors to ErrRecipientRefused.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 501, 550, 551, 553:
			return fmt.Errorf("%w: %v", ErrRecipientRefused, err)
		}
	}
	return err
}
