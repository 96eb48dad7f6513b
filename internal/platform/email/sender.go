package email

import (
	"context"
	"errors"
)

// ErrRecipientRefused is returned when the relay rejects the recipient address.
var ErrRecipientRefused = errors.New("recipient refused")

// Message represents an email to be sent.
type Message struct {
	From     string
	FromName string
	To       []string
	Subject  string
	Body     string // plain text
	HTML     string // optional
}

// Sender abstracts email sending for DI and testing.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
