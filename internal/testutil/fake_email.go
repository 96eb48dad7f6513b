package testutil

import (
	"context"
	"strings"
	"sync"

	platformemail "github.com/qolzam/mailer/internal/platform/email"
)

// FakeEmailSender captures emails in memory for tests.
// Addresses registered with FailFor make Send return the given error.
type FakeEmailSender struct {
	mu       sync.Mutex
	Sent     []platformemail.Message
	failures map[string]error
}

func NewFakeEmailSender() *FakeEmailSender {
	return &FakeEmailSender{
		Sent:     make([]platformemail.Message, 0),
		failures: make(map[string]error),
	}
}

// FailFor makes every send to address fail with err.
func (f *FakeEmailSender) FailFor(address string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[strings.ToLower(address)] = err
}

func (f *FakeEmailSender) Send(ctx context.Context, msg platformemail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, to := range msg.To {
		if err, ok := f.failures[strings.ToLower(to)]; ok {
			return err
		}
	}
	f.Sent = append(f.Sent, msg)
	return nil
}

func (f *FakeEmailSender) LastSent() *platformemail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return nil
	}
	msg := f.Sent[len(f.Sent)-1]
	return &msg
}

// SentTo returns how many successful sends went to address.
func (f *FakeEmailSender) SentTo(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, msg := range f.Sent {
		for _, to := range msg.To {
			if strings.EqualFold(to, address) {
				n++
			}
		}
	}
	return n
}

func (f *FakeEmailSender) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = make([]platformemail.Message, 0)
	f.failures = make(map[string]error)
}

// Count returns the number of successful sends.
func (f *FakeEmailSender) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
