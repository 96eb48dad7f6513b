package models

import (
	"strings"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/validation"
)

const (
	MaxSubjectLength = 100
	MaxBodyLength    = 1000
)

// Message is the subject and body sent by a mailing.
type Message struct {
	ObjectId  uuid.UUID `json:"objectId" db:"id"`
	OwnerID   uuid.UUID `json:"ownerUserId" db:"owner_id"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type MessageRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate trims the subject and checks both fields. The body keeps its whitespace.
func (r *MessageRequest) Validate(words *validation.WordFilter) error {
	r.Subject = strings.TrimSpace(r.Subject)

	return validation.NewForm().
		Field("subject", r.Subject, validation.Required(), validation.MaxLen(MaxSubjectLength), words.Rule()).
		Field("body", r.Body, validation.Required(), validation.MaxLen(MaxBodyLength)).
		Err()
}

type MessagesListResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
