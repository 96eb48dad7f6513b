package models

import (
	"strings"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/validation"
)

// Field limits for recipients.
const (
	MaxEmailLength    = 100
	MaxInitialsLength = 100
	MaxCommentLength  = 150
)

// Recipient is an address a mailing can be sent to.
type Recipient struct {
	ObjectId  uuid.UUID `json:"objectId" db:"id"`
	OwnerID   uuid.UUID `json:"ownerUserId" db:"owner_id"`
	Email     string    `json:"email" db:"email"`
	Initials  string    `json:"initials" db:"initials"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// RecipientRequest is the body of create and update calls. Update replaces every field.
type RecipientRequest struct {
	Email    string `json:"email"`
	Initials string `json:"initials"`
	Comment  string `json:"comment"`
}

// Validate trims the fields and applies the recipient form rules.
func (r *RecipientRequest) Validate(words *validation.WordFilter) error {
	r.Email = strings.TrimSpace(r.Email)
	r.Initials = strings.TrimSpace(r.Initials)
	r.Comment = strings.TrimSpace(r.Comment)

	return validation.NewForm().
		Field("email", r.Email, validation.Required(), validation.MaxLen(MaxEmailLength), validation.Email()).
		Field("initials", r.Initials, validation.Required(), validation.MaxLen(MaxInitialsLength), words.Rule()).
		Field("comment", r.Comment, validation.MaxLen(MaxCommentLength)).
		Err()
}

// RecipientsListResponse is returned by the list endpoint.
type RecipientsListResponse struct {
	Recipients []Recipient `json:"recipients"`
	Total      int         `json:"total"`
}
