package models

import (
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/validation"
)

// Status is the lifecycle state of a mailing. It only moves towards Finished.
type Status string

const (
	StatusCreated  Status = "Created"
	StatusStarted  Status = "Started"
	StatusFinished Status = "Finished"
)

// Mailing sends one message to a set of recipients between StartedAt and EndedAt.
type Mailing struct {
	ObjectId     uuid.UUID   `json:"objectId" db:"id"`
	OwnerID      uuid.UUID   `json:"ownerUserId" db:"owner_id"`
	MessageID    uuid.UUID   `json:"messageId" db:"message_id"`
	Status       Status      `json:"status" db:"status"`
	StartedAt    time.Time   `json:"startedAt" db:"started_at"`
	EndedAt      time.Time   `json:"endedAt" db:"ended_at"`
	LastCycle    int         `json:"lastCycle" db:"last_cycle"`
	RecipientIDs []uuid.UUID `json:"recipientIds" db:"-"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// MailingRequest is the body of create and update calls.
type MailingRequest struct {
	MessageID    string     `json:"messageId"`
	RecipientIDs []string   `json:"recipientIds"`
	StartedAt    *time.Time `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt"`
}

// MailingForm is a validated MailingRequest.
type MailingForm struct {
	MessageID    uuid.UUID
	RecipientIDs []uuid.UUID
	StartedAt    time.Time
	EndedAt      time.Time
}

// Validate checks the request shape and returns the parsed form.
// Ownership of the referenced records is checked by the service.
func (r *MailingRequest) Validate() (*MailingForm, error) {
	form := validation.NewForm()
	out := &MailingForm{}

	messageID, err := uuid.FromString(r.MessageID)
	form.Check(r.MessageID != "", "messageId", "this field is required")
	form.Check(r.MessageID == "" || err == nil, "messageId", "must be a valid id")
	out.MessageID = messageID

	form.Check(len(r.RecipientIDs) > 0, "recipientIds", "select at least one recipient")
	seen := make(map[uuid.UUID]bool, len(r.RecipientIDs))
	for _, raw := range r.RecipientIDs {
		id, err := uuid.FromString(raw)
		if err != nil {
			form.Add("recipientIds", fmt.Sprintf("invalid id: %s", raw))
			continue
		}
		if !seen[id] {
			seen[id] = true
			out.RecipientIDs = append(out.RecipientIDs, id)
		}
	}

	form.Check(r.StartedAt != nil, "startedAt", "this field is required")
	form.Check(r.EndedAt != nil, "endedAt", "this field is required")
	if r.StartedAt != nil && r.EndedAt != nil {
		out.StartedAt = r.StartedAt.UTC()
		out.EndedAt = r.EndedAt.UTC()
		form.Check(out.EndedAt.After(out.StartedAt), "endedAt", "must be after startedAt")
	}

	if err := form.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type MailingsListResponse struct {
	Mailings []Mailing `json:"mailings"`
	Total    int       `json:"total"`
}

// DeliveryRecipient is a recipient address as seen by the send loop.
type DeliveryRecipient struct {
	ID       uuid.UUID `db:"id"`
	Email    string    `db:"email"`
	Initials string    `db:"initials"`
}

// Delivery is everything the send loop needs for one cycle.
type Delivery struct {
	Mailing    Mailing
	Subject    string
	Body       string
	Recipients []DeliveryRecipient
}
