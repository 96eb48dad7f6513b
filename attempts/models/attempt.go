package models

import (
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
)

// Attempt statuses.
const (
	StatusSuccess = "Success"
	StatusFailure = "Failure"
)

// Server responses recorded with each attempt.
const (
	ResponseSent             = "message sent"
	ResponseRecipientMissing = "recipient does not exist"
)

// SendErrorResponse formats the response text for an unclassified delivery error.
func SendErrorResponse(err error) string {
	return fmt.Sprintf("send error: %v", err)
}

// Attempt is one delivery of a mailing to one recipient in one cycle. Rows are append-only.
type Attempt struct {
	ObjectId       uuid.UUID     `json:"objectId" db:"id"`
	MailingID      uuid.UUID     `json:"mailingId" db:"mailing_id"`
	OwnerID        uuid.UUID     `json:"ownerUserId" db:"owner_id"`
	RecipientID    uuid.NullUUID `json:"recipientId" db:"recipient_id"`
	RecipientEmail string        `json:"recipientEmail" db:"recipient_email"`
	Cycle          int           `json:"cycle" db:"cycle"`
	Status         string        `json:"status" db:"status"`
	ServerResponse string        `json:"serverResponse" db:"server_response"`
	AttemptedAt    time.Time     `json:"attemptedAt" db:"attempted_at"`
}

// StatisticsFilter is decoded from the statistics query string.
type StatisticsFilter struct {
	MailingID uuid.UUID `query:"mailing_id"`
}

// StatisticsResponse splits the visible attempts by outcome.
type StatisticsResponse struct {
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	Successful   []Attempt `json:"successful"`
	Failed       []Attempt `json:"failed"`
}

// NewStatistics partitions attempts by status, keeping their order.
func NewStatistics(attempts []Attempt) *StatisticsResponse {
	resp := &StatisticsResponse{Successful: []Attempt{}, Failed: []Attempt{}}
	for _, a := range attempts {
		if a.Status == StatusSuccess {
			resp.Successful = append(resp.Successful, a)
		} else {
			resp.Failed = append(resp.Failed, a)
		}
	}
	resp.SuccessCount = len(resp.Successful)
	resp.FailureCount = len(resp.Failed)
	return resp
}
