package models

import (
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailingRequest_Validate(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	msg := uuid.Must(uuid.NewV4())
	rcp := uuid.Must(uuid.NewV4())

	t.Run("valid request is parsed", func(t *testing.T) {
		req := MailingRequest{
			MessageID:    msg.String(),
			RecipientIDs: []string{rcp.String(), rcp.String()},
			StartedAt:    &start,
			EndedAt:      &end,
		}
		form, err := req.Validate()
		require.NoError(t, err)
		assert.Equal(t, msg, form.MessageID)
		assert.Equal(t, []uuid.UUID{rcp}, form.RecipientIDs)
		assert.Equal(t, end, form.EndedAt)
	})

	cases := []struct {
		name  string
		req   MailingRequest
		field string
	}{
		{"missing timestamps", MailingRequest{MessageID: msg.String(), RecipientIDs: []string{rcp.String()}}, "startedAt"},
		{"missing end", MailingRequest{MessageID: msg.String(), RecipientIDs: []string{rcp.String()}, StartedAt: &start}, "endedAt"},
		{"end before start", MailingRequest{MessageID: msg.String(), RecipientIDs: []string{rcp.String()}, StartedAt: &end, EndedAt: &start}, "endedAt"},
		{"missing message", MailingRequest{RecipientIDs: []string{rcp.String()}, StartedAt: &start, EndedAt: &end}, "messageId"},
		{"bad message id", MailingRequest{MessageID: "x", RecipientIDs: []string{rcp.String()}, StartedAt: &start, EndedAt: &end}, "messageId"},
		{"no recipients", MailingRequest{MessageID: msg.String(), StartedAt: &start, EndedAt: &end}, "recipientIds"},
		{"bad recipient id", MailingRequest{MessageID: msg.String(), RecipientIDs: []string{"nope"}, StartedAt: &start, EndedAt: &end}, "recipientIds"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.Validate()
			var fieldErrs validation.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Contains(t, fieldErrs, tc.field)
		})
	}
}
