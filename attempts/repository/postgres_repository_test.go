// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/attempts/models"
	"github.com/qolzam/mailer/internal/database/postgres"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedMailing inserts a message, one recipient and a Started mailing for owner.
func seedMailing(t *testing.T, client *postgres.Client, owner uuid.UUID) (mailingID, recipientID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	db := client.DB()

	messageID := uuid.Must(uuid.NewV4())
	recipientID = uuid.Must(uuid.NewV4())
	mailingID = uuid.Must(uuid.NewV4())

	_, err := db.ExecContext(ctx, `INSERT INTO messages (id, owner_id, subject, body) VALUES ($1, $2, 's', 'b')`, messageID, owner)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO recipients (id, owner_id, email, initials) VALUES ($1, $2, 'r@example.com', 'R')`, recipientID, owner)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		INSERT INTO mailings (id, owner_id, message_id, status, started_at, ended_at)
		VALUES ($1, $2, $3, 'Started', NOW(), NOW() + INTERVAL '1 hour')`, mailingID, owner, messageID)
	require.NoError(t, err)
	return mailingID, recipientID
}

func TestPostgresRepository_Integration(t *testing.T) {
	client := testutil.NewIsolatedPostgres(t, testutil.NewTestConfig(t, nil))
	repo := NewPostgresRepository(client)
	ctx := context.Background()

	alice := testutil.InsertUser(t, client, "alice@example.com")
	bob := testutil.InsertUser(t, client, "bob@example.com")
	aliceMailing, aliceRecipient := seedMailing(t, client, alice)
	bobMailing, bobRecipient := seedMailing(t, client, bob)

	attempt := func(mailingID, owner, recipientID uuid.UUID, cycle int, status string) *models.Attempt {
		return &models.Attempt{
			MailingID:      mailingID,
			OwnerID:        owner,
			RecipientID:    uuid.NullUUID{UUID: recipientID, Valid: true},
			RecipientEmail: "r@example.com",
			Cycle:          cycle,
			Status:         status,
			ServerResponse: models.ResponseSent,
			AttemptedAt:    time.Now().UTC(),
		}
	}

	t.Run("one attempt per recipient and cycle", func(t *testing.T) {
		inserted, err := repo.Record(ctx, attempt(aliceMailing, alice, aliceRecipient, 1, models.StatusSuccess))
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = repo.Record(ctx, attempt(aliceMailing, alice, aliceRecipient, 1, models.StatusFailure))
		require.NoError(t, err)
		assert.False(t, inserted)

		inserted, err = repo.Record(ctx, attempt(aliceMailing, alice, aliceRecipient, 2, models.StatusFailure))
		require.NoError(t, err)
		assert.True(t, inserted)

		attempted, err := repo.AttemptedRecipients(ctx, aliceMailing, 1)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]bool{aliceRecipient: true}, attempted)

		attempted, err = repo.AttemptedRecipients(ctx, aliceMailing, 3)
		require.NoError(t, err)
		assert.Empty(t, attempted)
	})

	_, err := repo.Record(ctx, attempt(bobMailing, bob, bobRecipient, 1, models.StatusSuccess))
	require.NoError(t, err)

	t.Run("list is owner scoped", func(t *testing.T) {
		list, err := repo.List(ctx, types.OwnerScope(alice), uuid.Nil)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = repo.List(ctx, types.OwnerScope(alice), bobMailing)
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = repo.List(ctx, types.Scope{OwnerID: alice, All: true}, uuid.Nil)
		require.NoError(t, err)
		assert.Len(t, list, 3)

		list, err = repo.List(ctx, types.Scope{All: true}, bobMailing)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, bobRecipient, list[0].RecipientID.UUID)
	})
}
