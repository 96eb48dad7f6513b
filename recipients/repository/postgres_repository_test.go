// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"testing"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	recipientErrors "github.com/qolzam/mailer/recipients/errors"
	"github.com/qolzam/mailer/recipients/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_Integration(t *testing.T) {
	client := testutil.NewIsolatedPostgres(t, testutil.NewTestConfig(t, nil))
	repo := NewPostgresRepository(client)
	ctx := context.Background()

	alice := testutil.InsertUser(t, client, "alice@example.com")
	bob := testutil.InsertUser(t, client, "bob@example.com")

	mine := &models.Recipient{OwnerID: alice, Email: "r1@example.com", Initials: "R One"}
	require.NoError(t, repo.Create(ctx, mine))
	require.NotEqual(t, uuid.Nil, mine.ObjectId)

	theirs := &models.Recipient{OwnerID: bob, Email: "r2@example.com", Initials: "R Two", Comment: "vip"}
	require.NoError(t, repo.Create(ctx, theirs))

	t.Run("owner scope hides other owners", func(t *testing.T) {
		list, err := repo.List(ctx, types.OwnerScope(alice))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, mine.ObjectId, list[0].ObjectId)

		_, err = repo.FindByID(ctx, types.OwnerScope(alice), theirs.ObjectId)
		assert.ErrorIs(t, err, recipientErrors.ErrRecipientNotFound)

		total, err := repo.Count(ctx, types.OwnerScope(bob))
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("global scope sees everything", func(t *testing.T) {
		all := types.Scope{OwnerID: alice, All: true}
		list, err := repo.List(ctx, all)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		got, err := repo.FindByID(ctx, all, theirs.ObjectId)
		require.NoError(t, err)
		assert.Equal(t, "vip", got.Comment)
	})

	t.Run("update within scope", func(t *testing.T) {
		upd := &models.Recipient{ObjectId: mine.ObjectId, Email: "new@example.com", Initials: "New"}
		require.NoError(t, repo.Update(ctx, types.OwnerScope(alice), upd))
		assert.Equal(t, alice, upd.OwnerID)

		got, err := repo.FindByID(ctx, types.OwnerScope(alice), mine.ObjectId)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Email)

		foreign := &models.Recipient{ObjectId: theirs.ObjectId, Email: "x@example.com", Initials: "X"}
		assert.ErrorIs(t, repo.Update(ctx, types.OwnerScope(alice), foreign), recipientErrors.ErrRecipientNotFound)
	})

	t.Run("delete within scope", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, types.OwnerScope(alice), theirs.ObjectId), recipientErrors.ErrRecipientNotFound)
		require.NoError(t, repo.Delete(ctx, types.OwnerScope(bob), theirs.ObjectId))

		_, err := repo.FindByID(ctx, types.OwnerScope(bob), theirs.ObjectId)
		assert.ErrorIs(t, err, recipientErrors.ErrRecipientNotFound)
	})
}
