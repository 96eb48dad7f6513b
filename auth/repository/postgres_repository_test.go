// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"testing"

	uuid "github.com/gofrs/uuid"
	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/models"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPostgresUserRepository_Integration(t *testing.T) {
	client := testutil.NewIsolatedPostgres(t, testutil.NewTestConfig(t, nil))
	repo := NewPostgresUserRepository(client)
	ctx := context.Background()

	alice := &models.User{Email: "Alice@Example.com", PasswordHash: []byte("hash"), Token: strPtr("confirm-hash")}
	require.NoError(t, repo.CreateUser(ctx, alice))
	require.NotEqual(t, uuid.Nil, alice.ObjectId)

	bob := &models.User{Email: "bob@example.com", PasswordHash: []byte("hash"), IsActive: true}
	require.NoError(t, repo.CreateUser(ctx, bob))

	t.Run("duplicate email is rejected case-insensitively", func(t *testing.T) {
		err := repo.CreateUser(ctx, &models.User{Email: "alice@example.com", PasswordHash: []byte("x")})
		assert.ErrorIs(t, err, authErrors.ErrUserAlreadyExists)
	})

	t.Run("find by email ignores case", func(t *testing.T) {
		got, err := repo.FindByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ObjectId, got.ObjectId)
		assert.False(t, got.IsActive)

		_, err = repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, authErrors.ErrUserNotFound)
	})

	t.Run("confirm activates and clears the token", func(t *testing.T) {
		got, err := repo.FindByToken(ctx, "confirm-hash")
		require.NoError(t, err)
		assert.Equal(t, alice.ObjectId, got.ObjectId)

		confirmed, err := repo.ConfirmEmail(ctx, "confirm-hash")
		require.NoError(t, err)
		assert.True(t, confirmed.IsActive)
		assert.Nil(t, confirmed.Token)

		_, err = repo.ConfirmEmail(ctx, "confirm-hash")
		assert.ErrorIs(t, err, authErrors.ErrTokenNotFound)
		_, err = repo.FindByToken(ctx, "confirm-hash")
		assert.ErrorIs(t, err, authErrors.ErrTokenNotFound)
	})

	t.Run("reset password consumes the token", func(t *testing.T) {
		require.NoError(t, repo.SetToken(ctx, bob.ObjectId, "reset-hash"))

		updated, err := repo.ResetPassword(ctx, "reset-hash", []byte("new-hash"))
		require.NoError(t, err)
		assert.Equal(t, []byte("new-hash"), updated.PasswordHash)
		assert.Nil(t, updated.Token)

		_, err = repo.ResetPassword(ctx, "reset-hash", []byte("again"))
		assert.ErrorIs(t, err, authErrors.ErrTokenNotFound)
	})

	t.Run("set active", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, bob.ObjectId, false))
		got, err := repo.FindByID(ctx, bob.ObjectId)
		require.NoError(t, err)
		assert.False(t, got.IsActive)

		err = repo.SetActive(ctx, uuid.Must(uuid.NewV4()), true)
		assert.ErrorIs(t, err, authErrors.ErrUserNotFound)
	})

	t.Run("list is ordered by creation", func(t *testing.T) {
		users, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, alice.ObjectId, users[0].ObjectId)
		assert.Equal(t, bob.ObjectId, users[1].ObjectId)
	})

	t.Run("permissions come from groups", func(t *testing.T) {
		require.NoError(t, repo.AddToGroup(ctx, alice.ObjectId, types.DefaultUserGroup))
		perms, err := repo.Permissions(ctx, alice.ObjectId)
		require.NoError(t, err)
		assert.Empty(t, perms)

		require.NoError(t, repo.AddToGroup(ctx, alice.ObjectId, "manager"))
		require.NoError(t, repo.AddToGroup(ctx, alice.ObjectId, "manager"))
		perms, err = repo.Permissions(ctx, alice.ObjectId)
		require.NoError(t, err)
		assert.Equal(t, []string{types.PermBlockUsers, types.PermDisableMailing}, perms)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		err := repo.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := repo.CreateUser(txCtx, &models.User{Email: "carol@example.com", PasswordHash: []byte("x")}); err != nil {
				return err
			}
			return authErrors.ErrSystemError
		})
		assert.ErrorIs(t, err, authErrors.ErrSystemError)

		_, err = repo.FindByEmail(ctx, "carol@example.com")
		assert.ErrorIs(t, err, authErrors.ErrUserNotFound)
	})
}
