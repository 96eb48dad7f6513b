package password

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	authErrors "github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/models"
	"github.com/qolzam/mailer/auth/notify"
	"github.com/qolzam/mailer/auth/repository"
	"github.com/qolzam/mailer/auth/security"
	"github.com/qolzam/mailer/internal/auth/tokens"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const newPassword = "vX9!qLm2#tR7kz"

func newTestService(t *testing.T) (*Service, *repository.MockUserRepository, *testutil.FakeEmailSender) {
	t.Helper()
	security.HashCost = 4
	repo := new(repository.MockUserRepository)
	sender := testutil.NewFakeEmailSender()
	mailer := notify.NewMailer(sender,
		platformconfig.AppConfig{WebDomain: "http://mailer.test"},
		platformconfig.EmailConfig{SMTPEmail: "noreply@mailer.test"})
	return NewService(repo, mailer), repo, sender
}

func testUser() *models.User {
	return &models.User{ObjectId: uuid.Must(uuid.NewV4()), Email: "owner@example.com", IsActive: true}
}

func TestService_RequestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the token hash and mails the plaintext", func(t *testing.T) {
		svc, repo, sender := newTestService(t)
		user := testUser()
		var stored string
		repo.On("FindByEmail", mock.Anything, "owner@example.com").Return(user, nil)
		repo.On("SetToken", mock.Anything, user.ObjectId, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { stored = args.String(2) }).
			Return(nil)

		require.NoError(t, svc.RequestReset(ctx, "owner@example.com", "127.0.0.1"))

		msg := sender.LastSent()
		require.NotNil(t, msg)
		assert.Contains(t, msg.Body, "http://mailer.test/users/password-reset-confirm/")
		plaintext := msg.Body[strings.LastIndex(msg.Body, "/")+1:]
		assert.True(t, tokens.MatchToken(plaintext, stored))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, repo, sender := newTestService(t)
		repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, authErrors.ErrUserNotFound)

		err := svc.RequestReset(ctx, "nobody@example.com", "127.0.0.1")
		assert.ErrorIs(t, err, authErrors.ErrUserNotFound)
		assert.Equal(t, 0, sender.Count())
	})

	t.Run("invalid email", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		err := svc.RequestReset(ctx, "not-an-email", "127.0.0.1")
		var fe validation.FieldErrors
		assert.True(t, errors.As(err, &fe))
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("mail failure", func(t *testing.T) {
		svc, repo, sender := newTestService(t)
		sender.FailFor("owner@example.com", errors.New("relay down"))
		repo.On("FindByEmail", mock.Anything, mock.Anything).Return(testUser(), nil)
		repo.On("SetToken", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		err := svc.RequestReset(ctx, "owner@example.com", "127.0.0.1")
		assert.ErrorIs(t, err, authErrors.ErrSystemError)
	})
}

func TestService_ConfirmReset(t *testing.T) {
	ctx := context.Background()

	t.Run("sets the new password", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		user := testUser()
		var hash []byte
		repo.On("FindByToken", mock.Anything, tokens.HashToken("tok")).Return(user, nil)
		repo.On("ResetPassword", mock.Anything, tokens.HashToken("tok"), mock.Anything).
			Run(func(args mock.Arguments) { hash = args.Get(2).([]byte) }).
			Return(user, nil)

		_, err := svc.ConfirmReset(ctx, "tok", ResetConfirmRequest{Password1: newPassword, Password2: newPassword}, "127.0.0.1")
		require.NoError(t, err)
		assert.True(t, security.ComparePassword(hash, newPassword))
	})

	t.Run("unknown token wins over invalid passwords", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindByToken", mock.Anything, mock.Anything).Return(nil, authErrors.ErrTokenNotFound)

		_, err := svc.ConfirmReset(ctx, "tok", ResetConfirmRequest{Password1: "a", Password2: "b"}, "127.0.0.1")
		assert.ErrorIs(t, err, authErrors.ErrTokenNotFound)
	})

	t.Run("mismatch and short passwords", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("FindByToken", mock.Anything, mock.Anything).Return(testUser(), nil)

		_, err := svc.ConfirmReset(ctx, "tok", ResetConfirmRequest{Password1: "short", Password2: "other"}, "127.0.0.1")
		var fe validation.FieldErrors
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, fe, "password1")
		assert.Contains(t, fe, "password2")
		repo.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything, mock.Anything)
	})
}
