package signup

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
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const strongPassword = "vX9!qLm2#tR7kz"

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

// tokenFromBody returns the last path segment of the link in an email body.
func tokenFromBody(body string) string {
	return body[strings.LastIndex(body, "/")+1:]
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an inactive user in the default group", func(t *testing.T) {
		svc, repo, sender := newTestService(t)

		var created *models.User
		repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*models.User) }).
			Return(nil)
		repo.On("AddToGroup", mock.Anything, mock.AnythingOfType("uuid.UUID"), types.DefaultUserGroup).Return(nil)

		user, err := svc.Register(ctx, RegisterRequest{Email: " new@example.com ", Password1: strongPassword, Password2: strongPassword})
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, "new@example.com", user.Email)
		assert.False(t, user.IsActive)
		assert.NotEqual(t, uuid.Nil, user.ObjectId)
		assert.True(t, security.ComparePassword(user.PasswordHash, strongPassword))

		msg := sender.LastSent()
		require.NotNil(t, msg)
		assert.Equal(t, []string{"new@example.com"}, msg.To)
		assert.Contains(t, msg.Body, "http://mailer.test/users/email-confirm/")

		plaintext := tokenFromBody(msg.Body)
		assert.Len(t, plaintext, 2*tokens.DefaultOpaqueLength)
		require.NotNil(t, created.Token)
		assert.True(t, tokens.MatchToken(plaintext, *created.Token))
		repo.AssertExpectations(t)
	})

	t.Run("invalid form never reaches the repository", func(t *testing.T) {
		svc, repo, sender := newTestService(t)

		_, err := svc.Register(ctx, RegisterRequest{Email: "new@example.com", Password1: strongPassword, Password2: "different"})
		var fe validation.FieldErrors
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, fe, "password2")
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		assert.Equal(t, 0, sender.Count())
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, repo, sender := newTestService(t)
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(authErrors.ErrUserAlreadyExists)

		_, err := svc.Register(ctx, RegisterRequest{Email: "taken@example.com", Password1: strongPassword, Password2: strongPassword})
		assert.ErrorIs(t, err, authErrors.ErrUserAlreadyExists)
		assert.Equal(t, 0, sender.Count())
	})

	t.Run("email failure fails the registration", func(t *testing.T) {
		svc, repo, sender := newTestService(t)
		sender.FailFor("new@example.com", errors.New("relay down"))
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil)
		repo.On("AddToGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Register(ctx, RegisterRequest{Email: "new@example.com", Password1: strongPassword, Password2: strongPassword})
		assert.ErrorIs(t, err, authErrors.ErrSystemError)
	})

	t.Run("unexpected repository error is a database error", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		_, err := svc.Register(ctx, RegisterRequest{Email: "new@example.com", Password1: strongPassword, Password2: strongPassword})
		assert.ErrorIs(t, err, authErrors.ErrDatabaseError)
	})
}

func TestService_ConfirmEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("looks the user up by token hash", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		user := &models.User{ObjectId: uuid.Must(uuid.NewV4()), Email: "a@example.com", IsActive: true}
		repo.On("ConfirmEmail", mock.Anything, tokens.HashToken("abc123")).Return(user, nil)

		got, err := svc.ConfirmEmail(ctx, "abc123", "127.0.0.1")
		require.NoError(t, err)
		assert.True(t, got.IsActive)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.On("ConfirmEmail", mock.Anything, mock.Anything).Return(nil, authErrors.ErrTokenNotFound)

		_, err := svc.ConfirmEmail(ctx, "nope", "127.0.0.1")
		assert.ErrorIs(t, err, authErrors.ErrTokenNotFound)
	})

	t.Run("blank token", func(t *testing.T) {
		svc, repo, _ := newTestService(t)

		_, err := svc.ConfirmEmail(ctx, " ", "127.0.0.1")
		assert.ErrorIs(t, err, authErrors.ErrTokenNotFound)
		repo.AssertNotCalled(t, "ConfirmEmail", mock.Anything, mock.Anything)
	})
}
