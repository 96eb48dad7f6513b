package services

import (
	"context"
	"errors"
	"testing"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/internal/validation"
	recipientErrors "github.com/qolzam/mailer/recipients/errors"
	"github.com/qolzam/mailer/recipients/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUser() types.UserContext {
	return types.UserContext{UserID: uuid.Must(uuid.NewV4()), Username: "owner@example.com"}
}

func TestCreateRecipient(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	words := validation.NewWordFilter([]string{"казино"})

	t.Run("stores recipient for caller", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Create", ctx, mock.MatchedBy(func(r *models.Recipient) bool {
			return r.OwnerID == user.UserID && r.Email == "a@example.com" && r.Initials == "Ivan"
		})).Return(nil).Once()

		svc := NewService(mockRepo, ServiceConfig{Words: words})
		got, err := svc.Create(ctx, user, &models.RecipientRequest{Email: " a@example.com", Initials: "Ivan"})

		require.NoError(t, err)
		assert.Equal(t, user.UserID, got.OwnerID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects forbidden initials", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo, ServiceConfig{Words: words})

		_, err := svc.Create(ctx, user, &models.RecipientRequest{Email: "a@example.com", Initials: "КАЗИНО Ivan"})

		var fieldErrs validation.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Contains(t, fieldErrs, "initials")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("wraps repository failure", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

		svc := NewService(mockRepo, ServiceConfig{})
		_, err := svc.Create(ctx, user, &models.RecipientRequest{Email: "a@example.com", Initials: "Ivan"})

		assert.ErrorIs(t, err, recipientErrors.ErrDatabaseOperation)
	})

	t.Run("nil request", func(t *testing.T) {
		svc := NewService(new(MockRepository), ServiceConfig{})
		_, err := svc.Create(ctx, user, nil)
		assert.ErrorIs(t, err, recipientErrors.ErrInvalidRequest)
	})
}

func TestListRecipients_Scope(t *testing.T) {
	ctx := context.Background()

	t.Run("regular user is owner scoped", func(t *testing.T) {
		user := newUser()
		mockRepo := new(MockRepository)
		mockRepo.On("List", ctx, types.OwnerScope(user.UserID)).
			Return([]models.Recipient{{OwnerID: user.UserID}}, nil).Once()

		resp, err := NewService(mockRepo, ServiceConfig{}).List(ctx, user)

		require.NoError(t, err)
		assert.Equal(t, 1, resp.Total)
		mockRepo.AssertExpectations(t)
	})

	t.Run("bypass permission sees all", func(t *testing.T) {
		user := newUser()
		user.Permissions = []string{types.PermDisableMailing}
		mockRepo := new(MockRepository)
		mockRepo.On("List", ctx, types.Scope{OwnerID: user.UserID, All: true}).
			Return([]models.Recipient{{}, {}}, nil).Once()

		resp, err := NewService(mockRepo, ServiceConfig{}).List(ctx, user)

		require.NoError(t, err)
		assert.Equal(t, 2, resp.Total)
		mockRepo.AssertExpectations(t)
	})
}

func TestListRecipients_CacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	scope := types.OwnerScope(user.UserID)

	mockRepo := new(MockRepository)
	mockRepo.On("List", ctx, scope).Return([]models.Recipient{{OwnerID: user.UserID}}, nil).Twice()
	mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

	svc := NewService(mockRepo, ServiceConfig{Cache: testutil.NewMemoryCacheService(t)})

	_, err := svc.List(ctx, user)
	require.NoError(t, err)
	_, err = svc.List(ctx, user)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "List", 1)

	_, err = svc.Create(ctx, user, &models.RecipientRequest{Email: "a@example.com", Initials: "Ivan"})
	require.NoError(t, err)

	_, err = svc.List(ctx, user)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "List", 2)
}

func TestGetRecipient(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	id := uuid.Must(uuid.NewV4())

	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", ctx, types.OwnerScope(user.UserID), id).
		Return(nil, recipientErrors.ErrRecipientNotFound).Once()

	_, err := NewService(mockRepo, ServiceConfig{}).Get(ctx, user, id)
	assert.ErrorIs(t, err, recipientErrors.ErrRecipientNotFound)
}

func TestUpdateRecipient(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	id := uuid.Must(uuid.NewV4())

	mockRepo := new(MockRepository)
	mockRepo.On("Update", ctx, types.OwnerScope(user.UserID), mock.MatchedBy(func(r *models.Recipient) bool {
		return r.ObjectId == id && r.Comment == "updated"
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*models.Recipient).OwnerID = user.UserID
	}).Return(nil).Once()

	got, err := NewService(mockRepo, ServiceConfig{}).Update(ctx, user, id,
		&models.RecipientRequest{Email: "a@example.com", Initials: "Ivan", Comment: "updated"})

	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.OwnerID)
	mockRepo.AssertExpectations(t)
}

func TestDeleteRecipient(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	id := uuid.Must(uuid.NewV4())
	scope := types.OwnerScope(user.UserID)

	t.Run("deletes owned recipient", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, scope, id).Return(&models.Recipient{ObjectId: id, OwnerID: user.UserID}, nil).Once()
		mockRepo.On("Delete", ctx, scope, id).Return(nil).Once()

		require.NoError(t, NewService(mockRepo, ServiceConfig{}).Delete(ctx, user, id))
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing recipient", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, scope, id).Return(nil, recipientErrors.ErrRecipientNotFound).Once()

		err := NewService(mockRepo, ServiceConfig{}).Delete(ctx, user, id)
		assert.ErrorIs(t, err, recipientErrors.ErrRecipientNotFound)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}
