package services

import (
	"context"
	"errors"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/internal/validation"
	mailingErrors "github.com/qolzam/mailer/mailings/errors"
	"github.com/qolzam/mailer/mailings/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUser() types.UserContext {
	return types.UserContext{UserID: uuid.Must(uuid.NewV4()), Username: "owner@example.com"}
}

func newManager() types.UserContext {
	u := newUser()
	u.Permissions = []string{types.PermDisableMailing}
	return u
}

func newRequest(messageID uuid.UUID, recipients ...uuid.UUID) *models.MailingRequest {
	start := time.Now().Add(time.Hour)
	end := start.Add(24 * time.Hour)
	req := &models.MailingRequest{MessageID: messageID.String(), StartedAt: &start, EndedAt: &end}
	for _, id := range recipients {
		req.RecipientIDs = append(req.RecipientIDs, id.String())
	}
	return req
}

func TestCreateMailing(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	messageID := uuid.Must(uuid.NewV4())
	recipientID := uuid.Must(uuid.NewV4())

	t.Run("stores mailing in Created status", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("ForeignReferences", ctx, user.UserID, messageID, []uuid.UUID{recipientID}).Return(true, nil, nil).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(m *models.Mailing) bool {
			return m.OwnerID == user.UserID && m.MessageID == messageID && m.Status == models.StatusCreated && len(m.RecipientIDs) == 1
		})).Return(nil).Once()

		got, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Create(ctx, user, newRequest(messageID, recipientID))

		require.NoError(t, err)
		assert.Equal(t, models.StatusCreated, got.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects another owner's records", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("ForeignReferences", ctx, user.UserID, messageID, []uuid.UUID{recipientID}).
			Return(false, []uuid.UUID{recipientID}, nil).Once()

		_, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Create(ctx, user, newRequest(messageID, recipientID))

		var fieldErrs validation.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Contains(t, fieldErrs, "messageId")
		assert.Contains(t, fieldErrs, "recipientIds")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed request before touching the store", func(t *testing.T) {
		mockRepo := new(MockRepository)

		_, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Create(ctx, user, &models.MailingRequest{})

		var fieldErrs validation.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		mockRepo.AssertNotCalled(t, "ForeignReferences", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := NewService(new(MockRepository), new(MockDispatcher), ServiceConfig{}).Create(ctx, user, nil)
		assert.ErrorIs(t, err, mailingErrors.ErrInvalidRequest)
	})

	t.Run("wraps repository failure", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("ForeignReferences", ctx, user.UserID, messageID, []uuid.UUID{recipientID}).Return(true, nil, nil).Once()
		mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

		_, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Create(ctx, user, newRequest(messageID, recipientID))
		assert.ErrorIs(t, err, mailingErrors.ErrDatabaseOperation)
	})
}

func TestUpdateMailing_ChecksReferencesAgainstOwner(t *testing.T) {
	ctx := context.Background()
	manager := newManager()
	owner := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())
	messageID := uuid.Must(uuid.NewV4())
	recipientID := uuid.Must(uuid.NewV4())
	scope := manager.Scope()
	createdAt := time.Now().Add(-48 * time.Hour).UTC()

	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", ctx, scope, id).Return(&models.Mailing{
		ObjectId:  id,
		OwnerID:   owner,
		Status:    models.StatusStarted,
		LastCycle: 3,
		CreatedAt: createdAt,
	}, nil).Once()
	mockRepo.On("ForeignReferences", ctx, owner, messageID, []uuid.UUID{recipientID}).Return(true, nil, nil).Once()
	mockRepo.On("Update", ctx, scope, mock.MatchedBy(func(m *models.Mailing) bool {
		return m.ObjectId == id && m.MessageID == messageID
	})).Return(nil).Once()

	updated, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Update(ctx, manager, id, newRequest(messageID, recipientID))

	require.NoError(t, err)
	assert.Equal(t, owner, updated.OwnerID)
	assert.Equal(t, models.StatusStarted, updated.Status)
	assert.Equal(t, 3, updated.LastCycle)
	assert.Equal(t, createdAt, updated.CreatedAt)
	assert.Equal(t, []uuid.UUID{recipientID}, updated.RecipientIDs)
	mockRepo.AssertExpectations(t)
}

func TestListMailings_CacheInvalidatedOnSend(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	scope := types.OwnerScope(user.UserID)
	id := uuid.Must(uuid.NewV4())

	mockRepo := new(MockRepository)
	mockRepo.On("List", ctx, scope).Return([]models.Mailing{{ObjectId: id, OwnerID: user.UserID}}, nil).Twice()
	mockRepo.On("FindByID", ctx, scope, id).Return(&models.Mailing{ObjectId: id, OwnerID: user.UserID, Status: models.StatusCreated}, nil).Once()
	mockRepo.On("MarkStarted", ctx, id).Return(true, nil).Once()
	dispatcher := new(MockDispatcher)
	dispatcher.On("Start", ctx, id).Return(nil).Once()

	svc := NewService(mockRepo, dispatcher, ServiceConfig{Cache: testutil.NewMemoryCacheService(t)})

	_, err := svc.List(ctx, user)
	require.NoError(t, err)
	_, err = svc.List(ctx, user)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "List", 1)

	_, err = svc.Send(ctx, user, id)
	require.NoError(t, err)

	_, err = svc.List(ctx, user)
	require.NoError(t, err)
	mockRepo.AssertNumberOfCalls(t, "List", 2)
}

func TestSendMailing(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	scope := types.OwnerScope(user.UserID)
	id := uuid.Must(uuid.NewV4())

	t.Run("marks started and dispatches", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, scope, id).Return(&models.Mailing{ObjectId: id, OwnerID: user.UserID, Status: models.StatusCreated}, nil).Once()
		mockRepo.On("MarkStarted", ctx, id).Return(true, nil).Once()
		dispatcher := new(MockDispatcher)
		dispatcher.On("Start", ctx, id).Return(nil).Once()

		got, err := NewService(mockRepo, dispatcher, ServiceConfig{}).Send(ctx, user, id)

		require.NoError(t, err)
		assert.Equal(t, models.StatusStarted, got.Status)
		mockRepo.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("finished mailing conflicts", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, scope, id).Return(&models.Mailing{ObjectId: id, Status: models.StatusFinished}, nil).Once()
		dispatcher := new(MockDispatcher)

		_, err := NewService(mockRepo, dispatcher, ServiceConfig{}).Send(ctx, user, id)

		assert.ErrorIs(t, err, mailingErrors.ErrMailingFinished)
		mockRepo.AssertNotCalled(t, "MarkStarted", mock.Anything, mock.Anything)
		dispatcher.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	})

	t.Run("finished concurrently", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, scope, id).Return(&models.Mailing{ObjectId: id, Status: models.StatusStarted}, nil).Once()
		mockRepo.On("MarkStarted", ctx, id).Return(false, nil).Once()
		dispatcher := new(MockDispatcher)

		_, err := NewService(mockRepo, dispatcher, ServiceConfig{}).Send(ctx, user, id)

		assert.ErrorIs(t, err, mailingErrors.ErrMailingFinished)
		dispatcher.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	})

	t.Run("other owner's mailing is not found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, scope, id).Return(nil, mailingErrors.ErrMailingNotFound).Once()

		_, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Send(ctx, user, id)
		assert.ErrorIs(t, err, mailingErrors.ErrMailingNotFound)
	})
}

func TestDisableMailing(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	all := types.Scope{All: true}

	t.Run("manager finishes and cancels", func(t *testing.T) {
		manager := newManager()
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, all, id).Return(&models.Mailing{ObjectId: id, Status: models.StatusStarted}, nil).Once()
		mockRepo.On("MarkFinished", ctx, id).Return(true, nil).Once()
		dispatcher := new(MockDispatcher)
		dispatcher.On("Cancel", id).Return(true).Once()

		got, err := NewService(mockRepo, dispatcher, ServiceConfig{}).Disable(ctx, manager, id)

		require.NoError(t, err)
		assert.Equal(t, models.StatusFinished, got.Status)
		mockRepo.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
	})

	t.Run("already finished is still ok", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, all, id).Return(&models.Mailing{ObjectId: id, Status: models.StatusFinished}, nil).Once()
		mockRepo.On("MarkFinished", ctx, id).Return(false, nil).Once()
		dispatcher := new(MockDispatcher)
		dispatcher.On("Cancel", id).Return(false).Once()

		_, err := NewService(mockRepo, dispatcher, ServiceConfig{}).Disable(ctx, newManager(), id)
		require.NoError(t, err)
	})

	t.Run("missing permission", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, all, id).Return(&models.Mailing{ObjectId: id}, nil).Once()

		_, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Disable(ctx, newUser(), id)

		assert.ErrorIs(t, err, mailingErrors.ErrPermissionDenied)
		mockRepo.AssertNotCalled(t, "MarkFinished", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByID", ctx, all, id).Return(nil, mailingErrors.ErrMailingNotFound).Once()

		_, err := NewService(mockRepo, new(MockDispatcher), ServiceConfig{}).Disable(ctx, newManager(), id)
		assert.ErrorIs(t, err, mailingErrors.ErrMailingNotFound)
	})
}

func TestDisableMailing_InvalidatesRelatedKeys(t *testing.T) {
	ctx := context.Background()
	memory := testutil.NewMemoryCacheService(t)
	stats := cache.NewScopedKeys(memory, "attempts")
	owner := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	key := stats.Key(types.OwnerScope(owner), map[string]interface{}{"mailing_id": id.String()})
	require.NoError(t, memory.CacheData(ctx, key, "cached", time.Minute))

	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", ctx, types.Scope{All: true}, id).Return(&models.Mailing{ObjectId: id, OwnerID: owner}, nil).Once()
	mockRepo.On("MarkFinished", ctx, id).Return(true, nil).Once()
	dispatcher := new(MockDispatcher)
	dispatcher.On("Cancel", id).Return(false).Once()

	svc := NewService(mockRepo, dispatcher, ServiceConfig{Cache: memory, Related: []*cache.ScopedKeys{stats}})
	_, err := svc.Disable(ctx, newManager(), id)
	require.NoError(t, err)

	var out string
	assert.Error(t, memory.GetCached(ctx, key, &out))
}

func TestDeleteMailing_CancelsTask(t *testing.T) {
	ctx := context.Background()
	user := newUser()
	scope := types.OwnerScope(user.UserID)
	id := uuid.Must(uuid.NewV4())

	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", ctx, scope, id).Return(&models.Mailing{ObjectId: id, OwnerID: user.UserID}, nil).Once()
	mockRepo.On("Delete", ctx, scope, id).Return(nil).Once()
	dispatcher := new(MockDispatcher)
	dispatcher.On("Cancel", id).Return(false).Once()

	require.NoError(t, NewService(mockRepo, dispatcher, ServiceConfig{}).Delete(ctx, user, id))
	dispatcher.AssertExpectations(t)
}
