package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/internal/validation"
	recipientErrors "github.com/qolzam/mailer/recipients/errors"
	"github.com/qolzam/mailer/recipients/models"
	"github.com/qolzam/mailer/recipients/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct {
	mock.Mock
}

var _ services.Service = (*MockService)(nil)

func (m *MockService) Create(ctx context.Context, user types.UserContext, req *models.RecipientRequest) (*models.Recipient, error) {
	args := m.Called(user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipient), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, user types.UserContext, id uuid.UUID) (*models.Recipient, error) {
	args := m.Called(user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipient), args.Error(1)
}

func (m *MockService) List(ctx context.Context, user types.UserContext) (*models.RecipientsListResponse, error) {
	args := m.Called(user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecipientsListResponse), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, user types.UserContext, id uuid.UUID, req *models.RecipientRequest) (*models.Recipient, error) {
	args := m.Called(user, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipient), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, user types.UserContext, id uuid.UUID) error {
	return m.Called(user, id).Error(0)
}

func newTestApp(svc services.Service, user *types.UserContext) *fiber.App {
	app := fiber.New()
	if user != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(types.UserCtxName, *user)
			return c.Next()
		})
	}
	h := NewRecipientHandler(svc)
	app.Post("/recipients", h.Create)
	app.Get("/recipients", h.List)
	app.Get("/recipients/:id", h.Get)
	app.Put("/recipients/:id", h.Update)
	app.Delete("/recipients/:id", h.Delete)
	return app
}

func TestRecipientHandler_Create(t *testing.T) {
	user := testutil.CreateTestUserContext("owner@example.com")

	t.Run("created", func(t *testing.T) {
		svc := new(MockService)
		created := &models.Recipient{ObjectId: uuid.Must(uuid.NewV4()), OwnerID: user.UserID, Email: "a@example.com", Initials: "Ivan"}
		svc.On("Create", user, &models.RecipientRequest{Email: "a@example.com", Initials: "Ivan"}).Return(created, nil).Once()

		resp := testutil.NewHTTPHelper(t, newTestApp(svc, &user)).
			NewRequest(http.MethodPost, "/recipients", map[string]string{"email": "a@example.com", "initials": "Ivan"}).
			Send()

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var body map[string]interface{}
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, created.ObjectId.String(), body["objectId"])
		svc.AssertExpectations(t)
	})

	t.Run("validation failure", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Create", user, mock.Anything).
			Return(nil, validation.FieldErrors{"initials": {"forbidden word: казино"}}).Once()

		resp := testutil.NewHTTPHelper(t, newTestApp(svc, &user)).
			NewRequest(http.MethodPost, "/recipients", map[string]string{"email": "a@example.com", "initials": "казино"}).
			Send()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body recipientErrors.ErrorResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, recipientErrors.CodeValidationFailed, body.Code)
	})

	t.Run("missing user context", func(t *testing.T) {
		resp := testutil.NewHTTPHelper(t, newTestApp(new(MockService), nil)).
			NewRequest(http.MethodPost, "/recipients", map[string]string{}).
			Send()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := testutil.NewHTTPHelper(t, newTestApp(new(MockService), &user)).
			NewRequest(http.MethodPost, "/recipients", "{").
			Send()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRecipientHandler_Get(t *testing.T) {
	user := testutil.CreateTestUserContext("owner@example.com")
	id := uuid.Must(uuid.NewV4())

	t.Run("not found", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Get", user, id).Return(nil, recipientErrors.ErrRecipientNotFound).Once()

		resp := testutil.NewHTTPHelper(t, newTestApp(svc, &user)).NewRequest(http.MethodGet, "/recipients/"+id.String(), nil).Send()

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body recipientErrors.ErrorResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, recipientErrors.CodeRecipientNotFound, body.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp := testutil.NewHTTPHelper(t, newTestApp(new(MockService), &user)).NewRequest(http.MethodGet, "/recipients/nope", nil).Send()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRecipientHandler_List(t *testing.T) {
	user := testutil.CreateTestUserContext("owner@example.com")
	svc := new(MockService)
	svc.On("List", user).Return(&models.RecipientsListResponse{Recipients: []models.Recipient{{Email: "a@example.com"}}, Total: 1}, nil).Once()

	resp := testutil.NewHTTPHelper(t, newTestApp(svc, &user)).NewRequest(http.MethodGet, "/recipients", nil).Send()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body models.RecipientsListResponse
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, 1, body.Total)
}

func TestRecipientHandler_UpdateAndDelete(t *testing.T) {
	user := testutil.CreateTestUserContext("owner@example.com")
	id := uuid.Must(uuid.NewV4())

	svc := new(MockService)
	req := &models.RecipientRequest{Email: "b@example.com", Initials: "Petr", Comment: "c"}
	svc.On("Update", user, id, req).Return(&models.Recipient{ObjectId: id, Email: "b@example.com"}, nil).Once()
	svc.On("Delete", user, id).Return(nil).Once()

	helper := testutil.NewHTTPHelper(t, newTestApp(svc, &user))

	resp := helper.NewRequest(http.MethodPut, "/recipients/"+id.String(), req).Send()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = helper.NewRequest(http.MethodDelete, "/recipients/"+id.String(), nil).Send()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	svc.AssertExpectations(t)
}
