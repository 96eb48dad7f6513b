package messages

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	messageErrors "github.com/qolzam/mailer/messages/errors"
	"github.com/qolzam/mailer/messages/handlers"
	"github.com/qolzam/mailer/messages/models"
	"github.com/qolzam/mailer/messages/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMessageRoutes(t *testing.T) {
	cfg := testutil.NewTestConfig(t, nil)
	user := testutil.CreateTestUserContext("owner@example.com")
	token := testutil.GenerateTestJWT(t, cfg.JWT.PrivateKey, user)

	repo := new(services.MockRepository)
	repo.On("List", mock.Anything, types.OwnerScope(user.UserID)).
		Return([]models.Message{{OwnerID: user.UserID, Subject: "Hello"}}, nil)

	app := fiber.New()
	RegisterRoutes(app, &Handlers{
		MessageHandler: handlers.NewMessageHandler(services.NewService(repo, services.ServiceConfig{})),
	}, cfg)
	helper := testutil.NewHTTPHelper(t, app)

	t.Run("requires a token", func(t *testing.T) {
		resp := helper.NewRequest(http.MethodGet, "/messages", nil).Send()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("lists with bearer token", func(t *testing.T) {
		resp := helper.NewRequest(http.MethodGet, "/messages", nil).WithJWTAuth(token).Send()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body models.MessagesListResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, 1, body.Total)
	})

	t.Run("lists with cookie", func(t *testing.T) {
		resp := helper.NewRequest(http.MethodGet, "/messages", nil).WithCookieAuth(token).Send()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		resp := helper.NewRequest(http.MethodGet, "/messages/not-a-uuid", nil).WithJWTAuth(token).Send()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		id := uuid.Must(uuid.NewV4())
		repo.On("FindByID", mock.Anything, types.OwnerScope(user.UserID), id).Return(nil, messageErrors.ErrMessageNotFound).Once()

		resp := helper.NewRequest(http.MethodGet, "/messages/"+id.String(), nil).WithJWTAuth(token).Send()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
