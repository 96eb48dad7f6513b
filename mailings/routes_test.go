package mailings

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/testutil"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/mailings/handlers"
	"github.com/qolzam/mailer/mailings/models"
	"github.com/qolzam/mailer/mailings/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMailingRoutes(t *testing.T) {
	cfg := testutil.NewTestConfig(t, nil)
	user := testutil.CreateTestUserContext("owner@example.com")
	token := testutil.GenerateTestJWT(t, cfg.JWT.PrivateKey, user)

	repo := new(services.MockRepository)
	dispatcher := new(services.MockDispatcher)
	repo.On("List", mock.Anything, types.OwnerScope(user.UserID)).
		Return([]models.Mailing{{OwnerID: user.UserID, Status: models.StatusCreated}}, nil)

	app := fiber.New()
	RegisterRoutes(app, &Handlers{
		MailingHandler: handlers.NewMailingHandler(services.NewService(repo, dispatcher, services.ServiceConfig{})),
	}, cfg)
	helper := testutil.NewHTTPHelper(t, app)

	t.Run("requires a token", func(t *testing.T) {
		resp := helper.NewRequest(http.MethodGet, "/mailings", nil).Send()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("lists own mailings", func(t *testing.T) {
		resp := helper.NewRequest(http.MethodGet, "/mailings", nil).WithJWTAuth(token).Send()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body models.MailingsListResponse
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, 1, body.Total)
	})

	t.Run("send dispatches and returns 202", func(t *testing.T) {
		id := uuid.Must(uuid.NewV4())
		repo.On("FindByID", mock.Anything, types.OwnerScope(user.UserID), id).
			Return(&models.Mailing{ObjectId: id, OwnerID: user.UserID, Status: models.StatusCreated}, nil).Once()
		repo.On("MarkStarted", mock.Anything, id).Return(true, nil).Once()
		dispatcher.On("Start", mock.Anything, id).Return(nil).Once()

		resp := helper.NewRequest(http.MethodPost, "/mailings/"+id.String()+"/send", nil).WithJWTAuth(token).Send()
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	})

	t.Run("disable without permission is forbidden", func(t *testing.T) {
		id := uuid.Must(uuid.NewV4())
		repo.On("FindByID", mock.Anything, types.Scope{All: true}, id).
			Return(&models.Mailing{ObjectId: id}, nil).Once()

		resp := helper.NewRequest(http.MethodPost, "/mailings/"+id.String()+"/disable", nil).WithJWTAuth(token).Send()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("disable with malformed id is a bad request", func(t *testing.T) {
		resp := helper.NewRequest(http.MethodPost, "/mailings/nope/disable", nil).WithJWTAuth(token).Send()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
