package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleServiceError_StatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrMailingNotFound, http.StatusNotFound},
		{fmt.Errorf("start: %w", ErrMailingFinished), http.StatusConflict},
		{ErrPermissionDenied, http.StatusForbidden},
		{validation.FieldErrors{"messageId": {"unknown message"}}, http.StatusBadRequest},
		{ErrInvalidRequest, http.StatusBadRequest},
		{ErrDispatcherClosed, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", ErrDatabaseOperation), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return HandleServiceError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
