package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/profile/errors"
	"github.com/qolzam/mailer/profile/services"
)

type ProfileHandler struct {
	service services.Service
}

func NewProfileHandler(service services.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Dashboard returns the caller's mailings, recipients and messages.
// Endpoint: GET /profile
func (h *ProfileHandler) Dashboard(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}

	dashboard, err := h.service.Dashboard(c.UserContext(), user)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(dashboard)
}
