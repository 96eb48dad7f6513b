package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/attempts/errors"
	"github.com/qolzam/mailer/attempts/models"
	"github.com/qolzam/mailer/attempts/services"
	"github.com/qolzam/mailer/internal/pkg/parser"
	"github.com/qolzam/mailer/internal/types"
)

type AttemptHandler struct {
	service services.Service
}

func NewAttemptHandler(service services.Service) *AttemptHandler {
	return &AttemptHandler{service: service}
}

// Statistics returns attempt counts and lists split by outcome.
// Endpoint: GET /attempts?mailing_id=...
func (h *AttemptHandler) Statistics(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}

	var filter models.StatisticsFilter
	if err := parser.ParseQuery(c, &filter); err != nil {
		return errors.HandleServiceError(c, fmt.Errorf("%w: %v", errors.ErrInvalidFilter, err))
	}

	stats, err := h.service.Statistics(c.UserContext(), user, filter)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(stats)
}
