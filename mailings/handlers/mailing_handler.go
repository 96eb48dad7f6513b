package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/mailings/errors"
	"github.com/qolzam/mailer/mailings/models"
	"github.com/qolzam/mailer/mailings/services"
)

type MailingHandler struct {
	service services.Service
}

func NewMailingHandler(service services.Service) *MailingHandler {
	return &MailingHandler{service: service}
}

// Create schedules a mailing owned by the caller.
// Endpoint: POST /mailings
func (h *MailingHandler) Create(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}

	var req models.MailingRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "invalid request body")
	}

	mailing, err := h.service.Create(c.UserContext(), user, &req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(mailing)
}

// List returns the mailings visible to the caller.
// Endpoint: GET /mailings
func (h *MailingHandler) List(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}

	resp, err := h.service.List(c.UserContext(), user)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(resp)
}

// Get returns one mailing with its recipient ids.
// Endpoint: GET /mailings/:id
func (h *MailingHandler) Get(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	mailing, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(mailing)
}

// Update replaces the message, schedule and recipients.
// Endpoint: PUT /mailings/:id
func (h *MailingHandler) Update(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	var req models.MailingRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "invalid request body")
	}

	mailing, err := h.service.Update(c.UserContext(), user, id, &req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(mailing)
}

// Delete removes a mailing.
// Endpoint: DELETE /mailings/:id
func (h *MailingHandler) Delete(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	if err := h.service.Delete(c.UserContext(), user, id); err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Send starts the mailing. Delivery runs in the background.
// Endpoint: POST /mailings/:id/send
func (h *MailingHandler) Send(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	mailing, err := h.service.Send(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(mailing)
}

type disableRequest struct {
	MailingID string `json:"mailingId" form:"mailing_id"`
}

// Disable finishes a mailing of any owner.
// Endpoint: POST /mailings/:id/disable, POST /mailings/disable {"mailingId"}
func (h *MailingHandler) Disable(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}

	raw := c.Params("id")
	if raw == "" {
		var req disableRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errors.HandleValidationError(c, "invalid request body")
			}
		}
		raw = req.MailingID
	}
	if raw == "" {
		return errors.HandleValidationError(c, "mailing id is required")
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return errors.HandleUUIDError(c, "mailing id")
	}

	mailing, err := h.service.Disable(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(mailing)
}
