package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/messages/errors"
	"github.com/qolzam/mailer/messages/models"
	"github.com/qolzam/mailer/messages/services"
)

type MessageHandler struct {
	service services.Service
}

func NewMessageHandler(service services.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// Create adds a message owned by the caller.
// Endpoint: POST /messages
func (h *MessageHandler) Create(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}

	var req models.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "invalid request body")
	}

	message, err := h.service.Create(c.UserContext(), user, &req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(message)
}

// List returns the messages visible to the caller.
// Endpoint: GET /messages
func (h *MessageHandler) List(c *fiber.Ctx) error {
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

// Get returns one message.
// Endpoint: GET /messages/:id
func (h *MessageHandler) Get(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	message, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(message)
}

// Update replaces a message's fields.
// Endpoint: PUT /messages/:id
func (h *MessageHandler) Update(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	var req models.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "invalid request body")
	}

	message, err := h.service.Update(c.UserContext(), user, id, &req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(message)
}

// Delete removes a message.
// Endpoint: DELETE /messages/:id
func (h *MessageHandler) Delete(c *fiber.Ctx) error {
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
