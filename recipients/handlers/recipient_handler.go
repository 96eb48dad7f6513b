package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/internal/types"
	"github.com/qolzam/mailer/recipients/errors"
	"github.com/qolzam/mailer/recipients/models"
	"github.com/qolzam/mailer/recipients/services"
)

type RecipientHandler struct {
	service services.Service
}

func NewRecipientHandler(service services.Service) *RecipientHandler {
	return &RecipientHandler{service: service}
}

// Create adds a recipient owned by the caller.
// Endpoint: POST /recipients
func (h *RecipientHandler) Create(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}

	var req models.RecipientRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "invalid request body")
	}

	recipient, err := h.service.Create(c.UserContext(), user, &req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(recipient)
}

// List returns the recipients visible to the caller.
// Endpoint: GET /recipients
func (h *RecipientHandler) List(c *fiber.Ctx) error {
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

// Get returns one recipient.
// Endpoint: GET /recipients/:id
func (h *RecipientHandler) Get(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	recipient, err := h.service.Get(c.UserContext(), user, id)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(recipient)
}

// Update replaces a recipient's fields.
// Endpoint: PUT /recipients/:id
func (h *RecipientHandler) Update(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "invalid user context")
	}
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "id")
	}

	var req models.RecipientRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "invalid request body")
	}

	recipient, err := h.service.Update(c.UserContext(), user, id, &req)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(recipient)
}

// Delete removes a recipient.
// Endpoint: DELETE /recipients/:id
func (h *RecipientHandler) Delete(c *fiber.Ctx) error {
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
