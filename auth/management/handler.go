package management

import (
	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/internal/types"
)

type ManagementHandler struct {
	svc UserManagement
}

func NewManagementHandler(svc UserManagement) *ManagementHandler {
	return &ManagementHandler{svc: svc}
}

// List handles GET /users
func (h *ManagementHandler) List(c *fiber.Ctx) error {
	users, err := h.svc.ListUsers(c.UserContext())
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"users": users,
		"total": len(users),
	})
}

// Block handles POST /users/:id/block
func (h *ManagementHandler) Block(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

// Unblock handles POST /users/:id/unblock
func (h *ManagementHandler) Unblock(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

func (h *ManagementHandler) setActive(c *fiber.Ctx, active bool) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "Invalid user context")
	}
	if c.Params("id") == "" {
		return errors.HandleMissingFieldError(c, "id")
	}
	userID, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return errors.HandleUUIDError(c, "user id")
	}

	if err := h.svc.SetUserActive(c.UserContext(), user, userID, active); err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"objectId": userID,
		"isActive": active,
	})
}
