package password

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/auth/errors"
)

type PasswordHandler struct {
	svc *Service
}

func NewPasswordHandler(s *Service) *PasswordHandler {
	return &PasswordHandler{svc: s}
}

// RequestReset handles POST /users/password-reset
func (h *PasswordHandler) RequestReset(c *fiber.Ctx) error {
	model := &ResetRequest{}
	if err := c.BodyParser(model); err != nil {
		return errors.HandleInvalidRequestError(c, "Invalid request body")
	}

	if err := h.svc.RequestReset(c.UserContext(), model.Email, c.IP()); err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "A password reset link has been sent",
	})
}

// ConfirmReset handles POST /users/password-reset-confirm/:token
func (h *PasswordHandler) ConfirmReset(c *fiber.Ctx) error {
	model := &ResetConfirmRequest{}
	if err := c.BodyParser(model); err != nil {
		return errors.HandleInvalidRequestError(c, "Invalid request body")
	}

	user, err := h.svc.ConfirmReset(c.UserContext(), c.Params("token"), *model, c.IP())
	if err != nil {
		return errors.HandleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":    user.Summary(),
		"message": "Password has been changed",
	})
}
