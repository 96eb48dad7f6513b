package signup

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/auth/errors"
)

type Handler struct {
	svc *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{svc: s}
}

// Register handles POST /users/register
func (h *Handler) Register(c *fiber.Ctx) error {
	model := &RegisterRequest{}
	if err := c.BodyParser(model); err != nil {
		return errors.HandleInvalidRequestError(c, "Invalid request body")
	}
	model.RemoteIpAddress = c.IP()

	user, err := h.svc.Register(c.UserContext(), *model)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(RegisterResponse{
		User:    user.Summary(),
		Message: "Check your inbox to confirm the registration",
	})
}

// ConfirmEmail handles GET /users/email-confirm/:token
func (h *Handler) ConfirmEmail(c *fiber.Ctx) error {
	user, err := h.svc.ConfirmEmail(c.UserContext(), c.Params("token"), c.IP())
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":    user.Summary(),
		"message": "Email confirmed, you can now log in",
	})
}
