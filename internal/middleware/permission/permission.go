// Package permission gates routes on a named permission held by the authenticated caller.
package permission

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/internal/types"
)

type Config struct {
	UserCtxName string
	// Permission the caller must hold. Ignored when HasAccess is set.
	Permission string
	// Optional override for custom access checks
	HasAccess func(u types.UserContext) bool
}

func New(config Config) fiber.Handler {
	userKey := config.UserCtxName
	if userKey == "" {
		userKey = types.UserCtxName
	}
	hasAccess := config.HasAccess
	if hasAccess == nil {
		hasAccess = func(u types.UserContext) bool {
			return u.HasPermission(config.Permission)
		}
	}

	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(userKey).(types.UserContext)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "missing user context",
			})
		}
		if !hasAccess(user) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"code":    "FORBIDDEN",
				"message": "permission required: " + config.Permission,
			})
		}
		return c.Next()
	}
}

// Require is shorthand for New with only a permission name.
func Require(name string) fiber.Handler {
	return New(Config{Permission: name})
}
