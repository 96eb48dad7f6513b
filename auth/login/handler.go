package login

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/auth/errors"
	"github.com/qolzam/mailer/auth/security"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/types"
)

type Handler struct {
	svc          *Service
	revoked      *cache.GenericCacheService
	secureCookie bool
}

type HandlerConfig struct {
	WebDomain string
	// Revoked holds the revoked-token list consulted by authjwt
	Revoked *cache.GenericCacheService
}

func NewHandler(s *Service, config *HandlerConfig) *Handler {
	return &Handler{
		svc:          s,
		revoked:      config.Revoked,
		secureCookie: strings.HasPrefix(config.WebDomain, "https://"),
	}
}

// Login handles POST /users/login
func (h *Handler) Login(c *fiber.Ctx) error {
	model := &LoginRequest{}
	if err := c.BodyParser(model); err != nil {
		return errors.HandleInvalidRequestError(c, "Invalid request body")
	}
	model.RemoteIpAddress = c.IP()
	model.UserAgent = c.Get(fiber.HeaderUserAgent)

	session, err := h.svc.Login(c.UserContext(), *model)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     types.AccessTokenName,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(session)
}

// Logout handles POST /users/logout. The presented token is revoked until it expires.
func (h *Handler) Logout(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return errors.HandleUserContextError(c, "Invalid user context")
	}
	jti, _ := c.Locals(authjwt.TokenIDCtxName).(string)
	expiresAt, _ := c.Locals(authjwt.TokenExpiryCtxName).(time.Time)

	if err := authjwt.Revoke(c.UserContext(), h.revoked, jti, expiresAt); err != nil {
		log.ErrorWithContext(c.UserContext(), "[Logout] failed to revoke token %s: %v", jti, err)
		return errors.HandleSystemError(c, "Could not end the session")
	}

	security.LogSecurityEvent(security.SecurityEvent{
		EventType: security.EventTypeLogout,
		UserID:    user.UserID.String(),
		IPAddress: c.IP(),
		Success:   true,
	})

	c.ClearCookie(types.AccessTokenName)
	return c.SendStatus(http.StatusNoContent)
}
