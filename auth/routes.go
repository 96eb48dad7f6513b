package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/auth/jwks"
	"github.com/qolzam/mailer/auth/login"
	"github.com/qolzam/mailer/auth/management"
	"github.com/qolzam/mailer/auth/password"
	"github.com/qolzam/mailer/auth/signup"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/middleware/authjwt"
	"github.com/qolzam/mailer/internal/middleware/permission"
	"github.com/qolzam/mailer/internal/middleware/ratelimit"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/internal/types"
)

// AuthHandlers holds all the handlers this router needs.
type AuthHandlers struct {
	SignupHandler     *signup.Handler
	LoginHandler      *login.Handler
	PasswordHandler   *password.PasswordHandler
	ManagementHandler *management.ManagementHandler
	JWKSHandler       *jwks.Handler

	// Revoked is the cache consulted for logged-out and blocked tokens. May be nil.
	Revoked *cache.GenericCacheService
}

func rateLimit(cfg platformconfig.RateLimitConfig, name string) fiber.Handler {
	return ratelimit.NewWithConfig(cfg.Enabled, cfg.Max, cfg.Duration, name)
}

// RegisterRoutes is the single entry point for setting up user routes.
// It accepts all its dependencies and creates nothing.
func RegisterRoutes(app *fiber.App, handlers *AuthHandlers, cfg *platformconfig.Config) {
	authMiddleware := authjwt.New(authjwt.Config{
		PublicKey:    cfg.JWT.PublicKey,
		CacheService: handlers.Revoked,
	})

	group := app.Group("/users")

	group.Post("/register", rateLimit(cfg.RateLimits.Register, "register"), handlers.SignupHandler.Register)
	group.Get("/email-confirm/:token", handlers.SignupHandler.ConfirmEmail)

	group.Post("/login", rateLimit(cfg.RateLimits.Login, "login"), handlers.LoginHandler.Login)
	group.Post("/logout", authMiddleware, handlers.LoginHandler.Logout)

	group.Post("/password-reset", rateLimit(cfg.RateLimits.PasswordReset, "password reset"), handlers.PasswordHandler.RequestReset)
	group.Post("/password-reset-confirm/:token", handlers.PasswordHandler.ConfirmReset)

	group.Get("/", authMiddleware, handlers.ManagementHandler.List)
	// malformed ids reach the handler, which answers 400 like the mailings disable endpoint
	blockGuard := []fiber.Handler{
		authMiddleware,
		permission.Require(types.PermBlockUsers),
	}
	group.Post("/:id/block", append(blockGuard, handlers.ManagementHandler.Block)...)
	group.Post("/:id/unblock", append(blockGuard, handlers.ManagementHandler.Unblock)...)

	// JWKS endpoint (public, no authentication required)
	app.Get("/.well-known/jwks.json", handlers.JWKSHandler.Handle)
}
